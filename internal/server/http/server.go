// Package httpserver ID 生成服务的 HTTP 接口：gin 路由，外层套 CORS 与限流
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"katydid-common-idgen/internal/metrics"
	"katydid-common-idgen/pkg/idgen/core"
)

// defaultMaxBatch GET /v1/ids 单次最多返回的ID数
const defaultMaxBatch = 1000

// Options 服务依赖与开关
type Options struct {
	Generator core.IGenerator
	Logger    *zap.Logger

	// Metrics 为 nil 时不记录请求指标；Gatherer 为 nil 时 /metrics 使用 prometheus.DefaultGatherer
	Metrics  *metrics.HTTP
	Gatherer prometheus.Gatherer

	MaxBatch    int
	JWTSecret   string   // 为空时 /v1 不鉴权
	CORSOrigins []string // 为空时不启用 CORS
	RateLimit   int      // 每个IP在 RateWindow 内的请求数，0 不限流
	RateWindow  time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server ID 生成 HTTP 服务
type Server struct {
	opts    Options
	handler http.Handler
	srv     *http.Server

	mu  sync.Mutex
	lis net.Listener
}

// New 创建服务，Generator 必填
func New(opts Options) (*Server, error) {
	if opts.Generator == nil {
		return nil, errors.New("httpserver: generator is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = defaultMaxBatch
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{opts: opts}
	s.handler = s.wrap(s.routes())
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s, nil
}

// Handler 完整的处理链（含 CORS 与限流），便于测试
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(s.recovery))
	r.Use(correlationID())
	r.Use(accessLog(s.opts.Logger))
	if s.opts.Metrics != nil {
		r.Use(requestMetrics(s.opts.Metrics))
	}

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	if s.opts.JWTSecret != "" {
		v1.Use(bearerAuth(s.opts.JWTSecret))
	}
	v1.POST("/ids", s.handleNext)
	v1.GET("/ids", s.handleBatch)
	v1.GET("/ids/:id", s.handleParse)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})
	return r
}

// wrap 在 gin 之外套上 CORS 与按IP限流
func (s *Server) wrap(h http.Handler) http.Handler {
	if s.opts.RateLimit > 0 {
		h = httprate.LimitByIP(s.opts.RateLimit, s.opts.RateWindow)(h)
	}
	if len(s.opts.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", HeaderCorrelationID, HeaderRequestID},
			ExposedHeaders: []string{HeaderCorrelationID},
		}).Handler(h)
	}
	return h
}

// ListenAndServe 阻塞直到 ctx 取消或服务出错，ctx 取消时优雅关闭
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lis = l
	s.mu.Unlock()
	s.opts.Logger.Info("HTTP服务启动", zap.String("addr", l.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()

	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(cctx); err != nil {
			s.opts.Logger.Warn("HTTP服务关闭超时", zap.Error(err))
			return err
		}
		s.opts.Logger.Info("HTTP服务已关闭")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr 监听地址，ListenAndServe 之前为 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

func (s *Server) recovery(c *gin.Context, recovered any) {
	s.opts.Logger.Error("请求处理 panic",
		zap.Any("panic", recovered),
		zap.String("path", c.Request.URL.Path),
		zap.String("correlation_id", CorrelationIDFrom(c)),
	)
	writeError(c, http.StatusInternalServerError, "internal error")
}
