package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"katydid-common-idgen/internal/metrics"
)

const (
	// HeaderCorrelationID 贯穿请求链路的标识
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID 部分代理使用的替代头
	HeaderRequestID = "X-Request-ID"

	ctxCorrelationID = "correlation_id"
	ctxSubject       = "subject"

	maxCorrelationIDLen = 128
)

// CorrelationIDFrom 当前请求的关联ID
func CorrelationIDFrom(c *gin.Context) string {
	return c.GetString(ctxCorrelationID)
}

// SubjectFrom 已鉴权请求的 JWT subject
func SubjectFrom(c *gin.Context) string {
	return c.GetString(ctxSubject)
}

func normalizeCID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "\r\n") {
		return ""
	}
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}
	return v
}

func newCID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// correlationID 沿用请求头中的关联ID，没有时生成 UUIDv7
func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := normalizeCID(c.GetHeader(HeaderCorrelationID))
		if cid == "" {
			cid = normalizeCID(c.GetHeader(HeaderRequestID))
		}
		if cid == "" {
			cid = newCID()
		}
		c.Set(ctxCorrelationID, cid)
		c.Header(HeaderCorrelationID, cid)
		c.Next()
	}
}

// accessLog 5xx 记为 Warn，其余 Info
func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		dur := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("correlation_id", CorrelationIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("duration", dur),
			zap.String("remote_ip", c.ClientIP()),
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, zap.String("user_agent", ua))
		}

		if status >= http.StatusInternalServerError {
			log.Warn("request completed", fields...)
		} else {
			log.Info("request completed", fields...)
		}
	}
}

// requestMetrics route 使用路由模板，未匹配的路由归为 "unmatched"
func requestMetrics(m *metrics.HTTP) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Observe(c.Request.Method, route, c.Writer.Status(), time.Since(start), c.Writer.Size())
	}
}

var errMissingBearer = errors.New("authorization header must be 'Bearer <token>'")

func bearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errMissingBearer
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errMissingBearer
	}
	return token, nil
}

// bearerAuth 校验 HS256 签名的 JWT，subject 写入上下文
func bearerAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			writeError(c, http.StatusUnauthorized, err.Error())
			return
		}

		claims := jwt.RegisteredClaims{}
		_, err = jwt.ParseWithClaims(raw, &claims,
			func(*jwt.Token) (any, error) { return key, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ctxSubject, claims.Subject)
		c.Next()
	}
}
