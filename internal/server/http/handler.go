package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"katydid-common-idgen/pkg/idgen/core"
	"katydid-common-idgen/pkg/idgen/domain"
)

// errorBody 统一的错误响应
type errorBody struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type nextResponse struct {
	ID domain.ID `json:"id"`
}

type batchResponse struct {
	IDs domain.IDSlice `json:"ids"`
}

// parseResponse 解码后的ID，time 为 RFC3339（毫秒精度，UTC）
type parseResponse struct {
	*core.IDInfo
	Time string `json:"time"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg, CorrelationID: CorrelationIDFrom(c)})
}

// statusOf 生成与解析错误对应的 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrClockMovedBackwards),
		errors.Is(err, core.ErrTimestampOverflow):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrInvalidSnowflakeID),
		errors.Is(err, core.ErrInvalidBatchSize):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) generationFailed(c *gin.Context, err error) {
	var regression *core.ClockRegressionError
	if errors.As(err, &regression) {
		s.opts.Logger.Error("时钟回拨，拒绝生成ID",
			zap.Int64("last", regression.Last),
			zap.Int64("now", regression.Now),
			zap.String("correlation_id", CorrelationIDFrom(c)),
		)
	}
	writeError(c, statusOf(err), err.Error())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleNext POST /v1/ids
func (s *Server) handleNext(c *gin.Context) {
	id, err := s.opts.Generator.NextIDContext(c.Request.Context())
	if err != nil {
		s.generationFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, nextResponse{ID: domain.NewID(id)})
}

// handleBatch GET /v1/ids?count=n，count 缺省为 1
func (s *Server) handleBatch(c *gin.Context) {
	count := 1
	if raw, ok := c.GetQuery("count"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > s.opts.MaxBatch {
			writeError(c, http.StatusBadRequest,
				"count must be an integer in [1, "+strconv.Itoa(s.opts.MaxBatch)+"]")
			return
		}
		count = n
	}

	ids, err := s.opts.Generator.NextIDBatch(count)
	if err != nil {
		s.generationFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, batchResponse{IDs: domain.FromInt64s(ids)})
}

// handleParse GET /v1/ids/:id，支持十进制、0x 与 0b 前缀
func (s *Server) handleParse(c *gin.Context) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.opts.Generator.ParseID(id.Int64())
	if err != nil {
		writeError(c, statusOf(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, parseResponse{
		IDInfo: info,
		Time:   time.UnixMilli(info.Timestamp).UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
