// Package handler provides HTTP handlers for the QA service.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/edunav/internal/qa/biz"
	"github.com/kart-io/edunav/internal/qa/metrics"
)

// QAHandler handles QA HTTP requests.
type QAHandler struct {
	service biz.Service
	timeout time.Duration
}

// NewQAHandler creates a new QAHandler.
func NewQAHandler(service biz.Service) *QAHandler {
	return &QAHandler{
		service: service,
		timeout: 60 * time.Second,
	}
}

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AskRequest represents a question request.
type AskRequest struct {
	Question string `json:"question"`
}

// Ask answers a question based on retrieved context.
func (h *QAHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.service.Ask(ctx, req.Question)
	if err != nil {
		h.writeAskError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: result})
}

// writeAskError 将类型化的业务错误映射为 HTTP 状态码。
func (h *QAHandler) writeAskError(c *gin.Context, ctx context.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrInvalidQuestion):
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
	case errors.Is(err, biz.ErrNoContext):
		c.JSON(http.StatusFailedDependency, ErrorResponse{
			Code:    424,
			Message: "no relevant content found in any source for this question",
		})
	case ctx.Err() == context.DeadlineExceeded:
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Code:    408,
			Message: "the question took too long to process, please try again",
		})
	default:
		var genErr *biz.GenerationError
		if errors.As(err, &genErr) {
			c.JSON(http.StatusBadGateway, ErrorResponse{Code: 502, Message: genErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
	}
}

// Sources returns per-source retriever status.
func (h *QAHandler) Sources(c *gin.Context) {
	statuses := h.service.Sources(c.Request.Context())
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: statuses})
}

// Stats returns service statistics.
func (h *QAHandler) Stats(c *gin.Context) {
	stats := h.service.Stats(c.Request.Context())
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: stats})
}

// Metrics exports business metrics in Prometheus text format.
func (h *QAHandler) Metrics(c *gin.Context) {
	c.String(http.StatusOK, metrics.GetQAMetrics().Export("edunav", "qa"))
}

// Healthz reports liveness.
func (h *QAHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
