package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mentormarket/internal/reconciliation/application"
	"github.com/wyfcoding/mentormarket/internal/reconciliation/domain"
	"github.com/wyfcoding/mentormarket/pkg/logger"
	"github.com/wyfcoding/mentormarket/pkg/metrics"
)

// 处理商侧对签名时间戳有容忍窗口，过大的载荷直接拒收
const maxPayloadBytes = 1 << 16

// WebhookHandler 支付处理商回调入口
type WebhookHandler struct {
	verifier domain.EventVerifier
	service  *application.ReconciliationService
	metrics  *metrics.Metrics
}

// NewWebhookHandler 创建回调处理器
func NewWebhookHandler(verifier domain.EventVerifier, service *application.ReconciliationService, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, service: service, metrics: m}
}

// RegisterRoutes 注册路由
func (h *WebhookHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhooks/payments", h.Handle)
}

// Handle 接收回调。验签先于所有存储访问；
// 2xx 表示事件已消化（含重复投递），非 2xx 让处理商重试。
func (h *WebhookHandler) Handle(c *gin.Context) {
	start := time.Now()

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.Warn(c.Request.Context(), "webhook signature verification failed", "error", err)
		if h.metrics != nil {
			h.metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	if err := h.service.Process(c.Request.Context(), event); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrMembershipNotFound) {
			status = http.StatusNotFound
		}
		logger.Error(c.Request.Context(), "Failed to process webhook event",
			"session_id", event.SessionID, "type", event.Type, "error", err)
		if h.metrics != nil {
			h.metrics.WebhookEventsTotal.WithLabelValues("failed").Inc()
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if h.metrics != nil {
		h.metrics.WebhookEventsTotal.WithLabelValues("processed").Inc()
	}
	logger.Debug(c.Request.Context(), "webhook event processed",
		"session_id", event.SessionID, "type", event.Type, "elapsed", time.Since(start))
	c.JSON(http.StatusOK, gin.H{"received": true})
}
