package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mentormarket/internal/payments"
	"github.com/wyfcoding/mentormarket/internal/payout/application"
	"github.com/wyfcoding/mentormarket/internal/payout/domain"
	"github.com/wyfcoding/mentormarket/pkg/logger"
)

// PayoutHandler HTTP 处理器
type PayoutHandler struct {
	service *application.PayoutService
}

// NewPayoutHandler 创建 HTTP 处理器
func NewPayoutHandler(service *application.PayoutService) *PayoutHandler {
	return &PayoutHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *PayoutHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/coaches/:id/account", h.EnsureAccount)
		api.GET("/coaches/:id/account/link", h.OnboardingLink)
		api.GET("/coaches/:id/account/status", h.AccountStatus)
		api.DELETE("/coaches/:id/account", h.ResetAccount)
	}
}

// EnsureAccount 创建或返回已有托管子账户
func (h *PayoutHandler) EnsureAccount(c *gin.Context) {
	accountID, err := h.service.EnsureAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account_id": accountID})
}

// OnboardingLink 生成开通引导链接
func (h *PayoutHandler) OnboardingLink(c *gin.Context) {
	url, err := h.service.OnboardingLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// AccountStatus 查询收款账户状态
func (h *PayoutHandler) AccountStatus(c *gin.Context) {
	status, err := h.service.AccountStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ResetAccount 清除本地账户引用。看似破坏性，实际不触碰处理商侧账户，
// 仍要求显式确认参数，防止误触。
func (h *PayoutHandler) ResetAccount(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirm=true is required"})
		return
	}

	if err := h.service.ResetAccount(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *PayoutHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "coach not found"})
	case errors.Is(err, payments.ErrProcessorUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment processor unavailable"})
	default:
		logger.Error(c.Request.Context(), "Payout operation failed", "coach_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
