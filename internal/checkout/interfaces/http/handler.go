package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mentormarket/internal/checkout/application"
	"github.com/wyfcoding/mentormarket/internal/checkout/domain"
	enrollment "github.com/wyfcoding/mentormarket/internal/enrollment/domain"
	"github.com/wyfcoding/mentormarket/internal/payments"
	"github.com/wyfcoding/mentormarket/pkg/logger"
)

// CheckoutHandler HTTP 处理器
type CheckoutHandler struct {
	service *application.CheckoutService
}

// NewCheckoutHandler 创建 HTTP 处理器
func NewCheckoutHandler(service *application.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *CheckoutHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/checkout")
	{
		api.POST("/membership", h.Membership)
		api.POST("/marketplace", h.Marketplace)
	}
}

// MembershipRequest 会员订阅结账请求
type MembershipRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Membership 创建会员订阅结账会话
func (h *CheckoutHandler) Membership(c *gin.Context) {
	var req MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.service.MembershipCheckout(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, payments.ErrProcessorUnavailable) {
			logger.Error(c.Request.Context(), "Payment processor unavailable", "email", req.Email, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment processor unavailable"})
			return
		}
		logger.Error(c.Request.Context(), "Failed to create membership checkout", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Marketplace 创建教练服务结账会话
func (h *CheckoutHandler) Marketplace(c *gin.Context) {
	var req application.MarketplaceCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.service.MarketplaceCheckout(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, enrollment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "coach not found"})
		case errors.Is(err, domain.ErrCoachNotOnboarded):
			c.JSON(http.StatusConflict, gin.H{"error": "coach has not completed payment onboarding"})
		case errors.Is(err, domain.ErrNoRateSheet):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, payments.ErrProcessorUnavailable):
			logger.Error(c.Request.Context(), "Payment processor unavailable", "coach_id", req.CoachID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment processor unavailable"})
		default:
			logger.Error(c.Request.Context(), "Failed to create marketplace checkout", "coach_id", req.CoachID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
