package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mentormarket/internal/ledger/application"
	"github.com/wyfcoding/mentormarket/pkg/logger"
)

// LedgerHandler HTTP 处理器
type LedgerHandler struct {
	service *application.LedgerService
}

// NewLedgerHandler 创建 HTTP 处理器
func NewLedgerHandler(service *application.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *LedgerHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/earnings", h.Totals)
		api.GET("/earnings/purchases", h.Purchases)
	}
}

// Totals 聚合查询
func (h *LedgerHandler) Totals(c *gin.Context) {
	totals, err := h.service.Totals(c.Request.Context(), c.Query("payee_id"))
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to aggregate earnings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, totals)
}

// Purchases 台账明细
func (h *LedgerHandler) Purchases(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.service.Purchases(c.Request.Context(), c.Query("payee_id"), limit, offset)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list purchases", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": records})
}
