package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mentormarket/internal/enrollment/application"
	"github.com/wyfcoding/mentormarket/internal/enrollment/domain"
	"github.com/wyfcoding/mentormarket/pkg/logger"
)

// EnrollmentHandler HTTP 处理器
type EnrollmentHandler struct {
	service *application.EnrollmentService
}

// NewEnrollmentHandler 创建 HTTP 处理器
func NewEnrollmentHandler(service *application.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *EnrollmentHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/applications", h.Submit)
		api.GET("/applications", h.List)
		api.GET("/applications/access", h.Access)
		api.GET("/applications/:id", h.Get)
		api.PUT("/applications/:id/status", h.Transition)
		api.PUT("/applications/:id/disabled", h.SetDisabled)
	}
}

// Submit 提交申请
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	var req application.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error(c.Request.Context(), "Failed to submit application", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// Get 获取申请记录
func (h *EnrollmentHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
			return
		}
		logger.Error(c.Request.Context(), "Failed to get application", "application_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

// List 列出申请记录
func (h *EnrollmentHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(),
		domain.Kind(c.Query("kind")),
		domain.Status(c.Query("status")),
		100, 0,
	)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list applications", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": records})
}

// TransitionRequest 状态迁移请求
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Transition 管理员状态迁移
func (h *EnrollmentHandler) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	previous, err := h.service.Transition(c.Request.Context(), c.Param("id"), domain.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		case errors.Is(err, domain.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error(c.Request.Context(), "Failed to transition application", "application_id", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"previous_status": previous,
		"status":          req.Status,
	})
}

// SetDisabledRequest 禁用开关请求
type SetDisabledRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// SetDisabled 切换禁用开关
func (h *EnrollmentHandler) SetDisabled(c *gin.Context) {
	var req SetDisabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetDisabled(c.Request.Context(), c.Param("id"), *req.Disabled); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
			return
		}
		logger.Error(c.Request.Context(), "Failed to toggle application", "application_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Access 控制台访问级别查询
func (h *EnrollmentHandler) Access(c *gin.Context) {
	kind := domain.Kind(c.Query("kind"))
	email := c.Query("email")
	if !kind.Valid() || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind and email are required"})
		return
	}

	level, err := h.service.Access(c.Request.Context(), kind, email)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to resolve access", "email", email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": level})
}
