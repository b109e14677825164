package api

import (
	"net/http"

	"carteira/config"
	"carteira/middleware"
	"carteira/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DashboardHandler 首页与月度预测
type DashboardHandler struct {
	base
	projection *service.ProjectionService
	payoff     *service.PayoffService
	email      *service.EmailService
}

// NewDashboardHandler 创建首页处理器
func NewDashboardHandler(cfg *config.Config, db *gorm.DB, projection *service.ProjectionService, payoff *service.PayoffService) *DashboardHandler {
	return &DashboardHandler{
		base:       base{db: db, server: cfg.Server},
		projection: projection,
		payoff:     payoff,
		email:      service.NewEmailService(&cfg.Email),
	}
}

// Projection 本月支出预测
// @Summary 本月支出预测
// @Description 已支付 + 未支付必要支出 + 按日均估算的剩余可变支出
// @Tags 首页
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.ProjectionResult} "获取成功"
// @Router /api/v1/dashboard/projection [get]
func (h *DashboardHandler) Projection(c *gin.Context) {
	_, result, err := h.projection.Monthly(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		h.fail(c, err, "计算预测失败")
		return
	}
	Success(c, result)
}

// Home 首页展示的债务和目标
// @Summary 首页债务与目标
// @Tags 首页
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.HomeSummary} "获取成功"
// @Router /api/v1/dashboard/home [get]
func (h *DashboardHandler) Home(c *gin.Context) {
	summary, err := h.payoff.Home(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		h.fail(c, err, "获取首页数据失败")
		return
	}
	Success(c, summary)
}

// EmailProjection 把本月预测发送到用户邮箱
// @Summary 发送月度预测邮件
// @Tags 首页
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "发送成功"
// @Failure 400 {object} Response "未设置邮箱"
// @Failure 503 {object} Response "邮件服务未启用"
// @Router /api/v1/dashboard/projection/email [post]
func (h *DashboardHandler) EmailProjection(c *gin.Context) {
	if !h.email.Enabled() {
		Error(c, http.StatusServiceUnavailable, "邮件服务未启用")
		return
	}
	user, result, err := h.projection.Monthly(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		h.fail(c, err, "计算预测失败")
		return
	}
	if err := h.email.SendMonthlyReport(user.Email, user.Username, result); err != nil {
		h.fail(c, err, "发送邮件失败")
		return
	}
	SuccessWithMessage(c, "已发送至 "+user.Email, nil)
}
