package api

import (
	"carteira/config"
	"carteira/middleware"
	"carteira/models"
	"carteira/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalHandler 储蓄目标处理器
type GoalHandler struct {
	base
	payoff *service.PayoffService
}

// NewGoalHandler 创建储蓄目标处理器
func NewGoalHandler(cfg *config.Config, db *gorm.DB, payoff *service.PayoffService) *GoalHandler {
	return &GoalHandler{base: base{db: db, server: cfg.Server}, payoff: payoff}
}

// CreateGoalRequest 创建目标请求
type CreateGoalRequest struct {
	Name         string          `json:"name" example:"Viagem"`
	TargetAmount decimal.Decimal `json:"target_amount" swaggertype:"string" example:"3000.00"`
	Deadline     string          `json:"deadline" example:"2024-12-31"`
	ShowOnHome   bool            `json:"show_on_home"`
}

// UpdateGoalRequest 修改目标请求，未传的字段保持不变
type UpdateGoalRequest struct {
	Name         *string          `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount" swaggertype:"string"`
	Deadline     *string          `json:"deadline"`
	ShowOnHome   *bool            `json:"show_on_home"`
}

// Create 创建目标
// @Summary 创建储蓄目标
// @Tags 目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGoalRequest true "目标信息"
// @Success 200 {object} Response{data=models.Goal} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	name, err := service.TrimName(req.Name)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if err := positiveAmount("target_amount", req.TargetAmount); err != nil {
		h.fail(c, err, "")
		return
	}
	deadline, err := parseDate("deadline", req.Deadline)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	goal := models.Goal{
		OwnerID:      middleware.GetCurrentUserID(c),
		Name:         name,
		TargetAmount: req.TargetAmount.Round(2),
		Deadline:     deadline,
		ShowOnHome:   req.ShowOnHome,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&goal).Error; err != nil {
		h.fail(c, service.StoreErr("创建目标", err), "创建目标失败")
		return
	}
	SuccessWithMessage(c, "创建成功", goal)
}

// List 获取目标列表
// @Summary 获取储蓄目标列表
// @Tags 目标
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Goal} "获取成功"
// @Router /api/v1/goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	var list []models.Goal
	if err := h.db.WithContext(c.Request.Context()).
		Where("owner_id = ?", middleware.GetCurrentUserID(c)).
		Order("deadline ASC, id ASC").
		Find(&list).Error; err != nil {
		h.fail(c, service.StoreErr("查询目标", err), "查询目标失败")
		return
	}
	Success(c, list)
}

// Get 获取目标详情
// @Summary 获取储蓄目标详情
// @Tags 目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} Response{data=models.Goal} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	goal, err := findOwned[models.Goal](h.db.WithContext(c.Request.Context()), middleware.GetCurrentUserID(c), id, "查询目标")
	if err != nil {
		h.fail(c, err, "查询目标失败")
		return
	}
	Success(c, goal)
}

// Update 修改目标
// @Summary 修改储蓄目标
// @Tags 目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param request body UpdateGoalRequest true "需要修改的字段"
// @Success 200 {object} Response{data=models.Goal} "修改成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/goals/{id} [put]
func (h *GoalHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	ownerID := middleware.GetCurrentUserID(c)
	db := h.db.WithContext(c.Request.Context())

	goal, err := findOwned[models.Goal](db, ownerID, id, "查询目标")
	if err != nil {
		h.fail(c, err, "修改目标失败")
		return
	}
	if req.Name != nil {
		if goal.Name, err = service.TrimName(*req.Name); err != nil {
			h.fail(c, err, "")
			return
		}
	}
	if req.TargetAmount != nil {
		if err := positiveAmount("target_amount", *req.TargetAmount); err != nil {
			h.fail(c, err, "")
			return
		}
		goal.TargetAmount = req.TargetAmount.Round(2)
	}
	if req.Deadline != nil {
		if goal.Deadline, err = parseDate("deadline", *req.Deadline); err != nil {
			h.fail(c, err, "")
			return
		}
	}
	if req.ShowOnHome != nil {
		goal.ShowOnHome = *req.ShowOnHome
	}

	if err := db.Model(&models.Goal{}).Where("id = ? AND owner_id = ?", id, ownerID).Updates(map[string]interface{}{
		"name":          goal.Name,
		"target_amount": goal.TargetAmount,
		"deadline":      goal.Deadline,
		"show_on_home":  goal.ShowOnHome,
	}).Error; err != nil {
		h.fail(c, service.StoreErr("更新目标", err), "修改目标失败")
		return
	}
	SuccessWithMessage(c, "修改成功", goal)
}

// Delete 删除目标
// @Summary 删除储蓄目标
// @Tags 目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if err := deleteOwned[models.Goal](h.db.WithContext(c.Request.Context()), middleware.GetCurrentUserID(c), id, "删除目标"); err != nil {
		h.fail(c, err, "删除目标失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Payoff 储蓄计划
// @Summary 储蓄计划
// @Tags 目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} Response{data=service.GoalPlan} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/goals/{id}/payoff [get]
func (h *GoalHandler) Payoff(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	plan, err := h.payoff.ForGoal(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		h.fail(c, err, "计算储蓄计划失败")
		return
	}
	Success(c, plan)
}
