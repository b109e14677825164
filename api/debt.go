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

// DebtHandler 债务处理器
type DebtHandler struct {
	base
	payoff *service.PayoffService
}

// NewDebtHandler 创建债务处理器
func NewDebtHandler(cfg *config.Config, db *gorm.DB, payoff *service.PayoffService) *DebtHandler {
	return &DebtHandler{base: base{db: db, server: cfg.Server}, payoff: payoff}
}

// CreateDebtRequest 创建债务请求
type CreateDebtRequest struct {
	Name           string          `json:"name" example:"Cartao"`
	TotalAmount    decimal.Decimal `json:"total_amount" swaggertype:"string" example:"5000.00"`
	DiscountAmount decimal.Decimal `json:"discount_amount" swaggertype:"string" example:"500.00"`
	Deadline       string          `json:"deadline" example:"2024-12-31"`
	ShowOnHome     bool            `json:"show_on_home"`
}

// UpdateDebtRequest 修改债务请求，未传的字段保持不变
type UpdateDebtRequest struct {
	Name           *string          `json:"name"`
	TotalAmount    *decimal.Decimal `json:"total_amount" swaggertype:"string"`
	DiscountAmount *decimal.Decimal `json:"discount_amount" swaggertype:"string"`
	Deadline       *string          `json:"deadline"`
	ShowOnHome     *bool            `json:"show_on_home"`
}

// Create 创建债务
// @Summary 创建债务
// @Tags 债务
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateDebtRequest true "债务信息"
// @Success 200 {object} Response{data=models.Debt} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "抵扣金额大于总金额"
// @Router /api/v1/debts [post]
func (h *DebtHandler) Create(c *gin.Context) {
	var req CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	name, err := service.TrimName(req.Name)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if err := service.ValidateDebtAmounts(req.TotalAmount, req.DiscountAmount); err != nil {
		h.fail(c, err, "")
		return
	}
	deadline, err := parseDate("deadline", req.Deadline)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	debt := models.Debt{
		OwnerID:        middleware.GetCurrentUserID(c),
		Name:           name,
		TotalAmount:    req.TotalAmount.Round(2),
		DiscountAmount: req.DiscountAmount.Round(2),
		Deadline:       deadline,
		ShowOnHome:     req.ShowOnHome,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&debt).Error; err != nil {
		h.fail(c, service.StoreErr("创建债务", err), "创建债务失败")
		return
	}
	SuccessWithMessage(c, "创建成功", debt)
}

// List 获取债务列表
// @Summary 获取债务列表
// @Tags 债务
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Debt} "获取成功"
// @Router /api/v1/debts [get]
func (h *DebtHandler) List(c *gin.Context) {
	var list []models.Debt
	if err := h.db.WithContext(c.Request.Context()).
		Where("owner_id = ?", middleware.GetCurrentUserID(c)).
		Order("deadline ASC, id ASC").
		Find(&list).Error; err != nil {
		h.fail(c, service.StoreErr("查询债务", err), "查询债务失败")
		return
	}
	Success(c, list)
}

// Get 获取债务详情
// @Summary 获取债务详情
// @Tags 债务
// @Produce json
// @Security BearerAuth
// @Param id path int true "债务ID"
// @Success 200 {object} Response{data=models.Debt} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/debts/{id} [get]
func (h *DebtHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	debt, err := findOwned[models.Debt](h.db.WithContext(c.Request.Context()), middleware.GetCurrentUserID(c), id, "查询债务")
	if err != nil {
		h.fail(c, err, "查询债务失败")
		return
	}
	Success(c, debt)
}

// Update 修改债务
// @Summary 修改债务
// @Description 修改后抵扣金额仍不能大于总金额
// @Tags 债务
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "债务ID"
// @Param request body UpdateDebtRequest true "需要修改的字段"
// @Success 200 {object} Response{data=models.Debt} "修改成功"
// @Failure 404 {object} Response "记录不存在"
// @Failure 409 {object} Response "抵扣金额大于总金额"
// @Router /api/v1/debts/{id} [put]
func (h *DebtHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	var req UpdateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	ownerID := middleware.GetCurrentUserID(c)
	db := h.db.WithContext(c.Request.Context())

	debt, err := findOwned[models.Debt](db, ownerID, id, "查询债务")
	if err != nil {
		h.fail(c, err, "修改债务失败")
		return
	}

	if req.Name != nil {
		if debt.Name, err = service.TrimName(*req.Name); err != nil {
			h.fail(c, err, "")
			return
		}
	}
	if req.TotalAmount != nil {
		debt.TotalAmount = req.TotalAmount.Round(2)
	}
	if req.DiscountAmount != nil {
		debt.DiscountAmount = req.DiscountAmount.Round(2)
	}
	if err := service.ValidateDebtAmounts(debt.TotalAmount, debt.DiscountAmount); err != nil {
		h.fail(c, err, "")
		return
	}
	if req.Deadline != nil {
		if debt.Deadline, err = parseDate("deadline", *req.Deadline); err != nil {
			h.fail(c, err, "")
			return
		}
	}
	if req.ShowOnHome != nil {
		debt.ShowOnHome = *req.ShowOnHome
	}

	if err := db.Model(&models.Debt{}).Where("id = ? AND owner_id = ?", id, ownerID).Updates(map[string]interface{}{
		"name":            debt.Name,
		"total_amount":    debt.TotalAmount,
		"discount_amount": debt.DiscountAmount,
		"deadline":        debt.Deadline,
		"show_on_home":    debt.ShowOnHome,
	}).Error; err != nil {
		h.fail(c, service.StoreErr("更新债务", err), "修改债务失败")
		return
	}
	SuccessWithMessage(c, "修改成功", debt)
}

// Delete 删除债务
// @Summary 删除债务
// @Tags 债务
// @Produce json
// @Security BearerAuth
// @Param id path int true "债务ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/debts/{id} [delete]
func (h *DebtHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if err := deleteOwned[models.Debt](h.db.WithContext(c.Request.Context()), middleware.GetCurrentUserID(c), id, "删除债务"); err != nil {
		h.fail(c, err, "删除债务失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Payoff 债务还款计划
// @Summary 债务还款计划
// @Description 每天/每月需存下的金额，以及按本月结余估算的还清月数
// @Tags 债务
// @Produce json
// @Security BearerAuth
// @Param id path int true "债务ID"
// @Success 200 {object} Response{data=service.DebtPlan} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/debts/{id}/payoff [get]
func (h *DebtHandler) Payoff(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	plan, err := h.payoff.ForDebt(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		h.fail(c, err, "计算还款计划失败")
		return
	}
	Success(c, plan)
}
