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

// ExtraIncomeHandler 额外收入处理器
type ExtraIncomeHandler struct {
	base
}

// NewExtraIncomeHandler 创建额外收入处理器
func NewExtraIncomeHandler(cfg *config.Config, db *gorm.DB) *ExtraIncomeHandler {
	return &ExtraIncomeHandler{base: base{db: db, server: cfg.Server}}
}

// ExtraIncomeRequest 创建额外收入请求
type ExtraIncomeRequest struct {
	Name         string          `json:"name" example:"Freela"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"800.00"`
	ReceivedDate string          `json:"received_date" example:"2024-06-12"`
}

// UpdateExtraIncomeRequest 修改额外收入请求，未传的字段保持不变
type UpdateExtraIncomeRequest struct {
	Name         *string          `json:"name"`
	Amount       *decimal.Decimal `json:"amount" swaggertype:"string"`
	ReceivedDate *string          `json:"received_date"`
}

// Create 创建额外收入
// @Summary 创建额外收入
// @Tags 额外收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExtraIncomeRequest true "收入信息"
// @Success 200 {object} Response{data=models.ExtraIncome} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/extra-incomes [post]
func (h *ExtraIncomeHandler) Create(c *gin.Context) {
	var req ExtraIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	name, err := service.TrimName(req.Name)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if err := positiveAmount("amount", req.Amount); err != nil {
		h.fail(c, err, "")
		return
	}
	received, err := parseDate("received_date", req.ReceivedDate)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	income := models.ExtraIncome{
		OwnerID:      middleware.GetCurrentUserID(c),
		Name:         name,
		Amount:       req.Amount.Round(2),
		ReceivedDate: received,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&income).Error; err != nil {
		h.fail(c, service.StoreErr("创建额外收入", err), "创建额外收入失败")
		return
	}
	SuccessWithMessage(c, "创建成功", income)
}

// List 获取额外收入列表
// @Summary 获取额外收入列表
// @Tags 额外收入
// @Produce json
// @Security BearerAuth
// @Param month query string false "收到月份 (2024-06)"
// @Success 200 {object} Response{data=[]models.ExtraIncome} "获取成功"
// @Router /api/v1/extra-incomes [get]
func (h *ExtraIncomeHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Where("owner_id = ?", middleware.GetCurrentUserID(c))
	if month := c.Query("month"); month != "" {
		ref, err := models.ParseDate(month + "-01")
		if err != nil {
			h.fail(c, service.Invalid("month", "月份格式错误，应为: 2006-01"), "")
			return
		}
		first, last := service.MonthRange(ref)
		query = query.Where("received_date >= ? AND received_date <= ?", first, last)
	}

	var list []models.ExtraIncome
	if err := query.Order("received_date DESC, id DESC").Find(&list).Error; err != nil {
		h.fail(c, service.StoreErr("查询额外收入", err), "查询额外收入失败")
		return
	}
	Success(c, list)
}

// Get 获取额外收入详情
// @Summary 获取额外收入详情
// @Tags 额外收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Success 200 {object} Response{data=models.ExtraIncome} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/extra-incomes/{id} [get]
func (h *ExtraIncomeHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	income, err := findOwned[models.ExtraIncome](h.db.WithContext(c.Request.Context()), middleware.GetCurrentUserID(c), id, "查询额外收入")
	if err != nil {
		h.fail(c, err, "查询额外收入失败")
		return
	}
	Success(c, income)
}

// Update 修改额外收入
// @Summary 修改额外收入
// @Tags 额外收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Param request body UpdateExtraIncomeRequest true "需要修改的字段"
// @Success 200 {object} Response{data=models.ExtraIncome} "修改成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/extra-incomes/{id} [put]
func (h *ExtraIncomeHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	var req UpdateExtraIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	ownerID := middleware.GetCurrentUserID(c)
	db := h.db.WithContext(c.Request.Context())

	income, err := findOwned[models.ExtraIncome](db, ownerID, id, "查询额外收入")
	if err != nil {
		h.fail(c, err, "修改额外收入失败")
		return
	}
	if req.Name != nil {
		if income.Name, err = service.TrimName(*req.Name); err != nil {
			h.fail(c, err, "")
			return
		}
	}
	if req.Amount != nil {
		if err := positiveAmount("amount", *req.Amount); err != nil {
			h.fail(c, err, "")
			return
		}
		income.Amount = req.Amount.Round(2)
	}
	if req.ReceivedDate != nil {
		if income.ReceivedDate, err = parseDate("received_date", *req.ReceivedDate); err != nil {
			h.fail(c, err, "")
			return
		}
	}

	if err := db.Model(&models.ExtraIncome{}).Where("id = ? AND owner_id = ?", id, ownerID).Updates(map[string]interface{}{
		"name":          income.Name,
		"amount":        income.Amount,
		"received_date": income.ReceivedDate,
	}).Error; err != nil {
		h.fail(c, service.StoreErr("更新额外收入", err), "修改额外收入失败")
		return
	}
	SuccessWithMessage(c, "修改成功", income)
}

// Delete 删除额外收入
// @Summary 删除额外收入
// @Tags 额外收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/extra-incomes/{id} [delete]
func (h *ExtraIncomeHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if err := deleteOwned[models.ExtraIncome](h.db.WithContext(c.Request.Context()), middleware.GetCurrentUserID(c), id, "删除额外收入"); err != nil {
		h.fail(c, err, "删除额外收入失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
