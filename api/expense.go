package api

import (
	"strings"

	"carteira/config"
	"carteira/middleware"
	"carteira/models"
	"carteira/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseHandler 支出处理器
type ExpenseHandler struct {
	base
	clock service.Clock
}

// NewExpenseHandler 创建支出处理器
func NewExpenseHandler(cfg *config.Config, db *gorm.DB, clock service.Clock) *ExpenseHandler {
	return &ExpenseHandler{base: base{db: db, server: cfg.Server}, clock: clock}
}

// CreateExpenseRequest 创建支出请求
type CreateExpenseRequest struct {
	Name        string          `json:"name" example:"Mercado"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"150.00"`
	DueDate     string          `json:"due_date" example:"2024-06-10"`
	PaymentDate *string         `json:"payment_date" example:"2024-06-10"` // 为空表示未支付
	Category    string          `json:"category" example:"alimentacao"`
	IsFixed     bool            `json:"is_fixed"`
	IsEssential *bool           `json:"is_essential"` // 默认为 true
}

// UpdateExpenseRequest 修改支出请求，未传的字段保持不变
type UpdateExpenseRequest struct {
	Name        *string          `json:"name"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string"`
	DueDate     *string          `json:"due_date"`
	Category    *string          `json:"category"`
	IsFixed     *bool            `json:"is_fixed"`
	IsEssential *bool            `json:"is_essential"`
}

// PayExpenseRequest 标记已支付/未支付
type PayExpenseRequest struct {
	Paid        *bool   `json:"paid" example:"true"`
	PaymentDate *string `json:"payment_date" example:"2024-06-10"` // 为空时使用今天
}

// ExpenseListRequest 支出列表请求
type ExpenseListRequest struct {
	Page     int    `form:"page" example:"1"`
	PageSize int    `form:"page_size" example:"20"`
	Month    string `form:"month" example:"2024-06"` // 按到期月份筛选
	Category string `form:"category" example:"alimentacao"`
	Paid     string `form:"paid" example:"false"` // true / false
}

func positiveAmount(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return service.Invalid(field, "金额必须大于0")
	}
	return nil
}

// Create 创建支出
// @Summary 创建支出
// @Tags 支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	db := h.db.WithContext(c.Request.Context())

	expense, err := func() (*models.Expense, error) {
		name, err := service.TrimName(req.Name)
		if err != nil {
			return nil, err
		}
		if err := positiveAmount("amount", req.Amount); err != nil {
			return nil, err
		}
		due, err := parseDate("due_date", req.DueDate)
		if err != nil {
			return nil, err
		}
		paid, err := parseOptionalDate("payment_date", req.PaymentDate)
		if err != nil {
			return nil, err
		}
		category, err := checkCategory(db, req.Category)
		if err != nil {
			return nil, err
		}
		essential := true
		if req.IsEssential != nil {
			essential = *req.IsEssential
		}
		return &models.Expense{
			OwnerID:     middleware.GetCurrentUserID(c),
			Name:        name,
			Amount:      req.Amount.Round(2),
			DueDate:     due,
			PaymentDate: paid,
			Category:    category,
			IsFixed:     req.IsFixed,
			IsEssential: essential,
		}, nil
	}()
	if err != nil {
		h.fail(c, err, "创建支出失败")
		return
	}

	if err := db.Create(expense).Error; err != nil {
		h.fail(c, service.StoreErr("创建支出", err), "创建支出失败")
		return
	}
	SuccessWithMessage(c, "创建成功", expense)
}

// List 获取支出列表
// @Summary 获取支出列表
// @Description 按到期日倒序，支持按月份、类别、是否已支付筛选
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param month query string false "到期月份 (2024-06)"
// @Param category query string false "类别"
// @Param paid query string false "是否已支付 (true/false)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.Expense{}).
		Where("owner_id = ?", middleware.GetCurrentUserID(c))
	if req.Month != "" {
		ref, err := models.ParseDate(req.Month + "-01")
		if err != nil {
			h.fail(c, service.Invalid("month", "月份格式错误，应为: 2006-01"), "")
			return
		}
		first, last := service.MonthRange(ref)
		query = query.Where("due_date >= ? AND due_date <= ?", first, last)
	}
	if category := strings.TrimSpace(req.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	switch req.Paid {
	case "":
	case "true":
		query = query.Where("payment_date IS NOT NULL")
	case "false":
		query = query.Where("payment_date IS NULL")
	default:
		h.fail(c, service.Invalid("paid", "只能为 true 或 false"), "")
		return
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		h.fail(c, service.StoreErr("统计支出", err), "查询失败")
		return
	}
	var list []models.Expense
	if err := query.Order("due_date DESC, id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&list).Error; err != nil {
		h.fail(c, service.StoreErr("查询支出", err), "查询失败")
		return
	}

	Success(c, PageResponse{Total: total, Page: req.Page, PageSize: req.PageSize, List: list})
}

// Get 获取单条支出
// @Summary 获取支出详情
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	expense, err := findOwned[models.Expense](h.db.WithContext(c.Request.Context()), middleware.GetCurrentUserID(c), id, "查询支出")
	if err != nil {
		h.fail(c, err, "查询支出失败")
		return
	}
	Success(c, expense)
}

// Update 修改支出
// @Summary 修改支出
// @Tags 支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Param request body UpdateExpenseRequest true "需要修改的字段"
// @Success 200 {object} Response{data=models.Expense} "修改成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	ownerID := middleware.GetCurrentUserID(c)
	db := h.db.WithContext(c.Request.Context())

	expense, err := findOwned[models.Expense](db, ownerID, id, "查询支出")
	if err != nil {
		h.fail(c, err, "修改支出失败")
		return
	}

	updates := map[string]interface{}{}
	err = func() error {
		if req.Name != nil {
			name, err := service.TrimName(*req.Name)
			if err != nil {
				return err
			}
			expense.Name = name
			updates["name"] = name
		}
		if req.Amount != nil {
			if err := positiveAmount("amount", *req.Amount); err != nil {
				return err
			}
			expense.Amount = req.Amount.Round(2)
			updates["amount"] = expense.Amount
		}
		if req.DueDate != nil {
			due, err := parseDate("due_date", *req.DueDate)
			if err != nil {
				return err
			}
			expense.DueDate = due
			updates["due_date"] = due
		}
		if req.Category != nil {
			category, err := checkCategory(db, *req.Category)
			if err != nil {
				return err
			}
			expense.Category = category
			updates["category"] = category
		}
		if req.IsFixed != nil {
			expense.IsFixed = *req.IsFixed
			updates["is_fixed"] = *req.IsFixed
		}
		if req.IsEssential != nil {
			expense.IsEssential = *req.IsEssential
			updates["is_essential"] = *req.IsEssential
		}
		return nil
	}()
	if err != nil {
		h.fail(c, err, "修改支出失败")
		return
	}

	if len(updates) > 0 {
		if err := db.Model(&models.Expense{}).Where("id = ? AND owner_id = ?", id, ownerID).Updates(updates).Error; err != nil {
			h.fail(c, service.StoreErr("更新支出", err), "修改支出失败")
			return
		}
	}
	SuccessWithMessage(c, "修改成功", expense)
}

// Pay 标记支出已支付或取消支付
// @Summary 标记已支付/未支付
// @Description paid=true 时写入支付日期（默认今天），paid=false 时清空支付日期
// @Tags 支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Param request body PayExpenseRequest true "支付状态"
// @Success 200 {object} Response{data=models.Expense} "修改成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id}/pay [patch]
func (h *ExpenseHandler) Pay(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	var req PayExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	if req.Paid == nil {
		h.fail(c, service.Invalid("paid", "不能为空"), "")
		return
	}

	var paidOn *models.Date
	if *req.Paid {
		paidOn, err = parseOptionalDate("payment_date", req.PaymentDate)
		if err != nil {
			h.fail(c, err, "")
			return
		}
		if paidOn == nil {
			today := h.clock()
			paidOn = &today
		}
	}

	ownerID := middleware.GetCurrentUserID(c)
	db := h.db.WithContext(c.Request.Context())
	expense, err := findOwned[models.Expense](db, ownerID, id, "查询支出")
	if err != nil {
		h.fail(c, err, "修改支付状态失败")
		return
	}
	var value interface{}
	if paidOn != nil {
		value = *paidOn
	}
	if err := db.Model(&models.Expense{}).Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]interface{}{"payment_date": value}).Error; err != nil {
		h.fail(c, service.StoreErr("更新支付状态", err), "修改支付状态失败")
		return
	}
	expense.PaymentDate = paidOn
	SuccessWithMessage(c, "修改成功", expense)
}

// Delete 删除支出
// @Summary 删除支出
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if err := deleteOwned[models.Expense](h.db.WithContext(c.Request.Context()), middleware.GetCurrentUserID(c), id, "删除支出"); err != nil {
		h.fail(c, err, "删除支出失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
