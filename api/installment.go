package api

import (
	"carteira/config"
	"carteira/middleware"
	"carteira/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallmentHandler 分期购买处理器
type InstallmentHandler struct {
	base
	svc *service.InstallmentService
}

// NewInstallmentHandler 创建分期处理器
func NewInstallmentHandler(cfg *config.Config, db *gorm.DB) *InstallmentHandler {
	return &InstallmentHandler{
		base: base{db: db, server: cfg.Server},
		svc:  service.NewInstallmentService(db),
	}
}

// CreateInstallmentRequest 创建分期请求
type CreateInstallmentRequest struct {
	Name                 string          `json:"name" binding:"required,max=255" example:"Geladeira"`
	TotalAmount          decimal.Decimal `json:"total_amount" swaggertype:"string" example:"1000.00"`
	InstallmentCount     int             `json:"installment_count" binding:"required,gt=0,lte=360" example:"10"`
	PurchaseDate         string          `json:"purchase_date" example:"2024-01-05"`
	FirstInstallmentDate string          `json:"first_installment_date" example:"2024-02-10"`
}

// UpdateInstallmentRequest 重命名/修改类别请求
type UpdateInstallmentRequest struct {
	Name     string `json:"name" binding:"required,max=255" example:"Geladeira nova"`
	Category string `json:"category" binding:"required" example:"moradia"`
}

// ReplicateInstallmentRequest 批量修改每期金额请求
type ReplicateInstallmentRequest struct {
	Name  string          `json:"name" binding:"required,max=255" example:"Geladeira"`
	Value decimal.Decimal `json:"value" swaggertype:"string" example:"120.00"`
}

// Create 创建分期购买并生成每期支出
// @Summary 创建分期购买
// @Description 在一个事务内创建分期记录和 installment_count 条支出，每期金额 = 总金额/期数（保留两位小数）
// @Tags 分期
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateInstallmentRequest true "分期信息"
// @Success 200 {object} Response{data=models.InstallmentGroup} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "数据库错误，未写入任何数据"
// @Router /api/v1/installments [post]
func (h *InstallmentHandler) Create(c *gin.Context) {
	var req CreateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	in := service.CreateInstallmentInput{
		Name:             req.Name,
		TotalAmount:      req.TotalAmount,
		InstallmentCount: req.InstallmentCount,
	}
	var err error
	if in.PurchaseDate, err = parseDate("purchase_date", req.PurchaseDate); err != nil {
		h.fail(c, err, "")
		return
	}
	if in.FirstInstallmentDate, err = parseDate("first_installment_date", req.FirstInstallmentDate); err != nil {
		h.fail(c, err, "")
		return
	}

	group, err := h.svc.Create(c.Request.Context(), middleware.GetCurrentUserID(c), in)
	if err != nil {
		h.fail(c, err, "创建分期失败")
		return
	}
	SuccessWithMessage(c, "创建成功", group)
}

// List 获取分期列表
// @Summary 获取分期列表
// @Tags 分期
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]service.InstallmentSummary} "获取成功"
// @Router /api/v1/installments [get]
func (h *InstallmentHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		h.fail(c, err, "查询分期失败")
		return
	}
	Success(c, list)
}

// Get 获取分期详情及每期支出
// @Summary 获取分期详情
// @Tags 分期
// @Produce json
// @Security BearerAuth
// @Param id path int true "分期ID"
// @Success 200 {object} Response{data=models.InstallmentGroup} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/installments/{id} [get]
func (h *InstallmentHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	group, err := h.svc.Get(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		h.fail(c, err, "查询分期失败")
		return
	}
	Success(c, group)
}

// Update 重命名分期并修改全部子支出的类别
// @Summary 重命名/修改类别
// @Description 子支出保留 " (i/n)" 后缀
// @Tags 分期
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分期ID"
// @Param request body UpdateInstallmentRequest true "新名称和类别"
// @Success 200 {object} Response{data=models.InstallmentGroup} "修改成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/installments/{id} [put]
func (h *InstallmentHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	var req UpdateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	category, err := checkCategory(h.db.WithContext(c.Request.Context()), req.Category)
	if err != nil {
		h.fail(c, err, "修改分期失败")
		return
	}

	group, err := h.svc.Update(c.Request.Context(), middleware.GetCurrentUserID(c), id, service.UpdateInstallmentInput{
		Name:     req.Name,
		Category: category,
	})
	if err != nil {
		h.fail(c, err, "修改分期失败")
		return
	}
	SuccessWithMessage(c, "修改成功", group)
}

// Replicate 按到期日重新编号并统一每期金额
// @Summary 批量修改每期金额
// @Description 按到期日重新编号为 "name (i/n)" 并把每期金额改为 value；每期独立更新，中途失败时已更新的期数保留
// @Description 全部成功后同时把分期记录的 name 改为新名称，total_amount 改为 value × 期数
// @Tags 分期
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分期ID"
// @Param request body ReplicateInstallmentRequest true "新名称和每期金额"
// @Success 200 {object} Response{data=models.InstallmentGroup} "修改成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/installments/{id}/replicate [post]
func (h *InstallmentHandler) Replicate(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	var req ReplicateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	group, err := h.svc.Replicate(c.Request.Context(), middleware.GetCurrentUserID(c), id, service.ReplicateInput{
		Name:  req.Name,
		Value: req.Value,
	})
	if err != nil {
		h.fail(c, err, "批量修改失败")
		return
	}
	SuccessWithMessage(c, "修改成功", group)
}

// Delete 删除分期及其全部支出
// @Summary 删除分期
// @Tags 分期
// @Produce json
// @Security BearerAuth
// @Param id path int true "分期ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/installments/{id} [delete]
func (h *InstallmentHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		h.fail(c, err, "删除分期失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
