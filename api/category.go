package api

import (
	"carteira/config"
	"carteira/models"
	"carteira/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler 支出类别
type CategoryHandler struct {
	base
}

func NewCategoryHandler(cfg *config.Config, db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{base: base{db: db, server: cfg.Server}}
}

// List 获取全部类别
// @Summary 获取支出类别列表
// @Tags 类别
// @Produce json
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	var list []models.Category
	if err := h.db.WithContext(c.Request.Context()).Order("id ASC").Find(&list).Error; err != nil {
		h.fail(c, service.StoreErr("查询类别", err), "查询失败")
		return
	}
	Success(c, list)
}
