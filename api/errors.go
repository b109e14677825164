package api

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"carteira/config"
	"carteira/middleware"
	"carteira/models"
	"carteira/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// base 各处理器共用的依赖
type base struct {
	db     *gorm.DB
	server config.ServerConfig
}

// fail 把 service 层错误映射为 HTTP 响应
//
//	*service.ValidationError    -> 400，消息中带字段名
//	service.ErrNotFound         -> 404
//	service.ErrConflict         -> 409
//	其他（数据库错误等）        -> 500，release 模式下不返回内部细节
func (b base) fail(c *gin.Context, err error, fallback string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		BadRequest(c, "参数错误: "+ve.Error())
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, service.ErrNotFound.Error())
	case errors.Is(err, service.ErrConflict):
		Conflict(c, err.Error())
	default:
		log.Printf("[%s] %s %s: %s: %v", middleware.GetRequestID(c), c.Request.Method, c.Request.URL.Path, fallback, err)
		InternalError(c, b.server.SafeErrorMessage(err, fallback))
	}
}

// bindFailed 请求体解析失败
func (b base) bindFailed(c *gin.Context, err error) {
	BadRequest(c, b.server.SafeErrorMessage(err, "参数错误"))
}

// parseID 解析路径中的 :id
func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, service.Invalid("id", "无效的ID")
	}
	return uint(id), nil
}

// parseDate 解析必填日期参数
func parseDate(field, value string) (models.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.Date{}, service.Invalid(field, "日期不能为空")
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}, service.Invalid(field, "日期格式错误，应为: "+models.DateLayout)
	}
	return d, nil
}

// parseOptionalDate 解析可选日期参数，为空时返回 nil
func parseOptionalDate(field string, value *string) (*models.Date, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	d, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// findOwned 按 id 和 owner_id 查询一条记录，不属于当前用户时同样视为不存在
func findOwned[T any](db *gorm.DB, ownerID, id uint, op string) (*T, error) {
	var row T
	if err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, service.StoreErr(op, err)
	}
	return &row, nil
}

// deleteOwned 按 id 和 owner_id 删除一条记录
func deleteOwned[T any](db *gorm.DB, ownerID, id uint, op string) error {
	res := db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(new(T))
	if res.Error != nil {
		return service.StoreErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

// checkCategory 类别必须是已有的类别
func checkCategory(db *gorm.DB, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", service.Invalid("category", "类别不能为空")
	}
	var cat models.Category
	if err := db.Where("name = ?", name).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", service.Invalid("category", "无效的类别: "+name)
		}
		return "", service.StoreErr("查询类别", err)
	}
	return cat.Name, nil
}
