package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"carteira/config"
	"carteira/middleware"
	"carteira/models"
	"carteira/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

// AuthHandler 认证处理器
type AuthHandler struct {
	base
	jwt      *middleware.JWTManager
	accounts *service.AccountService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, db *gorm.DB, jwt *middleware.JWTManager) *AuthHandler {
	return &AuthHandler{
		base:     base{db: db, server: cfg.Server},
		jwt:      jwt,
		accounts: service.NewAccountService(db),
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username           string          `json:"username" binding:"required,min=3,max=50,excludes=@" example:"ana"`
	Password           string          `json:"password" binding:"required,min=6,max=50" example:"password123"`
	Email              string          `json:"email" binding:"omitempty,email" example:"ana@example.com"`
	MonthlyFixedIncome decimal.Decimal `json:"monthly_fixed_income" swaggertype:"string" example:"3000.00"`
}

// LoginRequest 登录请求（支持用户名或邮箱）
// 用户名不能包含 "@"，含 "@" 的登录名只按邮箱查找
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"ana"` // 可为用户名或邮箱
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

func (h *AuthHandler) currentUser(c *gin.Context) (*models.User, error) {
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).Where("id = ?", middleware.GetCurrentUserID(c)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, service.StoreErr("查询用户", err)
	}
	return &user, nil
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户账号
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} Response{data=models.User} "注册成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "用户名或邮箱已存在"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}
	if req.MonthlyFixedIncome.IsNegative() {
		h.fail(c, service.Invalid("monthly_fixed_income", "固定收入不能为负数"), "")
		return
	}
	db := h.db.WithContext(c.Request.Context())

	// 检查用户名是否已存在
	var existing models.User
	err := db.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		Conflict(c, "用户名已存在")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.fail(c, service.StoreErr("查询用户", err), "注册失败")
		return
	}

	email := strings.TrimSpace(req.Email)
	if err := emailAvailable(db, email, 0); err != nil {
		h.fail(c, err, "注册失败")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	user := models.User{
		Username:           req.Username,
		PasswordHash:       string(hashed),
		Email:              email,
		MonthlyFixedIncome: req.MonthlyFixedIncome.Round(2),
	}
	if err := db.Create(&user).Error; err != nil {
		h.fail(c, service.StoreErr("创建用户", err), "创建用户失败")
		return
	}

	SuccessWithMessage(c, "注册成功", user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户登录获取 JWT token，同一 IP 在时间窗口内的尝试次数有限制
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 401 {object} Response "用户名或密码错误"
// @Failure 429 {object} Response "尝试过于频繁"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	query := h.db.WithContext(c.Request.Context())
	if strings.Contains(req.Username, "@") {
		query = query.Where("email = ?", req.Username)
	} else {
		query = query.Where("username = ?", req.Username)
	}
	var user models.User
	err := query.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		Unauthorized(c, "用户名或密码错误")
		return
	}
	if err != nil {
		h.fail(c, service.StoreErr("查询用户", err), "登录失败")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		Unauthorized(c, "用户名或密码错误")
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Username, 0)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	Success(c, LoginResponse{Token: token, UserInfo: user})
}

// GetProfile 获取用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		h.fail(c, err, "获取用户信息失败")
		return
	}
	Success(c, user)
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required" example:"oldpassword123"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=50" example:"newpassword123"`
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "密码信息"
// @Success 200 {object} Response "修改成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "原密码错误"
// @Router /api/v1/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		h.fail(c, err, "修改密码失败")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		Unauthorized(c, "原密码错误")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("id = ?", user.ID).Update("password_hash", string(hashed)).Error; err != nil {
		h.fail(c, service.StoreErr("更新密码", err), "更新密码失败")
		return
	}

	SuccessWithMessage(c, "密码修改成功", nil)
}

// UpdateIncomeRequest 修改固定收入/报告邮箱
type UpdateIncomeRequest struct {
	MonthlyFixedIncome *decimal.Decimal `json:"monthly_fixed_income" swaggertype:"string" example:"3500.00"`
	Email              *string          `json:"email" example:"ana@example.com"` // 传空字符串表示清除
}

// UpdateIncome 修改每月固定收入和接收报告的邮箱
// @Summary 修改固定收入
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateIncomeRequest true "固定收入/邮箱"
// @Success 200 {object} Response{data=models.User} "修改成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "邮箱已被使用"
// @Router /api/v1/auth/income [put]
func (h *AuthHandler) UpdateIncome(c *gin.Context) {
	var req UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.MonthlyFixedIncome != nil {
		if req.MonthlyFixedIncome.IsNegative() {
			h.fail(c, service.Invalid("monthly_fixed_income", "固定收入不能为负数"), "")
			return
		}
		updates["monthly_fixed_income"] = req.MonthlyFixedIncome.Round(2)
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && validate.Var(email, "email") != nil {
			h.fail(c, service.Invalid("email", "邮箱格式错误"), "")
			return
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		h.fail(c, service.Invalid("monthly_fixed_income", "没有需要修改的内容"), "")
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		h.fail(c, err, "修改失败")
		return
	}
	db := h.db.WithContext(c.Request.Context())
	if req.Email != nil {
		if err := emailAvailable(db, strings.TrimSpace(*req.Email), user.ID); err != nil {
			h.fail(c, err, "修改失败")
			return
		}
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		h.fail(c, service.StoreErr("更新固定收入", err), "修改失败")
		return
	}
	if req.MonthlyFixedIncome != nil {
		user.MonthlyFixedIncome = req.MonthlyFixedIncome.Round(2)
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}

	SuccessWithMessage(c, "修改成功", user)
}

// DeleteAccountRequest 注销账号请求
type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required" example:"password123"`
}

// DeleteAccount 注销账号，删除用户及其全部数据
// @Summary 注销账号
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeleteAccountRequest true "当前密码"
// @Success 200 {object} Response "注销成功"
// @Failure 401 {object} Response "密码错误"
// @Router /api/v1/auth/account [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		h.fail(c, err, "注销失败")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		Error(c, http.StatusUnauthorized, "密码错误")
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		h.fail(c, err, "注销失败")
		return
	}

	SuccessWithMessage(c, "账号已注销", nil)
}

// emailAvailable 邮箱不能被其他用户用作邮箱或用户名，空邮箱不检查
func emailAvailable(db *gorm.DB, email string, selfID uint) error {
	if email == "" {
		return nil
	}
	var count int64
	if err := db.Model(&models.User{}).
		Where("(username = ? OR email = ?) AND id <> ?", email, email, selfID).
		Count(&count).Error; err != nil {
		return service.StoreErr("查询邮箱", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: 邮箱已被使用", service.ErrConflict)
	}
	return nil
}
