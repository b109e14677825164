package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User 用户模型
type User struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	Username           string          `json:"username" gorm:"uniqueIndex;size:50;not null"`
	PasswordHash       string          `json:"-" gorm:"column:password_hash;size:255;not null"`
	Email              string          `json:"email" gorm:"size:100"`                                             // 用于接收月度报告，可为空
	MonthlyFixedIncome decimal.Decimal `json:"monthly_fixed_income" gorm:"type:decimal(12,2);not null;default:0"` // 每月固定收入
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (User) TableName() string {
	return "usuario"
}
