package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt 债务
// 应付金额 = TotalAmount - DiscountAmount，DiscountAmount 不得大于 TotalAmount
type Debt struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	OwnerID        uint            `json:"owner_id" gorm:"index;not null"`
	Name           string          `json:"name" gorm:"size:255;not null"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:decimal(12,2);not null;default:0"`
	Deadline       Date            `json:"deadline" gorm:"not null"`
	ShowOnHome     bool            `json:"show_on_home" gorm:"not null;default:false"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (Debt) TableName() string {
	return "dividas"
}

// PayableAmount 应付金额
func (d Debt) PayableAmount() decimal.Decimal {
	return d.TotalAmount.Sub(d.DiscountAmount)
}
