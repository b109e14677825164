package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentGroup 分期购买（compras_parceladas）
// 子支出金额之和等于 TotalAmount（允许舍入误差），子支出数量等于 InstallmentCount
type InstallmentGroup struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	OwnerID          uint            `json:"owner_id" gorm:"index;not null"`
	Name             string          `json:"name" gorm:"size:255;not null"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	InstallmentCount int             `json:"installment_count" gorm:"not null"`
	PurchaseDate     Date            `json:"purchase_date" gorm:"not null"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Installments     []Expense       `json:"installments,omitempty" gorm:"-"`
}

// TableName 设置表名
func (InstallmentGroup) TableName() string {
	return "compras_parceladas"
}
