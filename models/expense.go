package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryInstallment 分期付款生成的支出所使用的固定类别
const CategoryInstallment = "parcelamento"

// Expense 支出记录模型
// PaymentDate 为空表示未支付
type Expense struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	OwnerID            uint            `json:"owner_id" gorm:"index;not null"`
	Name               string          `json:"name" gorm:"size:255;not null"`
	Amount             decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	DueDate            Date            `json:"due_date" gorm:"index;not null"`
	PaymentDate        *Date           `json:"payment_date" gorm:"index"`
	Category           string          `json:"category" gorm:"size:50;not null"`
	InstallmentGroupID *uint           `json:"installment_group_id" gorm:"index"`
	IsFixed            bool            `json:"is_fixed" gorm:"not null;default:false"`
	IsEssential        bool            `json:"is_essential" gorm:"not null"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "despesas"
}

// IsPaid 是否已支付
func (e Expense) IsPaid() bool {
	return e.PaymentDate != nil && !e.PaymentDate.IsZero()
}
