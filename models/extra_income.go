package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtraIncome 额外收入
type ExtraIncome struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	OwnerID      uint            `json:"owner_id" gorm:"index;not null"`
	Name         string          `json:"name" gorm:"size:255;not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	ReceivedDate Date            `json:"received_date" gorm:"index;not null"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (ExtraIncome) TableName() string {
	return "rendas_extras"
}
