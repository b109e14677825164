package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal 储蓄目标
type Goal struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	OwnerID      uint            `json:"owner_id" gorm:"index;not null"`
	Name         string          `json:"name" gorm:"size:255;not null"`
	TargetAmount decimal.Decimal `json:"target_amount" gorm:"type:decimal(12,2);not null"`
	Deadline     Date            `json:"deadline" gorm:"not null"`
	ShowOnHome   bool            `json:"show_on_home" gorm:"not null;default:false"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Goal) TableName() string {
	return "metas"
}
