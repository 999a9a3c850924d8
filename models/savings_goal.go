package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SavingsGoal 储蓄目标
// 已存金额可超过目标金额（进度展示时封顶 100）
type SavingsGoal struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"-" gorm:"index;not null"`
	Name          string          `json:"name" gorm:"size:200;not null"`
	TargetAmount  decimal.Decimal `json:"target_amount" gorm:"type:decimal(12,2);not null"`
	CurrentAmount decimal.Decimal `json:"current_amount" gorm:"type:decimal(12,2);not null;default:0"`
	Deadline      *time.Time      `json:"deadline" gorm:"type:date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
	User          User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (SavingsGoal) TableName() string {
	return "savings_goals"
}

// ProgressPercentage 储蓄进度百分比，上限 100，目标金额为 0 时返回 0
func (g *SavingsGoal) ProgressPercentage() float64 {
	if g.TargetAmount.IsZero() {
		return 0
	}
	pct, _ := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	if pct > 100 {
		return 100
	}
	return pct
}

// RemainingAmount 距离目标的剩余金额，已达成时为 0
func (g *SavingsGoal) RemainingAmount() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
