package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// PeriodMonthly 月度预算，必须指定 month
	PeriodMonthly = "monthly"
	// PeriodYearly 年度预算，month 存 0
	PeriodYearly = "yearly"
)

// IsValidPeriod 校验预算周期取值
func IsValidPeriod(p string) bool {
	return p == PeriodMonthly || p == PeriodYearly
}

// Budget 分类预算，仅支出类分类可设
// 同一用户下 (category, year, month, period) 唯一；物理删除，
// 年度预算 month 存 0 而非 NULL，让唯一索引对年度预算同样生效
type Budget struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"-" gorm:"uniqueIndex:idx_budgets_scope;not null"`
	CategoryID uint            `json:"category" gorm:"uniqueIndex:idx_budgets_scope;not null"`
	Category   Category        `json:"-" gorm:"foreignKey:CategoryID"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Period     string          `json:"period" gorm:"size:10;not null;default:monthly;uniqueIndex:idx_budgets_scope"` // monthly/yearly
	Year       int             `json:"year" gorm:"not null;uniqueIndex:idx_budgets_scope;index"`
	Month      int             `json:"-" gorm:"not null;default:0;uniqueIndex:idx_budgets_scope"` // 1-12，年度预算为 0
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	User       User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}

// ProgressPercentage 预算使用进度百分比，上限 100，预算金额为 0 时返回 0
func (b *Budget) ProgressPercentage(spent decimal.Decimal) float64 {
	if b.Amount.IsZero() {
		return 0
	}
	pct, _ := spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	if pct > 100 {
		return 100
	}
	return pct
}

// RemainingAmount 预算剩余额度，超支时为负数，不做截断
func (b *Budget) RemainingAmount(spent decimal.Decimal) decimal.Decimal {
	return b.Amount.Sub(spent)
}
