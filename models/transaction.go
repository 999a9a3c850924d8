package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction 收支交易记录
// 分类为弱引用：分类删除时置空，不级联删除交易
type Transaction struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"-" gorm:"index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Type        string          `json:"type" gorm:"size:10;not null;index"` // income/expense
	Date        time.Time       `json:"date" gorm:"type:date;not null;index"`
	Description string          `json:"description" gorm:"size:500"`
	CategoryID  *uint           `json:"category" gorm:"index"`
	Category    *Category       `json:"-" gorm:"foreignKey:CategoryID"`
	Tags        []Tag           `json:"-" gorm:"many2many:transaction_tags"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
	User        User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}
