package models

import (
	"time"
)

const (
	// TypeIncome 收入
	TypeIncome = "income"
	// TypeExpense 支出
	TypeExpense = "expense"
)

// IsValidType 校验收支类型取值
func IsValidType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// Category 交易分类（收入或支出），按用户隔离
// 同一用户下 (name, type) 唯一；物理删除，避免软删除残留占用唯一索引
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"uniqueIndex:idx_categories_user_name_type;not null"`
	Name      string    `json:"name" gorm:"size:100;not null;uniqueIndex:idx_categories_user_name_type"`
	Type      string    `json:"type" gorm:"size:10;not null;uniqueIndex:idx_categories_user_name_type;index"` // income/expense
	Color     string    `json:"color" gorm:"size:7;default:#1976d2"`                                          // 颜色代码，如 #ef4444
	Icon      string    `json:"icon" gorm:"size:50"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}
