package models

import (
	"time"
)

// Tag 交易标签，按用户隔离，同一用户下名称唯一
// 物理删除，避免软删除残留占用唯一索引
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"uniqueIndex:idx_tags_user_name;not null"`
	Name      string    `json:"name" gorm:"size:50;not null;uniqueIndex:idx_tags_user_name"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Tag) TableName() string {
	return "tags"
}
