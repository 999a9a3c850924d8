package models

import (
	"time"
)

// RevokedToken 已注销的刷新令牌黑名单
// 登出时记录令牌的 jti，刷新接口据此拒绝已注销令牌
type RevokedToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	JTI       string    `json:"jti" gorm:"size:64;not null;uniqueIndex"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"` // 过期后记录可清理
	CreatedAt time.Time `json:"created_at"`
}

// TableName 设置表名
func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
