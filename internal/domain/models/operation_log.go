package models

import (
	"time"
)

// OperationLog 表示用户操作审计日志
type OperationLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"` // 0 表示匿名（如登录失败）
	Username    string    `gorm:"type:varchar(50);index" json:"username"`
	CommunityID *uint     `gorm:"index" json:"community_id"`
	Module      string    `gorm:"type:varchar(30);index" json:"module"` // 如: auth, owner, vote, round
	Action      string    `gorm:"type:varchar(50);index" json:"action"` // 如: login, create, import
	TargetID    string    `gorm:"type:varchar(50)" json:"target_id"`
	Detail      string    `gorm:"type:text" json:"detail"`
	IPAddress   string    `gorm:"type:varchar(45)" json:"ip_address"`
	RequestID   string    `gorm:"type:varchar(36)" json:"request_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
