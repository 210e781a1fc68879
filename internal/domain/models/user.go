package models

import "time"

// Role 用户角色
type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RoleCommunityAdmin Role = "community_admin"
	RoleCommunityUser  Role = "community_user"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleCommunityAdmin, RoleCommunityUser:
		return true
	}
	return false
}

// Label 角色中文名
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "超级管理员"
	case RoleCommunityAdmin:
		return "小区管理员"
	case RoleCommunityUser:
		return "小区用户"
	}
	return string(r)
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User 系统用户
type User struct {
	BaseModel
	Username    string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Password    string     `gorm:"type:varchar(100);not null" json:"-"`
	RealName    string     `gorm:"type:varchar(50)" json:"real_name"`
	Role        Role       `gorm:"type:varchar(20);not null;default:'community_user'" json:"role"`
	CommunityID *uint      `gorm:"index" json:"community_id"`
	Status      string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	LastLoginAt *time.Time `json:"last_login_at"`

	Community *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
}
