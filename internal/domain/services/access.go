package services

import "hoa-vote-service/internal/domain/models"

// CurrentUser 令牌中携带的调用者身份
type CurrentUser struct {
	ID          uint        `json:"id"`
	Username    string      `json:"username"`
	Role        models.Role `json:"role"`
	CommunityID *uint       `json:"communityId"`
}

// IsSuperAdmin 是否为超级管理员
func (u CurrentUser) IsSuperAdmin() bool {
	return u.Role == models.RoleSuperAdmin
}

// CanManageCommunity 写权限：超级管理员，或本小区的非只读用户
func CanManageCommunity(u CurrentUser, communityID uint) bool {
	if u.IsSuperAdmin() {
		return true
	}
	if u.Role == models.RoleCommunityUser {
		return false
	}
	return u.CommunityID != nil && *u.CommunityID == communityID
}

// CanAccessCommunity 读权限：超级管理员，或同一小区的任意用户
func CanAccessCommunity(u CurrentUser, communityID uint) bool {
	if u.IsSuperAdmin() {
		return true
	}
	return u.CommunityID != nil && *u.CommunityID == communityID
}

// ScopeCommunityID 非超级管理员只能看到自己的小区；返回 nil 表示不限制
func ScopeCommunityID(u CurrentUser) *uint {
	if u.IsSuperAdmin() {
		return nil
	}
	if u.CommunityID == nil {
		none := uint(0)
		return &none
	}
	return u.CommunityID
}
