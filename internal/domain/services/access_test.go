package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hoa-vote-service/internal/domain/models"
)

func uintPtr(v uint) *uint { return &v }

func TestCanManageCommunity(t *testing.T) {
	tests := []struct {
		name        string
		user        CurrentUser
		communityID uint
		want        bool
	}{
		{"超级管理员任意小区", CurrentUser{Role: models.RoleSuperAdmin}, 99, true},
		{"小区管理员本小区", CurrentUser{Role: models.RoleCommunityAdmin, CommunityID: uintPtr(5)}, 5, true},
		{"小区管理员跨小区", CurrentUser{Role: models.RoleCommunityAdmin, CommunityID: uintPtr(5)}, 7, false},
		{"小区用户只读", CurrentUser{Role: models.RoleCommunityUser, CommunityID: uintPtr(5)}, 5, false},
		{"未绑定小区", CurrentUser{Role: models.RoleCommunityAdmin}, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanManageCommunity(tt.user, tt.communityID))
		})
	}
}

func TestCanAccessCommunity(t *testing.T) {
	assert.True(t, CanAccessCommunity(CurrentUser{Role: models.RoleSuperAdmin}, 3))
	assert.True(t, CanAccessCommunity(CurrentUser{Role: models.RoleCommunityUser, CommunityID: uintPtr(3)}, 3))
	assert.False(t, CanAccessCommunity(CurrentUser{Role: models.RoleCommunityUser, CommunityID: uintPtr(3)}, 4))
	assert.False(t, CanAccessCommunity(CurrentUser{Role: models.RoleCommunityAdmin}, 4))
}

func TestScopeCommunityID(t *testing.T) {
	assert.Nil(t, ScopeCommunityID(CurrentUser{Role: models.RoleSuperAdmin, CommunityID: uintPtr(1)}))
	assert.Equal(t, uint(2), *ScopeCommunityID(CurrentUser{Role: models.RoleCommunityAdmin, CommunityID: uintPtr(2)}))
	assert.Equal(t, uint(0), *ScopeCommunityID(CurrentUser{Role: models.RoleCommunityUser}))
}
