package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/infrastructure/config"
)

func newTestUserService(t *testing.T, db *gorm.DB, limiter InterfaceLoginLimiter) (InterfaceUserService, InterfaceJWTService) {
	t.Helper()
	jwtSvc := NewJWTService(&config.Config{JWTSecretKey: "test-secret"})
	if limiter == nil {
		limiter = NewLoginLimiter(nil, &config.Config{})
	}
	return NewUserService(db, jwtSvc, limiter, nil), jwtSvc
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	svc, jwtSvc := newTestUserService(t, f.db, nil)

	_, err := svc.CreateUser(superAdmin(), UserInput{
		Username:    "wang",
		Password:    "secret1",
		Role:        models.RoleCommunityAdmin,
		CommunityID: &f.community.ID,
	})
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), "wang", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.NotNil(t, res.User.LastLoginAt)
	require.NotNil(t, res.User.Community)
	assert.Equal(t, "阳光花园", res.User.Community.Name)

	claims, err := jwtSvc.ParseToken(res.Token)
	require.NoError(t, err)
	current := claims.CurrentUser()
	assert.Equal(t, res.User.ID, current.ID)
	assert.Equal(t, models.RoleCommunityAdmin, current.Role)
	require.NotNil(t, current.CommunityID)
	assert.Equal(t, f.community.ID, *current.CommunityID)

	_, err = svc.Login(context.Background(), "wang", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_DisabledUser(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestUserService(t, db, nil)

	_, err := svc.CreateUser(superAdmin(), UserInput{Username: "li", Password: "pw", Role: models.RoleSuperAdmin, Status: models.UserStatusDisabled})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "li", "pw")
	assert.ErrorIs(t, err, ErrUserDisabled)
}

func TestLogin_LockedAfterFailures(t *testing.T) {
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewLoginLimiter(client, &config.Config{LoginMaxFailures: 2, LoginLockMinutes: 15})
	svc, _ := newTestUserService(t, db, limiter)

	created, err := svc.EnsureSuperAdmin("admin123")
	require.NoError(t, err)
	assert.True(t, created)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err = svc.Login(ctx, "admin", "bad")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	// 正确密码也被拒绝，直到锁定过期
	_, err = svc.Login(ctx, "admin", "admin123")
	assert.ErrorIs(t, err, ErrUserLocked)

	mr.FastForward(16 * time.Minute)
	_, err = svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.False(t, mr.Exists("login_fail:admin"))
}

func TestEnsureSuperAdmin_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestUserService(t, db, nil)

	created, err := svc.EnsureSuperAdmin("admin123")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = svc.EnsureSuperAdmin("other")
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserManagement_CommunityAdminScope(t *testing.T) {
	f := newFixture(t)
	other := models.Community{Name: "翠湖苑"}
	require.NoError(t, f.db.Create(&other).Error)
	svc, _ := newTestUserService(t, f.db, nil)

	admin, err := svc.CreateUser(superAdmin(), UserInput{Username: "cadmin", Password: "pw", Role: models.RoleCommunityAdmin, CommunityID: &f.community.ID})
	require.NoError(t, err)
	actor := CurrentUser{ID: admin.ID, Username: admin.Username, Role: admin.Role, CommunityID: admin.CommunityID}

	// 小区管理员可以在本小区创建普通用户
	member, err := svc.CreateUser(actor, UserInput{Username: "member", Password: "pw", CommunityID: &f.community.ID})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCommunityUser, member.Role)

	_, err = svc.CreateUser(actor, UserInput{Username: "x1", Password: "pw", CommunityID: &other.ID})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.CreateUser(actor, UserInput{Username: "x2", Password: "pw", Role: models.RoleCommunityAdmin, CommunityID: &f.community.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	// 不能把用户提升为管理员或移到其他小区
	_, err = svc.UpdateUser(actor, member.ID, UserInput{Role: models.RoleCommunityAdmin})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.UpdateUser(actor, member.ID, UserInput{CommunityID: &other.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateUser(actor, member.ID, UserInput{RealName: "小王", Status: models.UserStatusDisabled})
	require.NoError(t, err)
	assert.Equal(t, "小王", updated.RealName)
	assert.Equal(t, models.UserStatusDisabled, updated.Status)

	_, err = svc.CreateUser(superAdmin(), UserInput{Username: "member", Password: "pw", CommunityID: &f.community.ID})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	users, total, err := svc.GetUsers(actor, UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	assert.ErrorIs(t, svc.DeleteUser(actor, admin.ID), ErrDeleteSelf)
	require.NoError(t, svc.DeleteUser(actor, member.ID))
	_, err = svc.GetUserByID(member.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestUserService(t, db, nil)

	user, err := svc.CreateUser(superAdmin(), UserInput{Username: "zhao", Password: "old", Role: models.RoleSuperAdmin})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(user.ID, "wrong", "new"), ErrOldPassword)
	require.NoError(t, svc.ChangePassword(user.ID, "old", "new"))

	_, err = svc.Login(context.Background(), "zhao", "new")
	require.NoError(t, err)
}
