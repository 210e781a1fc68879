package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/infrastructure/database"
)

// InterfaceUserService 用户与登录服务接口
type InterfaceUserService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	GetUserByID(id uint) (*models.User, error)
	ChangePassword(id uint, oldPassword, newPassword string) error
	GetUsers(actor CurrentUser, filter UserFilter) ([]models.User, int64, error)
	CreateUser(actor CurrentUser, input UserInput) (*models.User, error)
	UpdateUser(actor CurrentUser, id uint, input UserInput) (*models.User, error)
	DeleteUser(actor CurrentUser, id uint) error
	EnsureSuperAdmin(password string) (bool, error)
}

// LoginResult 表示登录结果
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserFilter 用户列表查询条件
type UserFilter struct {
	models.PaginationQuery
	CommunityID *uint  `form:"community_id"`
	Role        string `form:"role"`
	Keyword     string `form:"keyword"`
}

// UserInput 创建或更新用户的字段，更新时零值表示不修改
type UserInput struct {
	Username    string
	Password    string
	RealName    string
	Role        models.Role
	CommunityID *uint
	Status      string
}

// UserService 提供用户相关的服务
type UserService struct {
	DB      *gorm.DB
	JWT     InterfaceJWTService
	Limiter InterfaceLoginLimiter
	logger  *zap.Logger
}

// NewUserService 创建一个新的用户服务
func NewUserService(db *gorm.DB, jwtService InterfaceJWTService, limiter InterfaceLoginLimiter, logger *zap.Logger) InterfaceUserService {
	if limiter == nil {
		limiter = noopLoginLimiter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		DB:      db,
		JWT:     jwtService,
		Limiter: limiter,
		logger:  logger,
	}
}

// HashPassword 生成 bcrypt 哈希
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("密码加密失败: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword 验证密码是否匹配
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// 1 Login 校验用户名密码并签发令牌
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	// 限制器故障不阻断登录
	locked, err := s.Limiter.IsLocked(ctx, username)
	if err != nil {
		s.logger.Warn("查询登录限制失败", zap.String("username", username), zap.Error(err))
	}
	if locked {
		return nil, ErrUserLocked
	}

	var user models.User
	err = s.DB.Preload("Community").Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil || !CheckPassword(password, user.Password) {
		if count, lerr := s.Limiter.RecordFailure(ctx, username); lerr != nil {
			s.logger.Warn("记录登录失败次数失败", zap.String("username", username), zap.Error(lerr))
		} else if count > 0 {
			s.logger.Info("登录失败", zap.String("username", username), zap.Int64("failures", count))
		}
		return nil, ErrInvalidCredentials
	}
	if user.Status == models.UserStatusDisabled {
		return nil, ErrUserDisabled
	}

	if err := s.Limiter.Reset(ctx, username); err != nil {
		s.logger.Warn("重置登录限制失败", zap.String("username", username), zap.Error(err))
	}

	now := time.Now()
	if err := s.DB.Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	token, err := s.JWT.GenerateToken(&user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: &user}, nil
}

// 2 GetUserByID 根据ID获取用户（含所属小区）
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.Preload("Community").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// 3 ChangePassword 修改本人密码
func (s *UserService) ChangePassword(id uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	if !CheckPassword(oldPassword, user.Password) {
		return ErrOldPassword
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.DB.Model(&models.User{}).Where("id = ?", id).Update("password", hashed).Error
}

// 4 GetUsers 用户列表；小区管理员只能看到本小区用户
func (s *UserService) GetUsers(actor CurrentUser, filter UserFilter) ([]models.User, int64, error) {
	filter.Normalize()

	query := s.DB.Model(&models.User{})
	if scope := ScopeCommunityID(actor); scope != nil {
		query = query.Where("community_id = ?", *scope)
	} else if filter.CommunityID != nil {
		query = query.Where("community_id = ?", *filter.CommunityID)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("username LIKE ? OR real_name LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Preload("Community").Order("id").
		Offset(filter.Offset()).Limit(filter.PageSize).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// canManageUser 超级管理员管理所有人；小区管理员只能管理本小区的普通用户
func canManageUser(actor CurrentUser, role models.Role, communityID *uint) bool {
	if actor.IsSuperAdmin() {
		return true
	}
	if actor.Role != models.RoleCommunityAdmin || role != models.RoleCommunityUser || communityID == nil {
		return false
	}
	return CanManageCommunity(actor, *communityID)
}

// 5 CreateUser 创建用户
func (s *UserService) CreateUser(actor CurrentUser, input UserInput) (*models.User, error) {
	if input.Role == "" {
		input.Role = models.RoleCommunityUser
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Role == models.RoleSuperAdmin {
		input.CommunityID = nil
	}
	if !canManageUser(actor, input.Role, input.CommunityID) {
		return nil, ErrForbidden
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = models.UserStatusActive
	}

	user := &models.User{
		Username:    input.Username,
		Password:    hashed,
		RealName:    input.RealName,
		Role:        input.Role,
		CommunityID: input.CommunityID,
		Status:      status,
	}
	if err := s.DB.Create(user).Error; err != nil {
		if database.IsDuplicateEntry(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return s.GetUserByID(user.ID)
}

// 6 UpdateUser 更新用户信息
func (s *UserService) UpdateUser(actor CurrentUser, id uint, input UserInput) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if !canManageUser(actor, user.Role, user.CommunityID) {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	if input.Username != "" && input.Username != user.Username {
		updates["username"] = input.Username
	}
	if input.RealName != "" {
		updates["real_name"] = input.RealName
	}
	if input.Role != "" && input.Role != user.Role {
		if !input.Role.Valid() {
			return nil, ErrInvalidStatus
		}
		updates["role"] = input.Role
	}
	if input.CommunityID != nil {
		updates["community_id"] = *input.CommunityID
	}
	if input.Status != "" {
		if input.Status != models.UserStatusActive && input.Status != models.UserStatusDisabled {
			return nil, ErrInvalidStatus
		}
		updates["status"] = input.Status
	}
	if input.Password != "" {
		hashed, err := HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}

	// 修改后的角色与小区同样需要在权限范围内
	role := user.Role
	if r, ok := updates["role"].(models.Role); ok {
		role = r
	}
	communityID := user.CommunityID
	if input.CommunityID != nil {
		communityID = input.CommunityID
	}
	if !canManageUser(actor, role, communityID) {
		return nil, ErrForbidden
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if database.IsDuplicateEntry(err) {
				return nil, ErrUsernameTaken
			}
			return nil, err
		}
	}
	return s.GetUserByID(id)
}

// 7 DeleteUser 删除用户，不允许删除自己
func (s *UserService) DeleteUser(actor CurrentUser, id uint) error {
	if actor.ID == id {
		return ErrDeleteSelf
	}
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	if !canManageUser(actor, user.Role, user.CommunityID) {
		return ErrForbidden
	}
	return s.DB.Delete(&models.User{}, id).Error
}

// 8 EnsureSuperAdmin 系统中没有超级管理员时创建默认账户 admin
func (s *UserService) EnsureSuperAdmin(password string) (bool, error) {
	var count int64
	if err := s.DB.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &models.User{
		Username: "admin",
		Password: hashed,
		RealName: "系统管理员",
		Role:     models.RoleSuperAdmin,
		Status:   models.UserStatusActive,
	}
	if err := s.DB.Create(admin).Error; err != nil {
		return false, err
	}
	return true, nil
}
