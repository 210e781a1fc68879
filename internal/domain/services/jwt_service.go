package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/infrastructure/config"
)

// InterfaceJWTService 定义JWT服务接口
type InterfaceJWTService interface {
	GenerateToken(user *models.User) (string, error)
	ParseToken(tokenString string) (*JWTClaims, error)
}

// JWTService 提供JWT相关服务
type JWTService struct {
	secretKey []byte
	issuer    string
	expiresIn time.Duration
}

// JWTClaims 定义JWT令牌的声明结构
type JWTClaims struct {
	ID          uint        `json:"id"`
	Username    string      `json:"username"`
	Role        models.Role `json:"role"`
	CommunityID *uint       `json:"communityId"`
	jwt.RegisteredClaims
}

// CurrentUser 转换为调用者身份
func (c *JWTClaims) CurrentUser() CurrentUser {
	return CurrentUser{
		ID:          c.ID,
		Username:    c.Username,
		Role:        c.Role,
		CommunityID: c.CommunityID,
	}
}

// NewJWTService 创建一个新的JWT服务
func NewJWTService(cfg *config.Config) InterfaceJWTService {
	expiresIn := cfg.JWTExpiresIn
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &JWTService{
		secretKey: []byte(cfg.JWTSecretKey),
		issuer:    "hoa-vote-service",
		expiresIn: expiresIn,
	}
}

// 1 GenerateToken 生成JWT令牌
func (s *JWTService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		CommunityID: user.CommunityID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// 2 ParseToken 验证令牌并提取声明
func (s *JWTService) ParseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.Role.Valid() {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
