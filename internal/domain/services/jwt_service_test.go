package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/infrastructure/config"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(&config.Config{JWTSecretKey: "secret", JWTExpiresIn: time.Hour})
	cid := uint(5)
	token, err := svc.GenerateToken(&models.User{BaseModel: models.BaseModel{ID: 9}, Username: "wang", Role: models.RoleCommunityUser, CommunityID: &cid})
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.ID)
	assert.Equal(t, "hoa-vote-service", claims.Issuer)
	require.NotNil(t, claims.CommunityID)
	assert.Equal(t, cid, *claims.CommunityID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(&config.Config{JWTSecretKey: "secret"})
	other := NewJWTService(&config.Config{JWTSecretKey: "other"})

	token, err := other.GenerateToken(&models.User{Username: "x", Role: models.RoleSuperAdmin})
	require.NoError(t, err)
	_, err = svc.ParseToken(token)
	assert.Error(t, err, "wrong secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		Username: "x",
		Role:     models.RoleSuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(signed)
	assert.Error(t, err, "expired")

	badRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{Username: "x", Role: "root"})
	signed, err = badRole.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(signed)
	assert.Error(t, err, "unknown role")

	_, err = svc.ParseToken("not-a-token")
	assert.Error(t, err)
}
