package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hoa-vote-service/internal/domain/models"
)

// newTestDB 每个测试独立的内存 SQLite 库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库只存在于单个连接内
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

type fixture struct {
	db        *gorm.DB
	community models.Community
	phase     models.Phase
	round     models.VoteRound
	owners    map[string]models.Owner
}

func (f *fixture) owner(roomNumber string) models.Owner {
	return f.owners[roomNumber]
}

func (f *fixture) ownerIDs(roomNumbers ...string) []uint {
	ids := make([]uint, len(roomNumbers))
	for i, rn := range roomNumbers {
		ids[i] = f.owners[rn].ID
	}
	return ids
}

// newFixture 一个小区、一个分期、一个进行中的轮次和若干业主
func newFixture(t *testing.T, roomNumbers ...string) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{db: db, owners: map[string]models.Owner{}}
	f.community = models.Community{Name: "阳光花园"}
	require.NoError(t, db.Create(&f.community).Error)

	f.phase = models.Phase{CommunityID: f.community.ID, Name: "一期", Code: "P1"}
	require.NoError(t, db.Create(&f.phase).Error)

	f.round = models.VoteRound{CommunityID: f.community.ID, Name: "2025年业主大会", Year: 2025, RoundCode: "25B", Status: models.RoundStatusActive}
	require.NoError(t, db.Create(&f.round).Error)

	svc := NewOwnerService(db, nil)
	for _, rn := range roomNumbers {
		owner := models.Owner{PhaseID: f.phase.ID, RoomNumber: rn, OwnerName: "业主" + rn, Area: 100}
		require.NoError(t, svc.CreateOwner(&owner))
		f.owners[rn] = owner
	}
	return f
}

func strPtr(s string) *string { return &s }

func superAdmin() CurrentUser {
	return CurrentUser{ID: 1, Username: "admin", Role: models.RoleSuperAdmin}
}
