package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoa-vote-service/internal/domain/models"
)

func TestCommunityLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommunityService(db)

	c := &models.Community{Name: "阳光花园", Address: "幸福路1号"}
	require.NoError(t, svc.CreateCommunity(c))
	assert.ErrorIs(t, svc.CreateCommunity(&models.Community{Name: "阳光花园"}), ErrCommunityNameUsed)

	phase := &models.Phase{CommunityID: c.ID, Name: "一期", Code: "P1"}
	require.NoError(t, svc.CreatePhase(phase))
	assert.ErrorIs(t, svc.CreatePhase(&models.Phase{CommunityID: c.ID, Name: "重复", Code: "P1"}), ErrPhaseCodeUsed)
	assert.ErrorIs(t, svc.CreatePhase(&models.Phase{CommunityID: 9999, Name: "一期", Code: "P1"}), ErrCommunityNotFound)

	assert.ErrorIs(t, svc.DeleteCommunity(c.ID), ErrCommunityInUse)

	owner := models.Owner{PhaseID: phase.ID, RoomNumber: "1-1-101"}
	require.NoError(t, db.Create(&owner).Error)
	assert.ErrorIs(t, svc.DeletePhase(c.ID, phase.ID), ErrPhaseInUse)

	phases, err := svc.GetPhases(c.ID)
	require.NoError(t, err)
	require.Len(t, phases, 1)
	assert.Equal(t, int64(1), phases[0].OwnerCount)

	require.NoError(t, db.Delete(&owner).Error)
	require.NoError(t, svc.DeletePhase(c.ID, phase.ID))
	require.NoError(t, svc.DeleteCommunity(c.ID))
	_, err = svc.GetCommunityByID(c.ID)
	assert.ErrorIs(t, err, ErrCommunityNotFound)
}

func TestUpdatePhase_WrongCommunity(t *testing.T) {
	f := newFixture(t)
	svc := NewCommunityService(f.db)

	_, err := svc.UpdatePhase(f.community.ID+1, f.phase.ID, map[string]interface{}{"name": "二期"})
	assert.ErrorIs(t, err, ErrPhaseNotFound)

	phase, err := svc.UpdatePhase(f.community.ID, f.phase.ID, map[string]interface{}{"name": "二期", "sort_order": 2})
	require.NoError(t, err)
	assert.Equal(t, "二期", phase.Name)
	assert.Equal(t, 2, phase.SortOrder)
}

func TestGetCommunities_Scoped(t *testing.T) {
	db := newTestDB(t)
	svc := NewCommunityService(db)
	a := &models.Community{Name: "A小区"}
	b := &models.Community{Name: "B小区"}
	require.NoError(t, svc.CreateCommunity(a))
	require.NoError(t, svc.CreateCommunity(b))

	all, err := svc.GetCommunities(superAdmin())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := svc.GetCommunities(CurrentUser{ID: 2, Role: models.RoleCommunityAdmin, CommunityID: &b.ID})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "B小区", scoped[0].Name)

	none, err := svc.GetCommunities(CurrentUser{ID: 3, Role: models.RoleCommunityUser})
	require.NoError(t, err)
	assert.Empty(t, none)
}
