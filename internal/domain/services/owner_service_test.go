package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoa-vote-service/internal/domain/excel"
	"hoa-vote-service/internal/domain/models"
)

func TestImportOwners_CreateUpdateAndFailures(t *testing.T) {
	f := newFixture(t, "1-1-101")
	svc := NewOwnerService(f.db, nil)

	rows := [][]string{
		excel.OwnerTemplateHeaders,
		{"1", "1-1-101", "张三", "89.5", "", "", "13800000000"},
		{"2", "1-1-102", "李四", "+120.00", "A-01", "12", "13900000000"},
		{"3", "", "无房号", "80"},
		{"4", "1-1-103", "王五", "八十"},
		{},
		{"5", "2-1-101", "赵六", "95㎡"},
	}
	res, err := svc.ImportOwners(f.phase.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, res.Errors, 2)

	owner, err := svc.GetOwnerByID(f.owner("1-1-101").ID)
	require.NoError(t, err)
	assert.Equal(t, "张三", owner.OwnerName)
	assert.InDelta(t, 89.5, owner.Area, 1e-6)

	var created models.Owner
	require.NoError(t, f.db.Where("room_number = ?", "1-1-102").First(&created).Error)
	assert.Equal(t, "1", created.Building)
	assert.Equal(t, "102", created.Room)
	assert.InDelta(t, 120.0, created.Area, 1e-6)
	assert.InDelta(t, 12.0, created.ParkingArea, 1e-6)
	assert.Equal(t, "A-01", created.ParkingNo)
}

func TestImportOwners_NoRoomColumn(t *testing.T) {
	f := newFixture(t)
	svc := NewOwnerService(f.db, nil)

	_, err := svc.ImportOwners(f.phase.ID, [][]string{{"姓名", "面积"}, {"张三", "80"}})
	assert.ErrorIs(t, err, ErrImportFile)
}

func TestCreateOwner_DuplicateRoomNumber(t *testing.T) {
	f := newFixture(t, "1-1-101")
	svc := NewOwnerService(f.db, nil)

	err := svc.CreateOwner(&models.Owner{PhaseID: f.phase.ID, RoomNumber: "1-1-101"})
	assert.ErrorIs(t, err, ErrDuplicateRoomNumber)
}

func TestGetBuildings_NumericOrder(t *testing.T) {
	f := newFixture(t, "10-1-101", "2-2-101", "2-1-101", "1-1-101", "2-10-101")
	svc := NewOwnerService(f.db, nil)

	buildings, err := svc.GetBuildings(f.phase.ID)
	require.NoError(t, err)
	assert.Equal(t, []BuildingUnits{
		{Building: "1", Units: []string{"1"}},
		{Building: "2", Units: []string{"1", "2", "10"}},
		{Building: "10", Units: []string{"1"}},
	}, buildings)
}

func TestGetOwners_Filters(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102", "2-1-101")
	svc := NewOwnerService(f.db, nil)

	owners, total, err := svc.GetOwners(OwnerFilter{CommunityID: &f.community.ID, Building: "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, owners, 2)

	owners, total, err = svc.GetOwners(OwnerFilter{Keyword: "2-1-101"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, owners, 1)
	require.NotNil(t, owners[0].Phase)
	assert.Equal(t, "一期", owners[0].Phase.Name)

	other := uint(9999)
	_, total, err = svc.GetOwners(OwnerFilter{CommunityID: &other})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeleteOwner_RemovesVotes(t *testing.T) {
	f := newFixture(t, "1-1-101")
	votes := NewVoteService(f.db, nil)
	_, err := votes.UpsertVote(&f.round, VoteInput{OwnerID: f.owner("1-1-101").ID, VoteStatus: models.VoteStatusVoted}, 1)
	require.NoError(t, err)

	svc := NewOwnerService(f.db, nil)
	require.NoError(t, svc.DeleteOwner(f.owner("1-1-101").ID))

	var count int64
	require.NoError(t, f.db.Model(&models.Vote{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.ErrorIs(t, svc.DeleteOwner(f.owner("1-1-101").ID), ErrOwnerNotFound)
}

func TestCommunityIDOfOwner(t *testing.T) {
	f := newFixture(t, "1-1-101")
	svc := NewOwnerService(f.db, nil)

	cid, err := svc.CommunityIDOfOwner(f.owner("1-1-101").ID)
	require.NoError(t, err)
	assert.Equal(t, f.community.ID, cid)

	_, err = svc.CommunityIDOfOwner(9999)
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}
