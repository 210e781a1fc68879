package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoa-vote-service/internal/domain/models"
)

func TestGetUnitRooms_EmptyUnit(t *testing.T) {
	f := newFixture(t, "1-1-101")
	svc := NewAggregationService(f.db)

	res, err := svc.GetUnitRooms(&f.round, f.phase.ID, "9", "9")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Meta.TotalRooms)
	assert.Empty(t, res.Floors)
	assert.Equal(t, FloorStats{}, res.Stats)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, map[string]interface{}{}, body["floors"])
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, "9", meta["building"])
	assert.EqualValues(t, 0, meta["pending_count"])
}

func TestGetUnitRooms_GroupsByFloor(t *testing.T) {
	f := newFixture(t, "1-1-102", "1-1-101", "1-1-201", "1-1-1203", "1-1-B1", "1-2-101")
	svc := NewAggregationService(f.db)
	votes := NewVoteService(f.db, nil)

	_, err := votes.BatchUpdateVotes(&f.round, f.ownerIDs("1-1-101"), models.VoteStatusOnsite, nil, 1)
	require.NoError(t, err)
	_, err = votes.BatchUpdateVotes(&f.round, f.ownerIDs("1-1-201"), models.VoteStatusRefused, nil, 1)
	require.NoError(t, err)

	res, err := svc.GetUnitRooms(&f.round, f.phase.ID, "1", "1")
	require.NoError(t, err)

	assert.Equal(t, 5, res.Meta.TotalRooms)
	assert.Equal(t, 1, res.Meta.VotedCount)
	assert.Equal(t, 1, res.Meta.RefusedCount)
	assert.Equal(t, 3, res.Meta.PendingCount)

	require.Len(t, res.Floors[1], 2)
	assert.Equal(t, "01", res.Floors[1][0].RoomInFloor)
	assert.Equal(t, "02", res.Floors[1][1].RoomInFloor)
	assert.Equal(t, models.VoteStatusOnsite, res.Floors[1][0].VoteStatus)
	require.Len(t, res.Floors[12], 1)
	assert.Equal(t, "03", res.Floors[12][0].RoomInFloor)
	// "B1" 无法识别楼层
	require.Len(t, res.Floors[0], 1)
	assert.Equal(t, "B1", res.Floors[0][0].RoomInFloor)

	assert.Equal(t, FloorStats{MaxFloor: 12, MinFloor: 0, FloorCount: 4, MaxRoomsPerFloor: 2}, res.Stats)
}

func TestGetSweepUnitRooms(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102", "1-1-103")
	svc := NewAggregationService(f.db)
	votes := NewVoteService(f.db, nil)

	_, err := votes.BatchUpdateSweep(&f.round, f.ownerIDs("1-1-101"), models.SweepStatusCompleted, nil, 1)
	require.NoError(t, err)
	_, err = votes.BatchUpdateSweep(&f.round, f.ownerIDs("1-1-102"), models.SweepStatusInProgress, nil, 1)
	require.NoError(t, err)

	res, err := svc.GetSweepUnitRooms(&f.round, f.phase.ID, "1", "1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Meta.TotalRooms)
	assert.Equal(t, 1, res.Meta.CompletedCount)
	assert.Equal(t, 1, res.Meta.InProgressCount)
	assert.Equal(t, 1, res.Meta.PendingCount)
}

func TestGetUnitRooms_PhaseOfOtherCommunity(t *testing.T) {
	f := newFixture(t, "1-1-101")
	other := models.Community{Name: "翠湖苑"}
	require.NoError(t, f.db.Create(&other).Error)
	phase := models.Phase{CommunityID: other.ID, Name: "一期", Code: "P1"}
	require.NoError(t, f.db.Create(&phase).Error)

	svc := NewAggregationService(f.db)
	_, err := svc.GetUnitRooms(&f.round, phase.ID, "1", "1")
	assert.ErrorIs(t, err, ErrPhaseNotFound)
	_, err = svc.GetUnitRooms(&f.round, 9999, "1", "1")
	assert.ErrorIs(t, err, ErrPhaseNotFound)
}

func TestGetVoteOverview_SumsAndOrder(t *testing.T) {
	f := newFixture(t, "10-1-101", "2-1-101", "2-1-102", "2-2-101", "1-1-101")
	phase2 := models.Phase{CommunityID: f.community.ID, Name: "二期", Code: "P2"}
	require.NoError(t, f.db.Create(&phase2).Error)
	owners := NewOwnerService(f.db, nil)
	extra := models.Owner{PhaseID: phase2.ID, RoomNumber: "3-1-101", Area: 90}
	require.NoError(t, owners.CreateOwner(&extra))

	votes := NewVoteService(f.db, nil)
	_, err := votes.BatchUpdateVotes(&f.round, f.ownerIDs("2-1-101", "1-1-101"), models.VoteStatusVoted, nil, 1)
	require.NoError(t, err)
	_, err = votes.BatchUpdateVotes(&f.round, f.ownerIDs("2-2-101"), models.VoteStatusRefused, nil, 1)
	require.NoError(t, err)

	svc := NewAggregationService(f.db)
	ov, err := svc.GetVoteOverview(&f.round)
	require.NoError(t, err)

	require.Len(t, ov.Phases, 2)
	assert.Equal(t, "一期", ov.Phases[0].PhaseName)
	assert.Equal(t, "二期", ov.Phases[1].PhaseName)

	// 楼栋按数值排序
	var buildings []string
	for _, b := range ov.Phases[0].Buildings {
		buildings = append(buildings, b.Building)
	}
	assert.Equal(t, []string{"1", "2", "10"}, buildings)

	assert.Equal(t, VoteCounts{TotalRooms: 6, VotedCount: 2, RefusedCount: 1, PendingCount: 3}, ov.Summary)

	var phaseSum VoteCounts
	for _, p := range ov.Phases {
		var buildingSum VoteCounts
		for _, b := range p.Buildings {
			var unitSum VoteCounts
			for _, u := range b.Units {
				assert.Equal(t, u.TotalRooms, u.VotedCount+u.RefusedCount+u.PendingCount)
				unitSum.add(u.VoteCounts)
			}
			assert.Equal(t, b.VoteCounts, unitSum)
			buildingSum.add(b.VoteCounts)
		}
		assert.Equal(t, p.VoteCounts, buildingSum)
		phaseSum.add(p.VoteCounts)
	}
	assert.Equal(t, ov.Summary, phaseSum)
}

func TestGetVoteOverview_PhaseSortOrderMatchesVoteList(t *testing.T) {
	f := newFixture(t, "1-1-101")
	phase2 := models.Phase{CommunityID: f.community.ID, Name: "二期", Code: "P2", SortOrder: -1}
	require.NoError(t, f.db.Create(&phase2).Error)
	extra := models.Owner{PhaseID: phase2.ID, RoomNumber: "1-1-101", Area: 90}
	require.NoError(t, NewOwnerService(f.db, nil).CreateOwner(&extra))

	ov, err := NewAggregationService(f.db).GetVoteOverview(&f.round)
	require.NoError(t, err)
	require.Len(t, ov.Phases, 2)
	assert.Equal(t, []uint{phase2.ID, f.phase.ID}, []uint{ov.Phases[0].PhaseID, ov.Phases[1].PhaseID})

	sw, err := NewAggregationService(f.db).GetSweepOverview(&f.round)
	require.NoError(t, err)
	require.Len(t, sw.Phases, 2)
	assert.Equal(t, phase2.ID, sw.Phases[0].PhaseID)

	items, _, err := NewVoteService(f.db, nil).GetVotes(&f.round, VoteFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, extra.ID, items[0].OwnerID)
}

func TestGetOverview_NoRound(t *testing.T) {
	db := newTestDB(t)
	svc := NewAggregationService(db)

	ov, err := svc.GetVoteOverview(nil)
	require.NoError(t, err)
	assert.Nil(t, ov.Round)
	assert.NotNil(t, ov.Phases)
	assert.Empty(t, ov.Phases)

	raw, err := json.Marshal(ov)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"round":null`)
	assert.Contains(t, string(raw), `"phases":[]`)

	sweep, err := svc.GetSweepOverview(nil)
	require.NoError(t, err)
	assert.Empty(t, sweep.Phases)
}

func TestGetSweepOverview(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102", "1-2-101")
	votes := NewVoteService(f.db, nil)
	_, err := votes.BatchUpdateSweep(&f.round, f.ownerIDs("1-1-101", "1-2-101"), models.SweepStatusCompleted, nil, 1)
	require.NoError(t, err)

	ov, err := NewAggregationService(f.db).GetSweepOverview(&f.round)
	require.NoError(t, err)
	assert.Equal(t, SweepTally{TotalRooms: 3, CompletedCount: 2, PendingCount: 1}, ov.Summary)
	require.Len(t, ov.Phases, 1)
	require.Len(t, ov.Phases[0].Buildings, 1)
	assert.Len(t, ov.Phases[0].Buildings[0].Units, 2)
}
