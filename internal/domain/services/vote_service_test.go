package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoa-vote-service/internal/domain/excel"
	"hoa-vote-service/internal/domain/models"
)

func TestBatchUpdateSweep_CreatesMissingRows(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102", "1-1-103")
	svc := NewVoteService(f.db, nil)

	// 只有第一户已有投票记录
	_, err := svc.UpsertVote(&f.round, VoteInput{OwnerID: f.owner("1-1-101").ID, VoteStatus: models.VoteStatusVoted}, 1)
	require.NoError(t, err)

	ids := f.ownerIDs("1-1-101", "1-1-102", "1-1-103")
	n, err := svc.BatchUpdateSweep(&f.round, ids, models.SweepStatusCompleted, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var votes []models.Vote
	require.NoError(t, f.db.Where("round_id = ?", f.round.ID).Order("owner_id").Find(&votes).Error)
	require.Len(t, votes, 3)
	for _, v := range votes {
		assert.Equal(t, models.SweepStatusCompleted, v.SweepStatus)
		assert.NotNil(t, v.SweepAt)
	}
	// 扫楼不影响已有投票状态
	assert.Equal(t, models.VoteStatusVoted, votes[0].VoteStatus)
	assert.Equal(t, models.VoteStatusPending, votes[1].VoteStatus)
}

func TestBatchUpdateSweep_KeepsRemarkWhenOmitted(t *testing.T) {
	f := newFixture(t, "1-1-101")
	svc := NewVoteService(f.db, nil)
	id := f.owner("1-1-101").ID

	_, err := svc.UpdateSweep(&f.round, id, models.SweepStatusInProgress, strPtr("周末再来"), 1)
	require.NoError(t, err)
	vote, err := svc.UpdateSweep(&f.round, id, models.SweepStatusCompleted, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, models.SweepStatusCompleted, vote.SweepStatus)
	require.NotNil(t, vote.SweepRemark)
	assert.Equal(t, "周末再来", *vote.SweepRemark)
}

func TestBatchUpdateVotes(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102")
	svc := NewVoteService(f.db, nil)

	n, err := svc.BatchUpdateVotes(&f.round, f.ownerIDs("1-1-101", "1-1-102"), models.VoteStatusOnsite, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.BatchUpdateVotes(&f.round, f.ownerIDs("1-1-102"), models.VoteStatusRefused, strPtr("明确拒绝"), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var votes []models.Vote
	require.NoError(t, f.db.Order("owner_id").Find(&votes).Error)
	require.Len(t, votes, 2)
	assert.Equal(t, models.VoteStatusOnsite, votes[0].VoteStatus)
	assert.Equal(t, models.VoteStatusRefused, votes[1].VoteStatus)
	require.NotNil(t, votes[1].Remark)
	assert.Equal(t, "明确拒绝", *votes[1].Remark)

	_, err = svc.BatchUpdateVotes(&f.round, nil, models.VoteStatusVoted, nil, 1)
	assert.ErrorIs(t, err, ErrEmptyOwnerList)
	_, err = svc.BatchUpdateVotes(&f.round, f.ownerIDs("1-1-101"), "maybe", nil, 1)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpsertVote_OwnerOutsideCommunity(t *testing.T) {
	f := newFixture(t, "1-1-101")
	other := models.Community{Name: "翠湖苑"}
	require.NoError(t, f.db.Create(&other).Error)
	phase := models.Phase{CommunityID: other.ID, Name: "一期", Code: "P1"}
	require.NoError(t, f.db.Create(&phase).Error)
	stranger := models.Owner{PhaseID: phase.ID, RoomNumber: "9-9-909"}
	require.NoError(t, f.db.Create(&stranger).Error)

	svc := NewVoteService(f.db, nil)
	_, err := svc.UpsertVote(&f.round, VoteInput{OwnerID: stranger.ID, VoteStatus: models.VoteStatusVoted}, 1)
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestInitVotes(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102", "1-2-101")
	svc := NewVoteService(f.db, nil)

	_, err := svc.UpsertVote(&f.round, VoteInput{OwnerID: f.owner("1-1-101").ID, VoteStatus: models.VoteStatusVideo}, 1)
	require.NoError(t, err)

	res, err := svc.InitVotes(&f.round)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Created)
	assert.Equal(t, int64(3), res.Total)

	res, err = svc.InitVotes(&f.round)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Created)
	assert.Equal(t, int64(3), res.Total)

	// 已有的投票不被覆盖
	var vote models.Vote
	require.NoError(t, f.db.Where("owner_id = ?", f.owner("1-1-101").ID).First(&vote).Error)
	assert.Equal(t, models.VoteStatusVideo, vote.VoteStatus)
}

func TestImportVotes_TwoRowSheet(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102")
	svc := NewVoteService(f.db, nil)

	rows := [][]string{
		{"房间号", "25B投否"},
		{"1-1-101", "1"},
		{"1-1-102", "0"},
	}
	res, err := svc.ImportVotes(&f.round, rows, VoteImportOptions{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 1, res.Voted)
	assert.Equal(t, 1, res.Pending)
	assert.Equal(t, 0, res.NotFound)
	assert.Equal(t, "25B投否", res.StatusColumn)

	var votes []models.Vote
	require.NoError(t, f.db.Order("owner_id").Find(&votes).Error)
	require.Len(t, votes, 2)
	assert.Equal(t, models.VoteStatusVoted, votes[0].VoteStatus)
	assert.Equal(t, models.VoteStatusPending, votes[1].VoteStatus)
}

func TestImportVotes_NormalizedAndNotFound(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102")
	svc := NewVoteService(f.db, nil)

	rows := [][]string{
		{"某小区投票统计表"},
		{"序号", "房号", "投票结果", "备注", "扫楼情况"},
		{"1", "1 - 1 - 101", "是", "电话确认", "已完成"},
		{"2", "11102", "否", "", ""},
	}
	for i := 0; i < 12; i++ {
		rows = append(rows, []string{"", "8-8-80" + string(rune('0'+i%10)), "1"})
	}

	res, err := svc.ImportVotes(&f.round, rows, VoteImportOptions{StatusColumn: "投票结果"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 12, res.NotFound)
	assert.Len(t, res.NotFoundRooms, 10)

	var vote models.Vote
	require.NoError(t, f.db.Where("owner_id = ?", f.owner("1-1-101").ID).First(&vote).Error)
	assert.Equal(t, models.VoteStatusVoted, vote.VoteStatus)
	assert.Equal(t, models.SweepStatusCompleted, vote.SweepStatus)
	require.NotNil(t, vote.Remark)
	assert.Equal(t, "电话确认", *vote.Remark)
}

func TestImportVotes_BlankCellsKeepExistingText(t *testing.T) {
	f := newFixture(t, "1-1-101")
	svc := NewVoteService(f.db, nil)
	id := f.owner("1-1-101").ID

	_, err := svc.UpsertVote(&f.round, VoteInput{OwnerID: id, VoteStatus: models.VoteStatusPending, Remark: strPtr("业主出差")}, 1)
	require.NoError(t, err)
	_, err = svc.UpdateSweep(&f.round, id, models.SweepStatusInProgress, nil, 1)
	require.NoError(t, err)

	rows := [][]string{
		{"房间号", "25B投否", "备注", "扫楼"},
		{"1-1-101", "1", "", ""},
	}
	_, err = svc.ImportVotes(&f.round, rows, VoteImportOptions{}, 1)
	require.NoError(t, err)

	var vote models.Vote
	require.NoError(t, f.db.Where("owner_id = ?", id).First(&vote).Error)
	assert.Equal(t, models.VoteStatusVoted, vote.VoteStatus)
	require.NotNil(t, vote.Remark)
	assert.Equal(t, "业主出差", *vote.Remark)
	assert.Equal(t, models.SweepStatusInProgress, vote.SweepStatus)
}

func TestImportVotes_SharedRoomNumberAcrossPhases(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102")
	svc := NewVoteService(f.db, nil)

	phase2 := models.Phase{CommunityID: f.community.ID, Name: "二期", Code: "P2"}
	require.NoError(t, f.db.Create(&phase2).Error)
	other := models.Owner{PhaseID: phase2.ID, RoomNumber: "1-1-101", OwnerName: "二期业主", Area: 90}
	require.NoError(t, NewOwnerService(f.db, nil).CreateOwner(&other))

	rows := [][]string{
		{"房间号", "25B投否"},
		{"1-1-101", "1"},
		{"11101", "1"},
		{"1-1-102", "1"},
	}
	res, err := svc.ImportVotes(&f.round, rows, VoteImportOptions{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 2, res.Ambiguous)
	assert.Equal(t, []string{"1-1-101", "11101"}, res.AmbiguousRooms)
	assert.Equal(t, 0, res.NotFound)

	// 两个分期的 1-1-101 都不被写入
	var count int64
	require.NoError(t, f.db.Model(&models.Vote{}).
		Where("owner_id IN ?", []uint{f.owner("1-1-101").ID, other.ID}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportVotes_SweepTimeOnlyOnChange(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102", "1-1-103")
	svc := NewVoteService(f.db, nil)

	_, err := svc.InitVotes(&f.round)
	require.NoError(t, err)
	_, err = svc.UpdateSweep(&f.round, f.owner("1-1-102").ID, models.SweepStatusCompleted, nil, 1)
	require.NoError(t, err)

	var swept models.Vote
	require.NoError(t, f.db.Where("owner_id = ?", f.owner("1-1-102").ID).First(&swept).Error)
	require.NotNil(t, swept.SweepAt)

	rows := [][]string{
		{"房间号", "25B投否", "扫楼状态"},
		{"1-1-101", "0", "待扫楼"},
		{"1-1-102", "1", "已完成"},
		{"1-1-103", "0", "扫楼中"},
	}
	_, err = svc.ImportVotes(&f.round, rows, VoteImportOptions{}, 1)
	require.NoError(t, err)

	votes := map[uint]models.Vote{}
	var list []models.Vote
	require.NoError(t, f.db.Where("round_id = ?", f.round.ID).Find(&list).Error)
	for _, v := range list {
		votes[v.OwnerID] = v
	}

	unchanged := votes[f.owner("1-1-101").ID]
	assert.Equal(t, models.SweepStatusPending, unchanged.SweepStatus)
	assert.Nil(t, unchanged.SweepAt)

	same := votes[f.owner("1-1-102").ID]
	require.NotNil(t, same.SweepAt)
	assert.True(t, same.SweepAt.Equal(*swept.SweepAt))

	changed := votes[f.owner("1-1-103").ID]
	assert.Equal(t, models.SweepStatusInProgress, changed.SweepStatus)
	assert.NotNil(t, changed.SweepAt)
}

func TestImportVotes_MissingStatusColumn(t *testing.T) {
	f := newFixture(t, "1-1-101")
	svc := NewVoteService(f.db, nil)

	_, err := svc.ImportVotes(&f.round, [][]string{{"房间号", "姓名"}, {"1-1-101", "张三"}}, VoteImportOptions{}, 1)
	assert.ErrorIs(t, err, ErrImportFile)

	_, err = svc.ImportVotes(&f.round, [][]string{{"姓名"}}, VoteImportOptions{}, 1)
	assert.ErrorIs(t, err, ErrImportFile)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102", "1-1-201", "1-2-101", "2-1-101")
	svc := NewVoteService(f.db, nil)

	statuses := map[string]models.VoteStatus{
		"1-1-101": models.VoteStatusVoted,
		"1-1-102": models.VoteStatusOnsite,
		"1-1-201": models.VoteStatusRefused,
		"1-2-101": models.VoteStatusVideo,
	}
	for rn, st := range statuses {
		_, err := svc.UpsertVote(&f.round, VoteInput{OwnerID: f.owner(rn).ID, VoteStatus: st}, 1)
		require.NoError(t, err)
	}

	items, err := svc.ExportVotes(&f.round)
	require.NoError(t, err)
	require.Len(t, items, 5)
	before := map[uint]bool{}
	for _, it := range items {
		before[it.OwnerID] = it.VoteStatus.Counted()
	}

	wb, _, err := BuildVoteExport(&f.community, &f.round, items)
	require.NoError(t, err)
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	rows, err := excel.ReadRows(bytes.NewReader(buf.Bytes()), "export.xlsx")
	require.NoError(t, err)

	res, err := svc.ImportVotes(&f.round, rows, VoteImportOptions{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Success)
	assert.Equal(t, 3, res.Voted)
	assert.Equal(t, 2, res.Pending)

	var votes []models.Vote
	require.NoError(t, f.db.Where("round_id = ?", f.round.ID).Find(&votes).Error)
	require.Len(t, votes, 5)
	for _, v := range votes {
		if before[v.OwnerID] {
			assert.Equal(t, models.VoteStatusVoted, v.VoteStatus, "owner %d", v.OwnerID)
		} else {
			assert.Equal(t, models.VoteStatusPending, v.VoteStatus, "owner %d", v.OwnerID)
		}
	}
}

func TestGetStats(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102", "1-1-103", "1-1-104")
	svc := NewVoteService(f.db, nil)

	_, err := svc.BatchUpdateVotes(&f.round, f.ownerIDs("1-1-101", "1-1-102"), models.VoteStatusVoted, nil, 1)
	require.NoError(t, err)
	_, err = svc.BatchUpdateVotes(&f.round, f.ownerIDs("1-1-103"), models.VoteStatusRefused, nil, 1)
	require.NoError(t, err)
	_, err = svc.BatchUpdateSweep(&f.round, f.ownerIDs("1-1-103", "1-1-104"), models.SweepStatusCompleted, nil, 1)
	require.NoError(t, err)

	stats, err := svc.GetStats(&f.round)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalOwners)
	assert.InDelta(t, 400.0, stats.TotalArea, 1e-6)
	assert.Equal(t, int64(2), stats.Voted)
	assert.Equal(t, int64(2), stats.VotedCount)
	assert.Equal(t, int64(1), stats.Refused)
	assert.Equal(t, int64(1), stats.Pending)
	assert.InDelta(t, 200.0, stats.VotedArea, 1e-6)
	assert.InDelta(t, 50.0, stats.VoteRate, 1e-6)
	assert.InDelta(t, 50.0, stats.AreaRate, 1e-6)
	assert.Equal(t, int64(2), stats.Sweep.Completed)
	assert.Equal(t, int64(2), stats.Sweep.Pending)
}

func TestGetVotes_DefaultsToPending(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102", "2-1-101")
	svc := NewVoteService(f.db, nil)

	_, err := svc.UpsertVote(&f.round, VoteInput{OwnerID: f.owner("1-1-101").ID, VoteStatus: models.VoteStatusVoted}, 1)
	require.NoError(t, err)

	items, total, err := svc.GetVotes(&f.round, VoteFilter{VoteStatus: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, it := range items {
		assert.Nil(t, it.VoteID)
		assert.Equal(t, models.VoteStatusPending, it.VoteStatus)
	}

	items, total, err = svc.GetVotes(&f.round, VoteFilter{Building: "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
}

func TestUpdateAndDeleteVote(t *testing.T) {
	f := newFixture(t, "1-1-101")
	svc := NewVoteService(f.db, nil)

	vote, err := svc.UpsertVote(&f.round, VoteInput{OwnerID: f.owner("1-1-101").ID, VoteStatus: models.VoteStatusPending}, 1)
	require.NoError(t, err)

	updated, err := svc.UpdateVote(vote.ID, VoteInput{VoteStatus: models.VoteStatusVideo, VotePhone: "13700000000"}, 2)
	require.NoError(t, err)
	assert.Equal(t, models.VoteStatusVideo, updated.VoteStatus)
	assert.Equal(t, "13700000000", updated.VotePhone)
	assert.Equal(t, uint(2), updated.UpdatedBy)

	require.NoError(t, svc.DeleteVote(vote.ID))
	assert.ErrorIs(t, svc.DeleteVote(vote.ID), ErrVoteNotFound)
}
