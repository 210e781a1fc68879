package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoa-vote-service/internal/domain/models"
)

func TestCreateRound_ActivatingClosesOthers(t *testing.T) {
	f := newFixture(t)
	svc := NewVoteRoundService(f.db)

	next := &models.VoteRound{CommunityID: f.community.ID, Name: "补选", RoundCode: "25C", Status: models.RoundStatusActive}
	require.NoError(t, svc.CreateRound(next))

	prev, err := svc.GetRoundByID(f.round.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusClosed, prev.Status)

	dup := &models.VoteRound{CommunityID: f.community.ID, Name: "重复", RoundCode: "25C"}
	assert.ErrorIs(t, svc.CreateRound(dup), ErrRoundCodeUsed)

	draft := &models.VoteRound{CommunityID: f.community.ID, Name: "草稿", RoundCode: "26A"}
	require.NoError(t, svc.CreateRound(draft))
	assert.Equal(t, models.RoundStatusDraft, draft.Status)

	updated, err := svc.UpdateRound(draft.ID, map[string]interface{}{"status": models.RoundStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusActive, updated.Status)
	next, err = svc.GetRoundByID(next.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusClosed, next.Status)

	_, err = svc.UpdateRound(draft.ID, map[string]interface{}{"status": models.RoundStatus("paused")})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestResolveRound(t *testing.T) {
	f := newFixture(t)
	svc := NewVoteRoundService(f.db)

	// 进行中的轮次优先
	later := &models.VoteRound{CommunityID: f.community.ID, Name: "新草稿", RoundCode: "26A"}
	require.NoError(t, svc.CreateRound(later))
	round, err := svc.ResolveRound(f.community.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, f.round.ID, round.ID)

	// 没有进行中的轮次时取最近创建的
	_, err = svc.UpdateRound(f.round.ID, map[string]interface{}{"status": models.RoundStatusClosed})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.VoteRound{}).Where("id = ?", later.ID).
		Update("created_at", time.Now().Add(time.Hour)).Error)
	round, err = svc.ResolveRound(f.community.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, later.ID, round.ID)

	// 显式指定时校验小区归属
	round, err = svc.ResolveRound(f.community.ID, f.round.ID)
	require.NoError(t, err)
	assert.Equal(t, f.round.ID, round.ID)
	_, err = svc.ResolveRound(f.community.ID+1, f.round.ID)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	round, err = svc.ResolveRound(f.community.ID+1, 0)
	require.NoError(t, err)
	assert.Nil(t, round)
}

func TestDeleteRound_RemovesVotes(t *testing.T) {
	f := newFixture(t, "1-1-101", "1-1-102")
	votes := NewVoteService(f.db, nil)
	_, err := votes.InitVotes(&f.round)
	require.NoError(t, err)

	svc := NewVoteRoundService(f.db)
	require.NoError(t, svc.DeleteRound(f.round.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.Vote{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.ErrorIs(t, svc.DeleteRound(f.round.ID), ErrRoundNotFound)
}

func TestGetRounds(t *testing.T) {
	f := newFixture(t)
	svc := NewVoteRoundService(f.db)
	other := models.Community{Name: "翠湖苑"}
	require.NoError(t, f.db.Create(&other).Error)
	require.NoError(t, svc.CreateRound(&models.VoteRound{CommunityID: other.ID, Name: "首届", RoundCode: "25A"}))

	all, err := svc.GetRounds(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := svc.GetRounds(&f.community.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "25B", scoped[0].RoundCode)
}
