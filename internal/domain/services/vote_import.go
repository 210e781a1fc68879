package services

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"hoa-vote-service/internal/domain/excel"
	"hoa-vote-service/internal/domain/models"
)

// 未匹配房间号最多返回的样例数
const maxNotFoundSamples = 10

// VoteImportOptions 导入时可显式指定的列名
type VoteImportOptions struct {
	StatusColumn string
	RemarkColumn string
	SweepColumn  string
}

// VoteImportResult 投票导入结果
type VoteImportResult struct {
	Total          int      `json:"total"`
	Success        int      `json:"success"`
	Voted          int      `json:"voted"`
	Pending        int      `json:"pending"`
	NotFound       int      `json:"notFound"`
	NotFoundRooms  []string `json:"notFoundRooms"`
	// 同一房间号对应多个分期的业主时不写入
	Ambiguous      int      `json:"ambiguous"`
	AmbiguousRooms []string `json:"ambiguousRooms"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors"`
	StatusColumn   string   `json:"statusColumn"`
}

// 12 ImportVotes 按房间号把表格中的投否列对账到本轮投票记录。
// 投否列只区分已投票与待投票；备注、扫楼列为空时保留原值。
func (s *VoteService) ImportVotes(round *models.VoteRound, rows [][]string, opts VoteImportOptions, userID uint) (*VoteImportResult, error) {
	headerIdx, ok := excel.FindHeaderRow(rows)
	if !ok {
		return nil, fmt.Errorf("%w: 未找到房间号列", ErrImportFile)
	}
	headers := rows[headerIdx]
	roomCol, _ := excel.FindRoomNumberColumn(headers)
	statusCol, ok := excel.FindVoteStatusColumn(headers, opts.StatusColumn)
	if !ok {
		return nil, fmt.Errorf("%w: 未找到投票状态列", ErrImportFile)
	}
	remarkCol, _ := excel.FindRemarkColumn(headers, opts.RemarkColumn)
	sweepCol, _ := excel.FindSweepColumn(headers, opts.SweepColumn)

	rooms, err := s.roomNumberIndex(round.CommunityID)
	if err != nil {
		return nil, err
	}
	existing, err := s.votesByOwner(round.ID)
	if err != nil {
		return nil, err
	}

	result := &VoteImportResult{
		NotFoundRooms:  []string{},
		AmbiguousRooms: []string{},
		Errors:         []string{},
		StatusColumn:   strings.TrimSpace(headers[statusCol]),
	}
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		roomNumber := excel.CellAt(row, roomCol)
		if roomNumber == "" {
			continue
		}
		result.Total++

		ownerID, match := rooms.resolve(roomNumber)
		if match == roomAmbiguous {
			result.Ambiguous++
			if len(result.AmbiguousRooms) < maxNotFoundSamples {
				result.AmbiguousRooms = append(result.AmbiguousRooms, roomNumber)
			}
			continue
		}
		if match == roomMissing {
			result.NotFound++
			if len(result.NotFoundRooms) < maxNotFoundSamples {
				result.NotFoundRooms = append(result.NotFoundRooms, roomNumber)
			}
			continue
		}

		status := models.VoteStatusPending
		if excel.IsVotedCell(excel.CellAt(row, statusCol)) {
			status = models.VoteStatusVoted
		}
		var remark *string
		if v := excel.CellAt(row, remarkCol); v != "" {
			remark = &v
		}
		sweep, hasSweep := excel.ParseSweepCell(excel.CellAt(row, sweepCol))

		if err := s.applyImportedVote(existing, round.ID, ownerID, status, remark, sweep, hasSweep, userID); err != nil {
			result.Failed++
			if len(result.Errors) < maxImportErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("第%d行 %s: %v", i+1, roomNumber, err))
			}
			continue
		}

		result.Success++
		if status == models.VoteStatusVoted {
			result.Voted++
		} else {
			result.Pending++
		}
	}

	s.logger.Info("投票导入完成",
		zap.Uint("round_id", round.ID),
		zap.Int("total", result.Total),
		zap.Int("voted", result.Voted),
		zap.Int("pending", result.Pending),
		zap.Int("not_found", result.NotFound),
		zap.Int("ambiguous", result.Ambiguous),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// 房间号匹配结果
const (
	roomMatched = iota
	roomMissing
	roomAmbiguous
)

// roomIndex 小区内房间号到业主ID的映射；房间号只在分期内唯一，
// 对应多个业主的键记为 0
type roomIndex struct {
	raw        map[string]uint
	normalized map[string]uint
}

func addRoomKey(m map[string]uint, key string, ownerID uint) {
	if prev, ok := m[key]; ok && prev != ownerID {
		m[key] = 0
		return
	}
	m[key] = ownerID
}

// resolve 先按原值匹配，再按规范化后的值匹配
func (idx roomIndex) resolve(roomNumber string) (uint, int) {
	if id, ok := idx.raw[roomNumber]; ok {
		if id == 0 {
			return 0, roomAmbiguous
		}
		return id, roomMatched
	}
	key := excel.NormalizeRoomNumber(roomNumber)
	if id, ok := idx.normalized[key]; ok && key != "" {
		if id == 0 {
			return 0, roomAmbiguous
		}
		return id, roomMatched
	}
	return 0, roomMissing
}

// roomNumberIndex 构建小区内的房间号索引
func (s *VoteService) roomNumberIndex(communityID uint) (roomIndex, error) {
	var owners []struct {
		ID         uint
		RoomNumber string
	}
	err := s.DB.Table("owners AS o").
		Select("o.id, o.room_number").
		Joins("JOIN phases p ON p.id = o.phase_id").
		Where("p.community_id = ?", communityID).
		Order("o.id").
		Scan(&owners).Error
	if err != nil {
		return roomIndex{}, err
	}

	idx := roomIndex{
		raw:        make(map[string]uint, len(owners)),
		normalized: make(map[string]uint, len(owners)),
	}
	for _, o := range owners {
		addRoomKey(idx.raw, o.RoomNumber, o.ID)
		if key := excel.NormalizeRoomNumber(o.RoomNumber); key != "" {
			addRoomKey(idx.normalized, key, o.ID)
		}
	}
	return idx, nil
}

func (s *VoteService) votesByOwner(roundID uint) (map[uint]*models.Vote, error) {
	var votes []models.Vote
	if err := s.DB.Where("round_id = ?", roundID).Find(&votes).Error; err != nil {
		return nil, err
	}
	byOwner := make(map[uint]*models.Vote, len(votes))
	for i := range votes {
		byOwner[votes[i].OwnerID] = &votes[i]
	}
	return byOwner, nil
}

func (s *VoteService) applyImportedVote(existing map[uint]*models.Vote, roundID, ownerID uint, status models.VoteStatus,
	remark *string, sweep models.SweepStatus, hasSweep bool, userID uint) error {
	if vote, ok := existing[ownerID]; ok {
		updates := map[string]interface{}{
			"vote_status": status,
			"updated_by":  userID,
		}
		if remark != nil {
			updates["remark"] = *remark
		}
		// 扫楼状态变化时才刷新扫楼时间
		if hasSweep && sweep != vote.SweepStatus {
			updates["sweep_status"] = sweep
			updates["sweep_at"] = time.Now()
		}
		if err := s.DB.Model(&models.Vote{}).Where("id = ?", vote.ID).Updates(updates).Error; err != nil {
			return err
		}
		vote.VoteStatus = status
		if hasSweep {
			vote.SweepStatus = sweep
		}
		return nil
	}

	vote := &models.Vote{
		OwnerID:     ownerID,
		RoundID:     roundID,
		VoteStatus:  status,
		Remark:      remark,
		SweepStatus: models.SweepStatusPending,
		UpdatedBy:   userID,
	}
	if hasSweep && sweep != models.SweepStatusPending {
		now := time.Now()
		vote.SweepStatus = sweep
		vote.SweepAt = &now
	}
	if err := s.DB.Create(vote).Error; err != nil {
		return err
	}
	// 同一房间在表格中重复出现时走更新分支
	existing[ownerID] = vote
	return nil
}
