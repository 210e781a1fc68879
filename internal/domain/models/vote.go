package models

import "time"

// RoundStatus 投票轮次状态
type RoundStatus string

const (
	RoundStatusDraft  RoundStatus = "draft"
	RoundStatusActive RoundStatus = "active"
	RoundStatusClosed RoundStatus = "closed"
)

// Valid 是否为已知状态
func (s RoundStatus) Valid() bool {
	return s == RoundStatusDraft || s == RoundStatusActive || s == RoundStatusClosed
}

// VoteRound 一次投票活动
type VoteRound struct {
	BaseModel
	CommunityID uint        `gorm:"not null;uniqueIndex:idx_round_community_code" json:"community_id"`
	Name        string      `gorm:"type:varchar(100);not null" json:"name"`
	Year        int         `json:"year"`
	RoundCode   string      `gorm:"type:varchar(20);not null;uniqueIndex:idx_round_community_code" json:"round_code"`
	Status      RoundStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	StartDate   *time.Time  `json:"start_date"`
	EndDate     *time.Time  `json:"end_date"`
	Description string      `gorm:"type:text" json:"description"`
}

// VoteStatus 投票状态
type VoteStatus string

const (
	VoteStatusPending VoteStatus = "pending"
	VoteStatusVoted   VoteStatus = "voted"
	VoteStatusOnsite  VoteStatus = "onsite"
	VoteStatusVideo   VoteStatus = "video"
	VoteStatusRefused VoteStatus = "refused"
)

// Valid 是否为已知状态
func (s VoteStatus) Valid() bool {
	switch s {
	case VoteStatusPending, VoteStatusVoted, VoteStatusOnsite, VoteStatusVideo, VoteStatusRefused:
		return true
	}
	return false
}

// Counted 已计入投票（线上、现场、视频）
func (s VoteStatus) Counted() bool {
	return s == VoteStatusVoted || s == VoteStatusOnsite || s == VoteStatusVideo
}

// CountedVoteStatuses 计入已投票的状态集合
var CountedVoteStatuses = []VoteStatus{VoteStatusVoted, VoteStatusOnsite, VoteStatusVideo}

// SweepStatus 扫楼状态
type SweepStatus string

const (
	SweepStatusPending    SweepStatus = "pending"
	SweepStatusInProgress SweepStatus = "in_progress"
	SweepStatusCompleted  SweepStatus = "completed"
)

// Valid 是否为已知状态
func (s SweepStatus) Valid() bool {
	return s == SweepStatusPending || s == SweepStatusInProgress || s == SweepStatusCompleted
}

// Vote 业主在某一轮次的投票与扫楼记录
type Vote struct {
	BaseModel
	OwnerID     uint        `gorm:"not null;uniqueIndex:idx_vote_owner_round" json:"owner_id"`
	RoundID     uint        `gorm:"not null;uniqueIndex:idx_vote_owner_round;index" json:"round_id"`
	VoteStatus  VoteStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"vote_status"`
	VotePhone   string      `gorm:"type:varchar(30)" json:"vote_phone"`
	VoteDate    *time.Time  `json:"vote_date"`
	Remark      *string     `gorm:"type:text" json:"remark"`
	SweepStatus SweepStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"sweep_status"`
	SweepRemark *string     `gorm:"type:text" json:"sweep_remark"`
	SweepAt     *time.Time  `json:"sweep_at"`
	UpdatedBy   uint        `json:"updated_by"`

	Owner *Owner     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Round *VoteRound `gorm:"foreignKey:RoundID" json:"round,omitempty"`
}
