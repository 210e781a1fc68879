package services

import (
	"errors"

	"gorm.io/gorm"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/infrastructure/database"
)

// InterfaceVoteRoundService 投票轮次服务接口
type InterfaceVoteRoundService interface {
	GetRounds(communityID *uint) ([]models.VoteRound, error)
	GetRoundByID(id uint) (*models.VoteRound, error)
	CreateRound(round *models.VoteRound) error
	UpdateRound(id uint, updates map[string]interface{}) (*models.VoteRound, error)
	DeleteRound(id uint) error
	ResolveRound(communityID uint, roundID uint) (*models.VoteRound, error)
}

// VoteRoundService 提供投票轮次相关的服务
type VoteRoundService struct {
	DB *gorm.DB
}

// NewVoteRoundService 创建一个新的投票轮次服务
func NewVoteRoundService(db *gorm.DB) InterfaceVoteRoundService {
	return &VoteRoundService{DB: db}
}

// 1 GetRounds 轮次列表，按创建时间倒序
func (s *VoteRoundService) GetRounds(communityID *uint) ([]models.VoteRound, error) {
	query := s.DB.Model(&models.VoteRound{}).Order("created_at DESC, id DESC")
	if communityID != nil {
		query = query.Where("community_id = ?", *communityID)
	}
	var rounds []models.VoteRound
	if err := query.Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

// 2 GetRoundByID 根据ID获取轮次
func (s *VoteRoundService) GetRoundByID(id uint) (*models.VoteRound, error) {
	var round models.VoteRound
	if err := s.DB.First(&round, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &round, nil
}

// closeOtherActive 同一小区同时只允许一个进行中的轮次
func closeOtherActive(tx *gorm.DB, communityID, keepID uint) error {
	return tx.Model(&models.VoteRound{}).
		Where("community_id = ? AND status = ? AND id <> ?", communityID, models.RoundStatusActive, keepID).
		Update("status", models.RoundStatusClosed).Error
}

// 3 CreateRound 创建轮次
func (s *VoteRoundService) CreateRound(round *models.VoteRound) error {
	if round.Status == "" {
		round.Status = models.RoundStatusDraft
	}
	if !round.Status.Valid() {
		return ErrInvalidStatus
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(round).Error; err != nil {
			if database.IsDuplicateEntry(err) {
				return ErrRoundCodeUsed
			}
			return err
		}
		if round.Status == models.RoundStatusActive {
			return closeOtherActive(tx, round.CommunityID, round.ID)
		}
		return nil
	})
}

// 4 UpdateRound 更新轮次；设为进行中时关闭本小区其他进行中的轮次
func (s *VoteRoundService) UpdateRound(id uint, updates map[string]interface{}) (*models.VoteRound, error) {
	round, err := s.GetRoundByID(id)
	if err != nil {
		return nil, err
	}
	if status, ok := updates["status"].(models.RoundStatus); ok && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.VoteRound{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				if database.IsDuplicateEntry(err) {
					return ErrRoundCodeUsed
				}
				return err
			}
		}
		if status, ok := updates["status"].(models.RoundStatus); ok && status == models.RoundStatusActive {
			return closeOtherActive(tx, round.CommunityID, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoundByID(id)
}

// 5 DeleteRound 删除轮次及其投票记录
func (s *VoteRoundService) DeleteRound(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("round_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.VoteRound{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRoundNotFound
		}
		return nil
	})
}

// 6 ResolveRound 指定轮次时校验其归属；否则取进行中的轮次，再退回最近创建的轮次。
// 小区没有任何轮次时返回 (nil, nil)。
func (s *VoteRoundService) ResolveRound(communityID uint, roundID uint) (*models.VoteRound, error) {
	if roundID > 0 {
		round, err := s.GetRoundByID(roundID)
		if err != nil {
			return nil, err
		}
		if round.CommunityID != communityID {
			return nil, ErrRoundNotFound
		}
		return round, nil
	}

	var round models.VoteRound
	err := s.DB.Where("community_id = ? AND status = ?", communityID, models.RoundStatusActive).
		Order("created_at DESC, id DESC").First(&round).Error
	if err == nil {
		return &round, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.DB.Where("community_id = ?", communityID).Order("created_at DESC, id DESC").First(&round).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}
