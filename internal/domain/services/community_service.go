package services

import (
	"errors"

	"gorm.io/gorm"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/infrastructure/database"
)

// InterfaceCommunityService 小区与分期服务接口
type InterfaceCommunityService interface {
	GetCommunities(actor CurrentUser) ([]models.Community, error)
	GetCommunityByID(id uint) (*models.Community, error)
	CreateCommunity(community *models.Community) error
	UpdateCommunity(id uint, updates map[string]interface{}) (*models.Community, error)
	DeleteCommunity(id uint) error

	GetPhases(communityID uint) ([]models.Phase, error)
	GetPhaseByID(id uint) (*models.Phase, error)
	CreatePhase(phase *models.Phase) error
	UpdatePhase(communityID, phaseID uint, updates map[string]interface{}) (*models.Phase, error)
	DeletePhase(communityID, phaseID uint) error
}

// CommunityService 提供小区与分期相关的服务
type CommunityService struct {
	DB *gorm.DB
}

// NewCommunityService 创建一个新的小区服务
func NewCommunityService(db *gorm.DB) InterfaceCommunityService {
	return &CommunityService{DB: db}
}

// 1 GetCommunities 超级管理员返回全部小区，其他用户只返回所属小区
func (s *CommunityService) GetCommunities(actor CurrentUser) ([]models.Community, error) {
	query := s.DB.Model(&models.Community{}).Order("id")
	if scope := ScopeCommunityID(actor); scope != nil {
		query = query.Where("id = ?", *scope)
	}
	var communities []models.Community
	if err := query.Find(&communities).Error; err != nil {
		return nil, err
	}
	return communities, nil
}

// 2 GetCommunityByID 根据ID获取小区（含分期）
func (s *CommunityService) GetCommunityByID(id uint) (*models.Community, error) {
	var community models.Community
	err := s.DB.Preload("Phases", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order, id")
	}).First(&community, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, err
	}
	return &community, nil
}

// 3 CreateCommunity 创建小区
func (s *CommunityService) CreateCommunity(community *models.Community) error {
	if err := s.DB.Create(community).Error; err != nil {
		if database.IsDuplicateEntry(err) {
			return ErrCommunityNameUsed
		}
		return err
	}
	return nil
}

// 4 UpdateCommunity 更新小区
func (s *CommunityService) UpdateCommunity(id uint, updates map[string]interface{}) (*models.Community, error) {
	if _, err := s.GetCommunityByID(id); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&models.Community{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if database.IsDuplicateEntry(err) {
				return nil, ErrCommunityNameUsed
			}
			return nil, err
		}
	}
	return s.GetCommunityByID(id)
}

// 5 DeleteCommunity 删除小区，存在分期时拒绝
func (s *CommunityService) DeleteCommunity(id uint) error {
	if _, err := s.GetCommunityByID(id); err != nil {
		return err
	}
	var count int64
	if err := s.DB.Model(&models.Phase{}).Where("community_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCommunityInUse
	}
	return s.DB.Delete(&models.Community{}, id).Error
}

// 6 GetPhases 小区下的分期及各分期业主数
func (s *CommunityService) GetPhases(communityID uint) ([]models.Phase, error) {
	var phases []models.Phase
	if err := s.DB.Where("community_id = ?", communityID).Order("sort_order, id").Find(&phases).Error; err != nil {
		return nil, err
	}
	if len(phases) == 0 {
		return phases, nil
	}

	ids := make([]uint, len(phases))
	for i, p := range phases {
		ids[i] = p.ID
	}
	var counts []struct {
		PhaseID uint
		Total   int64
	}
	if err := s.DB.Model(&models.Owner{}).Select("phase_id, COUNT(*) AS total").
		Where("phase_id IN ?", ids).Group("phase_id").Scan(&counts).Error; err != nil {
		return nil, err
	}
	byPhase := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byPhase[c.PhaseID] = c.Total
	}
	for i := range phases {
		phases[i].OwnerCount = byPhase[phases[i].ID]
	}
	return phases, nil
}

// 7 GetPhaseByID 根据ID获取分期
func (s *CommunityService) GetPhaseByID(id uint) (*models.Phase, error) {
	var phase models.Phase
	if err := s.DB.First(&phase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, err
	}
	return &phase, nil
}

// 8 CreatePhase 创建分期
func (s *CommunityService) CreatePhase(phase *models.Phase) error {
	if _, err := s.GetCommunityByID(phase.CommunityID); err != nil {
		return err
	}
	if err := s.DB.Create(phase).Error; err != nil {
		if database.IsDuplicateEntry(err) {
			return ErrPhaseCodeUsed
		}
		return err
	}
	return nil
}

func (s *CommunityService) phaseInCommunity(communityID, phaseID uint) (*models.Phase, error) {
	phase, err := s.GetPhaseByID(phaseID)
	if err != nil {
		return nil, err
	}
	if phase.CommunityID != communityID {
		return nil, ErrPhaseNotFound
	}
	return phase, nil
}

// 9 UpdatePhase 更新分期
func (s *CommunityService) UpdatePhase(communityID, phaseID uint, updates map[string]interface{}) (*models.Phase, error) {
	if _, err := s.phaseInCommunity(communityID, phaseID); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&models.Phase{}).Where("id = ?", phaseID).Updates(updates).Error; err != nil {
			if database.IsDuplicateEntry(err) {
				return nil, ErrPhaseCodeUsed
			}
			return nil, err
		}
	}
	return s.GetPhaseByID(phaseID)
}

// 10 DeletePhase 删除分期，存在业主时拒绝
func (s *CommunityService) DeletePhase(communityID, phaseID uint) error {
	if _, err := s.phaseInCommunity(communityID, phaseID); err != nil {
		return err
	}
	var count int64
	if err := s.DB.Model(&models.Owner{}).Where("phase_id = ?", phaseID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPhaseInUse
	}
	return s.DB.Delete(&models.Phase{}, phaseID).Error
}
