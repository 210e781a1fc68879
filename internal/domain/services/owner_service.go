package services

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hoa-vote-service/internal/domain/excel"
	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/infrastructure/database"
)

// 导入结果中最多返回的错误条数
const maxImportErrors = 20

// InterfaceOwnerService 业主服务接口
type InterfaceOwnerService interface {
	GetOwners(filter OwnerFilter) ([]models.Owner, int64, error)
	GetOwnerByID(id uint) (*models.Owner, error)
	CommunityIDOfOwner(id uint) (uint, error)
	CreateOwner(owner *models.Owner) error
	UpdateOwner(id uint, updates map[string]interface{}) (*models.Owner, error)
	DeleteOwner(id uint) error
	GetBuildings(phaseID uint) ([]BuildingUnits, error)
	ImportOwners(phaseID uint, rows [][]string) (*OwnerImportResult, error)
}

// OwnerFilter 业主列表查询条件
type OwnerFilter struct {
	models.PaginationQuery
	CommunityID *uint  `form:"community_id"`
	PhaseID     uint   `form:"phase_id"`
	Building    string `form:"building"`
	Unit        string `form:"unit"`
	Keyword     string `form:"keyword"`
}

// BuildingUnits 楼栋及其单元
type BuildingUnits struct {
	Building string   `json:"building"`
	Units    []string `json:"units"`
}

// OwnerImportResult 业主导入结果
type OwnerImportResult struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

func (r *OwnerImportResult) fail(line int, err error) {
	r.Failed++
	if len(r.Errors) < maxImportErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("第%d行: %v", line, err))
	}
}

// OwnerService 提供业主相关的服务
type OwnerService struct {
	DB     *gorm.DB
	logger *zap.Logger
}

// NewOwnerService 创建一个新的业主服务
func NewOwnerService(db *gorm.DB, logger *zap.Logger) InterfaceOwnerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OwnerService{DB: db, logger: logger}
}

// 1 GetOwners 分页查询业主
func (s *OwnerService) GetOwners(filter OwnerFilter) ([]models.Owner, int64, error) {
	filter.Normalize()

	query := s.DB.Model(&models.Owner{}).Joins("JOIN phases ON phases.id = owners.phase_id")
	if filter.CommunityID != nil {
		query = query.Where("phases.community_id = ?", *filter.CommunityID)
	}
	if filter.PhaseID > 0 {
		query = query.Where("owners.phase_id = ?", filter.PhaseID)
	}
	if filter.Building != "" {
		query = query.Where("owners.building = ?", filter.Building)
	}
	if filter.Unit != "" {
		query = query.Where("owners.unit = ?", filter.Unit)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("owners.owner_name LIKE ? OR owners.room_number LIKE ? OR owners.phone1 LIKE ? OR owners.phone2 LIKE ? OR owners.phone3 LIKE ?",
			kw, kw, kw, kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var owners []models.Owner
	err := query.Preload("Phase").
		Order("owners.phase_id, CAST(owners.building AS SIGNED), CAST(owners.unit AS SIGNED), owners.room").
		Offset(filter.Offset()).Limit(filter.PageSize).
		Find(&owners).Error
	if err != nil {
		return nil, 0, err
	}
	return owners, total, nil
}

// 2 GetOwnerByID 根据ID获取业主
func (s *OwnerService) GetOwnerByID(id uint) (*models.Owner, error) {
	var owner models.Owner
	if err := s.DB.Preload("Phase").First(&owner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	return &owner, nil
}

// 3 CommunityIDOfOwner 业主所属小区，用于权限校验
func (s *OwnerService) CommunityIDOfOwner(id uint) (uint, error) {
	owner, err := s.GetOwnerByID(id)
	if err != nil {
		return 0, err
	}
	if owner.Phase == nil {
		return 0, ErrPhaseNotFound
	}
	return owner.Phase.CommunityID, nil
}

// fillRoomParts 未填写楼栋、单元、房号时从房间号拆分
func fillRoomParts(owner *models.Owner) {
	if owner.Building != "" || owner.Unit != "" || owner.Room != "" {
		return
	}
	if b, u, r, ok := excel.ParseRoomNumber(owner.RoomNumber); ok {
		owner.Building, owner.Unit, owner.Room = b, u, r
	}
}

// 4 CreateOwner 创建业主
func (s *OwnerService) CreateOwner(owner *models.Owner) error {
	fillRoomParts(owner)
	if err := s.DB.Create(owner).Error; err != nil {
		if database.IsDuplicateEntry(err) {
			return ErrDuplicateRoomNumber
		}
		return err
	}
	return nil
}

// 5 UpdateOwner 更新业主
func (s *OwnerService) UpdateOwner(id uint, updates map[string]interface{}) (*models.Owner, error) {
	if _, err := s.GetOwnerByID(id); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&models.Owner{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if database.IsDuplicateEntry(err) {
				return nil, ErrDuplicateRoomNumber
			}
			return nil, err
		}
	}
	return s.GetOwnerByID(id)
}

// 6 DeleteOwner 删除业主及其全部投票记录
func (s *OwnerService) DeleteOwner(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Owner{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOwnerNotFound
		}
		return nil
	})
}

// 7 GetBuildings 分期下的楼栋与单元，按数字顺序
func (s *OwnerService) GetBuildings(phaseID uint) ([]BuildingUnits, error) {
	var pairs []struct {
		Building string
		Unit     string
	}
	err := s.DB.Model(&models.Owner{}).
		Select("DISTINCT building, unit").
		Where("phase_id = ?", phaseID).
		Order("CAST(building AS SIGNED), building, CAST(unit AS SIGNED), unit").
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}

	result := make([]BuildingUnits, 0)
	index := make(map[string]int)
	for _, p := range pairs {
		i, ok := index[p.Building]
		if !ok {
			i = len(result)
			index[p.Building] = i
			result = append(result, BuildingUnits{Building: p.Building, Units: []string{}})
		}
		result[i].Units = append(result[i].Units, p.Unit)
	}
	return result, nil
}

// 8 ImportOwners 在一个事务内按 (分期, 房间号) 导入业主。
// 单行错误计入失败数并继续，只有逃逸出循环的错误才回滚整批。
func (s *OwnerService) ImportOwners(phaseID uint, rows [][]string) (*OwnerImportResult, error) {
	headerIdx, ok := excel.FindHeaderRow(rows)
	if !ok {
		return nil, fmt.Errorf("%w: 未找到房间号列", ErrImportFile)
	}
	cols, err := excel.MapOwnerHeaders(rows[headerIdx])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFile, err)
	}

	result := &OwnerImportResult{Errors: []string{}}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for i := headerIdx + 1; i < len(rows); i++ {
			line := i + 1
			if excel.IsBlankRow(rows[i]) {
				continue
			}
			result.Total++

			owner, err := excel.ParseOwnerRow(cols, rows[i])
			if err != nil {
				result.fail(line, err)
				continue
			}
			owner.PhaseID = phaseID

			created, err := upsertOwner(tx, &owner)
			if err != nil {
				result.fail(line, err)
				continue
			}
			result.Success++
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("业主导入完成",
		zap.Uint("phase_id", phaseID),
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func upsertOwner(tx *gorm.DB, owner *models.Owner) (bool, error) {
	var existing models.Owner
	err := tx.Where("phase_id = ? AND room_number = ?", owner.PhaseID, owner.RoomNumber).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, tx.Create(owner).Error
	}
	if err != nil {
		return false, err
	}

	return false, tx.Model(&existing).Updates(map[string]interface{}{
		"seq_no":         owner.SeqNo,
		"building":       owner.Building,
		"unit":           owner.Unit,
		"room":           owner.Room,
		"owner_name":     owner.OwnerName,
		"area":           owner.Area,
		"parking_no":     owner.ParkingNo,
		"parking_area":   owner.ParkingArea,
		"phone1":         owner.Phone1,
		"phone2":         owner.Phone2,
		"phone3":         owner.Phone3,
		"wechat_status":  owner.WechatStatus,
		"wechat_contact": owner.WechatContact,
		"house_status":   owner.HouseStatus,
		"remark":         owner.Remark,
	}).Error
}
