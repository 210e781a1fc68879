package services

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hoa-vote-service/internal/domain/models"
)

// 初始化投票记录时每批写入的条数
const voteInitBatchSize = 500

// InterfaceVoteService 投票与扫楼服务接口
type InterfaceVoteService interface {
	GetVotes(round *models.VoteRound, filter VoteFilter) ([]VoteListItem, int64, error)
	GetVoteByID(id uint) (*models.Vote, error)
	UpsertVote(round *models.VoteRound, input VoteInput, userID uint) (*models.Vote, error)
	UpdateVote(id uint, input VoteInput, userID uint) (*models.Vote, error)
	DeleteVote(id uint) error
	BatchUpdateVotes(round *models.VoteRound, ownerIDs []uint, status models.VoteStatus, remark *string, userID uint) (int, error)
	InitVotes(round *models.VoteRound) (*InitResult, error)
	UpdateSweep(round *models.VoteRound, ownerID uint, status models.SweepStatus, remark *string, userID uint) (*models.Vote, error)
	BatchUpdateSweep(round *models.VoteRound, ownerIDs []uint, status models.SweepStatus, remark *string, userID uint) (int, error)
	GetStats(round *models.VoteRound) (*VoteStats, error)
	ImportVotes(round *models.VoteRound, rows [][]string, opts VoteImportOptions, userID uint) (*VoteImportResult, error)
	ExportVotes(round *models.VoteRound) ([]VoteListItem, error)
}

// VoteFilter 投票列表查询条件
type VoteFilter struct {
	models.PaginationQuery
	PhaseID     uint   `form:"phase_id"`
	Building    string `form:"building"`
	Unit        string `form:"unit"`
	VoteStatus  string `form:"vote_status"`
	SweepStatus string `form:"sweep_status"`
	Keyword     string `form:"keyword"`
}

// VoteInput 单条投票写入参数；Remark 为 nil 时保留原值
type VoteInput struct {
	OwnerID    uint
	VoteStatus models.VoteStatus
	VotePhone  string
	VoteDate   *time.Time
	Remark     *string
}

// VoteListItem 业主与其在本轮的投票状态，无投票记录时为待投票
type VoteListItem struct {
	VoteID       *uint              `json:"vote_id"`
	OwnerID      uint               `json:"owner_id"`
	PhaseID      uint               `json:"phase_id"`
	PhaseName    string             `json:"phase_name"`
	SeqNo        int                `json:"seq_no"`
	Building     string             `json:"building"`
	Unit         string             `json:"unit"`
	Room         string             `json:"room"`
	RoomNumber   string             `json:"room_number"`
	OwnerName    string             `json:"owner_name"`
	Area         float64            `json:"area"`
	Phone1       string             `json:"phone1"`
	Phone2       string             `json:"phone2"`
	Phone3       string             `json:"phone3"`
	WechatStatus string             `json:"wechat_status"`
	HouseStatus  string             `json:"house_status"`
	VoteStatus   models.VoteStatus  `json:"vote_status"`
	VotePhone    *string            `json:"vote_phone"`
	VoteDate     *time.Time         `json:"vote_date"`
	Remark       *string            `json:"remark"`
	SweepStatus  models.SweepStatus `json:"sweep_status"`
	SweepRemark  *string            `json:"sweep_remark"`
	SweepAt      *time.Time         `json:"sweep_at"`
}

// InitResult 初始化结果
type InitResult struct {
	Created int64 `json:"created"`
	Total   int64 `json:"total"`
}

// SweepCounts 扫楼统计
type SweepCounts struct {
	Completed  int64 `json:"completed"`
	InProgress int64 `json:"in_progress"`
	Pending    int64 `json:"pending"`
}

// VoteStats 轮次统计
type VoteStats struct {
	TotalOwners int64       `json:"total_owners"`
	TotalArea   float64     `json:"total_area"`
	Voted       int64       `json:"voted"`
	Onsite      int64       `json:"onsite"`
	Video       int64       `json:"video"`
	Refused     int64       `json:"refused"`
	Pending     int64       `json:"pending"`
	VotedCount  int64       `json:"voted_count"`
	VotedArea   float64     `json:"voted_area"`
	VoteRate    float64     `json:"vote_rate"`
	AreaRate    float64     `json:"area_rate"`
	Sweep       SweepCounts `json:"sweep"`
}

// VoteService 提供投票相关的服务
type VoteService struct {
	DB     *gorm.DB
	logger *zap.Logger
}

// NewVoteService 创建一个新的投票服务
func NewVoteService(db *gorm.DB, logger *zap.Logger) InterfaceVoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoteService{DB: db, logger: logger}
}

const voteListColumns = `v.id AS vote_id, o.id AS owner_id, o.phase_id, p.name AS phase_name, o.seq_no,
	o.building, o.unit, o.room, o.room_number, o.owner_name, o.area, o.phone1, o.phone2, o.phone3,
	o.wechat_status, o.house_status,
	COALESCE(v.vote_status, 'pending') AS vote_status, v.vote_phone, v.vote_date, v.remark,
	COALESCE(v.sweep_status, 'pending') AS sweep_status, v.sweep_remark, v.sweep_at`

// roundOwners 本轮所属小区的全部业主，LEFT JOIN 本轮投票
func (s *VoteService) roundOwners(round *models.VoteRound) *gorm.DB {
	return s.DB.Table("owners AS o").
		Joins("JOIN phases p ON p.id = o.phase_id").
		Joins("LEFT JOIN votes v ON v.owner_id = o.id AND v.round_id = ?", round.ID).
		Where("p.community_id = ?", round.CommunityID)
}

// 1 GetVotes 分页查询本轮投票情况
func (s *VoteService) GetVotes(round *models.VoteRound, filter VoteFilter) ([]VoteListItem, int64, error) {
	filter.Normalize()

	query := s.roundOwners(round)
	if filter.PhaseID > 0 {
		query = query.Where("o.phase_id = ?", filter.PhaseID)
	}
	if filter.Building != "" {
		query = query.Where("o.building = ?", filter.Building)
	}
	if filter.Unit != "" {
		query = query.Where("o.unit = ?", filter.Unit)
	}
	if filter.VoteStatus != "" {
		query = query.Where("COALESCE(v.vote_status, 'pending') = ?", filter.VoteStatus)
	}
	if filter.SweepStatus != "" {
		query = query.Where("COALESCE(v.sweep_status, 'pending') = ?", filter.SweepStatus)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("o.owner_name LIKE ? OR o.room_number LIKE ? OR o.phone1 LIKE ?", kw, kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]VoteListItem, 0)
	err := query.Select(voteListColumns).
		Order("p.sort_order, o.phase_id, CAST(o.building AS SIGNED), CAST(o.unit AS SIGNED), o.room").
		Offset(filter.Offset()).Limit(filter.PageSize).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// 2 GetVoteByID 根据ID获取投票记录
func (s *VoteService) GetVoteByID(id uint) (*models.Vote, error) {
	var vote models.Vote
	if err := s.DB.Preload("Round").First(&vote, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoteNotFound
		}
		return nil, err
	}
	return &vote, nil
}

func (s *VoteService) findVote(ownerID, roundID uint) (*models.Vote, error) {
	var vote models.Vote
	if err := s.DB.Where("owner_id = ? AND round_id = ?", ownerID, roundID).First(&vote).Error; err != nil {
		return nil, err
	}
	return &vote, nil
}

// ownersInRound 过滤出属于本轮所在小区的业主ID
func (s *VoteService) ownersInRound(round *models.VoteRound, ownerIDs []uint) ([]uint, error) {
	if len(ownerIDs) == 0 {
		return nil, ErrEmptyOwnerList
	}
	var ids []uint
	err := s.DB.Table("owners AS o").
		Joins("JOIN phases p ON p.id = o.phase_id").
		Where("p.community_id = ? AND o.id IN ?", round.CommunityID, ownerIDs).
		Order("o.id").
		Pluck("o.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// 3 UpsertVote 写入单个业主的投票状态，不存在记录时创建
func (s *VoteService) UpsertVote(round *models.VoteRound, input VoteInput, userID uint) (*models.Vote, error) {
	if !input.VoteStatus.Valid() {
		return nil, ErrInvalidStatus
	}
	ids, err := s.ownersInRound(round, []uint{input.OwnerID})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrOwnerNotFound
	}

	vote := models.Vote{
		OwnerID:     input.OwnerID,
		RoundID:     round.ID,
		VoteStatus:  input.VoteStatus,
		VotePhone:   input.VotePhone,
		VoteDate:    input.VoteDate,
		Remark:      input.Remark,
		SweepStatus: models.SweepStatusPending,
		UpdatedBy:   userID,
	}
	columns := []string{"vote_status", "vote_phone", "vote_date", "updated_by", "updated_at"}
	if input.Remark != nil {
		columns = append(columns, "remark")
	}
	if err := s.DB.Clauses(voteConflict(columns)).Create(&vote).Error; err != nil {
		return nil, err
	}
	return s.findVote(input.OwnerID, round.ID)
}

func voteConflict(columns []string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "round_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}
}

// 4 UpdateVote 按记录ID更新投票状态
func (s *VoteService) UpdateVote(id uint, input VoteInput, userID uint) (*models.Vote, error) {
	if _, err := s.GetVoteByID(id); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"updated_by": userID}
	if input.VoteStatus != "" {
		if !input.VoteStatus.Valid() {
			return nil, ErrInvalidStatus
		}
		updates["vote_status"] = input.VoteStatus
	}
	if input.VotePhone != "" {
		updates["vote_phone"] = input.VotePhone
	}
	if input.VoteDate != nil {
		updates["vote_date"] = *input.VoteDate
	}
	if input.Remark != nil {
		updates["remark"] = *input.Remark
	}
	if err := s.DB.Model(&models.Vote{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetVoteByID(id)
}

// 5 DeleteVote 删除投票记录，业主回到待投票
func (s *VoteService) DeleteVote(id uint) error {
	result := s.DB.Delete(&models.Vote{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVoteNotFound
	}
	return nil
}

// 6 BatchUpdateVotes 一条多行 upsert 批量设置投票状态，不在事务中执行
func (s *VoteService) BatchUpdateVotes(round *models.VoteRound, ownerIDs []uint, status models.VoteStatus, remark *string, userID uint) (int, error) {
	if !status.Valid() {
		return 0, ErrInvalidStatus
	}
	ids, err := s.ownersInRound(round, ownerIDs)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	votes := make([]models.Vote, len(ids))
	for i, id := range ids {
		votes[i] = models.Vote{
			OwnerID:     id,
			RoundID:     round.ID,
			VoteStatus:  status,
			Remark:      remark,
			SweepStatus: models.SweepStatusPending,
			UpdatedBy:   userID,
		}
	}
	columns := []string{"vote_status", "updated_by", "updated_at"}
	if remark != nil {
		columns = append(columns, "remark")
	}
	if err := s.DB.Clauses(voteConflict(columns)).Create(&votes).Error; err != nil {
		return 0, err
	}
	return len(ids), nil
}

// 7 InitVotes 为本小区尚无记录的业主创建待投票记录
func (s *VoteService) InitVotes(round *models.VoteRound) (*InitResult, error) {
	var ownerIDs []uint
	err := s.DB.Table("owners AS o").
		Joins("JOIN phases p ON p.id = o.phase_id").
		Joins("LEFT JOIN votes v ON v.owner_id = o.id AND v.round_id = ?", round.ID).
		Where("p.community_id = ? AND v.id IS NULL", round.CommunityID).
		Order("o.id").
		Pluck("o.id", &ownerIDs).Error
	if err != nil {
		return nil, err
	}

	result := &InitResult{}
	if len(ownerIDs) > 0 {
		votes := make([]models.Vote, len(ownerIDs))
		for i, id := range ownerIDs {
			votes[i] = models.Vote{
				OwnerID:     id,
				RoundID:     round.ID,
				VoteStatus:  models.VoteStatusPending,
				SweepStatus: models.SweepStatusPending,
			}
		}
		tx := s.DB.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&votes, voteInitBatchSize)
		if tx.Error != nil {
			return nil, tx.Error
		}
		result.Created = tx.RowsAffected
	}

	if err := s.DB.Model(&models.Vote{}).Where("round_id = ?", round.ID).Count(&result.Total).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// 8 UpdateSweep 更新单个业主的扫楼状态
func (s *VoteService) UpdateSweep(round *models.VoteRound, ownerID uint, status models.SweepStatus, remark *string, userID uint) (*models.Vote, error) {
	n, err := s.BatchUpdateSweep(round, []uint{ownerID}, status, remark, userID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrOwnerNotFound
	}
	return s.findVote(ownerID, round.ID)
}

// 9 BatchUpdateSweep 批量设置扫楼状态，缺少记录的业主会新建待投票记录
func (s *VoteService) BatchUpdateSweep(round *models.VoteRound, ownerIDs []uint, status models.SweepStatus, remark *string, userID uint) (int, error) {
	if !status.Valid() {
		return 0, ErrInvalidStatus
	}
	ids, err := s.ownersInRound(round, ownerIDs)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	now := time.Now()
	votes := make([]models.Vote, len(ids))
	for i, id := range ids {
		votes[i] = models.Vote{
			OwnerID:     id,
			RoundID:     round.ID,
			VoteStatus:  models.VoteStatusPending,
			SweepStatus: status,
			SweepRemark: remark,
			SweepAt:     &now,
			UpdatedBy:   userID,
		}
	}
	columns := []string{"sweep_status", "sweep_at", "updated_by", "updated_at"}
	if remark != nil {
		columns = append(columns, "sweep_remark")
	}
	if err := s.DB.Clauses(voteConflict(columns)).Create(&votes).Error; err != nil {
		return 0, err
	}
	return len(ids), nil
}

// 10 GetStats 本轮投票与扫楼汇总
func (s *VoteService) GetStats(round *models.VoteRound) (*VoteStats, error) {
	var row struct {
		TotalOwners     int64
		TotalArea       float64
		Voted           int64
		Onsite          int64
		Video           int64
		Refused         int64
		VotedArea       float64
		SweepCompleted  int64
		SweepInProgress int64
	}
	err := s.roundOwners(round).Select(`COUNT(o.id) AS total_owners,
		COALESCE(SUM(o.area), 0) AS total_area,
		COALESCE(SUM(CASE WHEN v.vote_status = 'voted' THEN 1 ELSE 0 END), 0) AS voted,
		COALESCE(SUM(CASE WHEN v.vote_status = 'onsite' THEN 1 ELSE 0 END), 0) AS onsite,
		COALESCE(SUM(CASE WHEN v.vote_status = 'video' THEN 1 ELSE 0 END), 0) AS video,
		COALESCE(SUM(CASE WHEN v.vote_status = 'refused' THEN 1 ELSE 0 END), 0) AS refused,
		COALESCE(SUM(CASE WHEN v.vote_status IN ('voted', 'onsite', 'video') THEN o.area ELSE 0 END), 0) AS voted_area,
		COALESCE(SUM(CASE WHEN v.sweep_status = 'completed' THEN 1 ELSE 0 END), 0) AS sweep_completed,
		COALESCE(SUM(CASE WHEN v.sweep_status = 'in_progress' THEN 1 ELSE 0 END), 0) AS sweep_in_progress`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &VoteStats{
		TotalOwners: row.TotalOwners,
		TotalArea:   round2(row.TotalArea),
		Voted:       row.Voted,
		Onsite:      row.Onsite,
		Video:       row.Video,
		Refused:     row.Refused,
		VotedCount:  row.Voted + row.Onsite + row.Video,
		VotedArea:   round2(row.VotedArea),
		Sweep: SweepCounts{
			Completed:  row.SweepCompleted,
			InProgress: row.SweepInProgress,
			Pending:    row.TotalOwners - row.SweepCompleted - row.SweepInProgress,
		},
	}
	stats.Pending = stats.TotalOwners - stats.VotedCount - stats.Refused
	if stats.TotalOwners > 0 {
		stats.VoteRate = round2(float64(stats.VotedCount) * 100 / float64(stats.TotalOwners))
	}
	if row.TotalArea > 0 {
		stats.AreaRate = round2(row.VotedArea * 100 / row.TotalArea)
	}
	return stats, nil
}

// 11 ExportVotes 导出本轮全部业主的投票情况
func (s *VoteService) ExportVotes(round *models.VoteRound) ([]VoteListItem, error) {
	items := make([]VoteListItem, 0)
	err := s.roundOwners(round).Select(voteListColumns).
		Order("p.sort_order, o.phase_id, CAST(o.building AS SIGNED), CAST(o.unit AS SIGNED), o.room").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
