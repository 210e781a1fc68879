package services

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/roomcode"
)

// InterfaceAggregationService 楼栋可视化所需的汇总服务
type InterfaceAggregationService interface {
	GetUnitRooms(round *models.VoteRound, phaseID uint, building, unit string) (*VoteUnitRooms, error)
	GetSweepUnitRooms(round *models.VoteRound, phaseID uint, building, unit string) (*SweepUnitRooms, error)
	GetVoteOverview(round *models.VoteRound) (*VoteOverview, error)
	GetSweepOverview(round *models.VoteRound) (*SweepOverview, error)
}

// AggregationService 按 分期→楼栋→单元→楼层 汇总投票与扫楼状态
type AggregationService struct {
	DB *gorm.DB
}

// NewAggregationService 创建汇总服务
func NewAggregationService(db *gorm.DB) InterfaceAggregationService {
	return &AggregationService{DB: db}
}

// RoomDetail 单元内的一户
type RoomDetail struct {
	OwnerID     uint               `json:"owner_id"`
	Room        string             `json:"room"`
	RoomNumber  string             `json:"room_number"`
	OwnerName   string             `json:"owner_name"`
	Area        float64            `json:"area"`
	Phone1      string             `json:"phone1"`
	Floor       int                `json:"floor"`
	RoomInFloor string             `json:"room_in_floor"`
	VoteStatus  models.VoteStatus  `json:"vote_status"`
	VotePhone   *string            `json:"vote_phone"`
	VoteDate    *time.Time         `json:"vote_date"`
	Remark      *string            `json:"remark"`
	SweepStatus models.SweepStatus `json:"sweep_status"`
	SweepRemark *string            `json:"sweep_remark"`
	SweepAt     *time.Time         `json:"sweep_at"`
}

// FloorStats 楼层分布
type FloorStats struct {
	MaxFloor         int `json:"max_floor"`
	MinFloor         int `json:"min_floor"`
	FloorCount       int `json:"floor_count"`
	MaxRoomsPerFloor int `json:"max_rooms_per_floor"`
}

// UnitKey 单元定位
type UnitKey struct {
	RoundID  uint   `json:"round_id"`
	PhaseID  uint   `json:"phase_id"`
	Building string `json:"building"`
	Unit     string `json:"unit"`
}

// VoteCounts 投票维度计数，voted+refused+pending = total_rooms
type VoteCounts struct {
	TotalRooms   int `json:"total_rooms"`
	VotedCount   int `json:"voted_count"`
	RefusedCount int `json:"refused_count"`
	PendingCount int `json:"pending_count"`
}

func (c *VoteCounts) add(o VoteCounts) {
	c.TotalRooms += o.TotalRooms
	c.VotedCount += o.VotedCount
	c.RefusedCount += o.RefusedCount
	c.PendingCount += o.PendingCount
}

// SweepTally 扫楼维度计数，completed+in_progress+pending = total_rooms
type SweepTally struct {
	TotalRooms      int `json:"total_rooms"`
	CompletedCount  int `json:"completed_count"`
	InProgressCount int `json:"in_progress_count"`
	PendingCount    int `json:"pending_count"`
}

func (c *SweepTally) add(o SweepTally) {
	c.TotalRooms += o.TotalRooms
	c.CompletedCount += o.CompletedCount
	c.InProgressCount += o.InProgressCount
	c.PendingCount += o.PendingCount
}

// VoteUnitMeta 单元投票汇总
type VoteUnitMeta struct {
	UnitKey
	VoteCounts
}

// SweepUnitMeta 单元扫楼汇总
type SweepUnitMeta struct {
	UnitKey
	SweepTally
}

// VoteUnitRooms 单元投票详情
type VoteUnitRooms struct {
	Meta   VoteUnitMeta         `json:"meta"`
	Floors map[int][]RoomDetail `json:"floors"`
	Stats  FloorStats           `json:"stats"`
}

// SweepUnitRooms 单元扫楼详情
type SweepUnitRooms struct {
	Meta   SweepUnitMeta        `json:"meta"`
	Floors map[int][]RoomDetail `json:"floors"`
	Stats  FloorStats           `json:"stats"`
}

// 1 GetUnitRooms 单元投票详情，无业主时返回空结构
func (s *AggregationService) GetUnitRooms(round *models.VoteRound, phaseID uint, building, unit string) (*VoteUnitRooms, error) {
	rooms, err := s.unitRooms(round, phaseID, building, unit)
	if err != nil {
		return nil, err
	}

	meta := VoteUnitMeta{UnitKey: UnitKey{RoundID: round.ID, PhaseID: phaseID, Building: building, Unit: unit}}
	for _, r := range rooms {
		meta.TotalRooms++
		switch {
		case r.VoteStatus.Counted():
			meta.VotedCount++
		case r.VoteStatus == models.VoteStatusRefused:
			meta.RefusedCount++
		default:
			meta.PendingCount++
		}
	}
	floors, stats := groupByFloor(rooms)
	return &VoteUnitRooms{Meta: meta, Floors: floors, Stats: stats}, nil
}

// 2 GetSweepUnitRooms 单元扫楼详情
func (s *AggregationService) GetSweepUnitRooms(round *models.VoteRound, phaseID uint, building, unit string) (*SweepUnitRooms, error) {
	rooms, err := s.unitRooms(round, phaseID, building, unit)
	if err != nil {
		return nil, err
	}

	meta := SweepUnitMeta{UnitKey: UnitKey{RoundID: round.ID, PhaseID: phaseID, Building: building, Unit: unit}}
	for _, r := range rooms {
		meta.TotalRooms++
		switch r.SweepStatus {
		case models.SweepStatusCompleted:
			meta.CompletedCount++
		case models.SweepStatusInProgress:
			meta.InProgressCount++
		default:
			meta.PendingCount++
		}
	}
	floors, stats := groupByFloor(rooms)
	return &SweepUnitRooms{Meta: meta, Floors: floors, Stats: stats}, nil
}

func (s *AggregationService) unitRooms(round *models.VoteRound, phaseID uint, building, unit string) ([]RoomDetail, error) {
	var phase models.Phase
	if err := s.DB.Select("id, community_id").First(&phase, phaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, err
	}
	if phase.CommunityID != round.CommunityID {
		return nil, ErrPhaseNotFound
	}

	rooms := make([]RoomDetail, 0)
	err := s.DB.Table("owners AS o").
		Select(`o.id AS owner_id, o.room, o.room_number, o.owner_name, o.area, o.phone1,
			COALESCE(v.vote_status, 'pending') AS vote_status, v.vote_phone, v.vote_date, v.remark,
			COALESCE(v.sweep_status, 'pending') AS sweep_status, v.sweep_remark, v.sweep_at`).
		Joins("LEFT JOIN votes v ON v.owner_id = o.id AND v.round_id = ?", round.ID).
		Where("o.phase_id = ? AND o.building = ? AND o.unit = ?", phaseID, building, unit).
		Order("o.room, o.id").
		Scan(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// groupByFloor 按解析出的楼层分组，层内按户号排序；无法解析的归入 0 层
func groupByFloor(rooms []RoomDetail) (map[int][]RoomDetail, FloorStats) {
	floors := make(map[int][]RoomDetail)
	for _, r := range rooms {
		r.Floor, r.RoomInFloor = roomcode.Parse(r.Room)
		floors[r.Floor] = append(floors[r.Floor], r)
	}

	var stats FloorStats
	first := true
	for floor, list := range floors {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].RoomInFloor < list[j].RoomInFloor
		})
		if first || floor > stats.MaxFloor {
			stats.MaxFloor = floor
		}
		if first || floor < stats.MinFloor {
			stats.MinFloor = floor
		}
		if len(list) > stats.MaxRoomsPerFloor {
			stats.MaxRoomsPerFloor = len(list)
		}
		first = false
	}
	stats.FloorCount = len(floors)
	return floors, stats
}

// unitCountRow 按 (分期, 楼栋, 单元) 聚合的一行
type unitCountRow struct {
	PhaseID         uint
	PhaseName       string
	Building        string
	Unit            string
	TotalRooms      int
	VotedCount      int
	RefusedCount    int
	CompletedCount  int
	InProgressCount int
}

// unitCounts 一条分组 SQL 直接在库内完成单元级计数
func (s *AggregationService) unitCounts(round *models.VoteRound) ([]unitCountRow, error) {
	var rows []unitCountRow
	err := s.DB.Table("owners AS o").
		Select(`p.id AS phase_id, p.name AS phase_name, o.building, o.unit,
			COUNT(o.id) AS total_rooms,
			COALESCE(SUM(CASE WHEN v.vote_status IN ('voted', 'onsite', 'video') THEN 1 ELSE 0 END), 0) AS voted_count,
			COALESCE(SUM(CASE WHEN v.vote_status = 'refused' THEN 1 ELSE 0 END), 0) AS refused_count,
			COALESCE(SUM(CASE WHEN v.sweep_status = 'completed' THEN 1 ELSE 0 END), 0) AS completed_count,
			COALESCE(SUM(CASE WHEN v.sweep_status = 'in_progress' THEN 1 ELSE 0 END), 0) AS in_progress_count`).
		Joins("JOIN phases p ON p.id = o.phase_id").
		Joins("LEFT JOIN votes v ON v.owner_id = o.id AND v.round_id = ?", round.ID).
		Where("p.community_id = ?", round.CommunityID).
		Group("p.sort_order, p.id, p.name, o.building, o.unit").
		Order("p.sort_order, p.id, CAST(o.building AS SIGNED), CAST(o.unit AS SIGNED)").
		Scan(&rows).Error
	return rows, err
}

// UnitVoteSummary 单元投票汇总
type UnitVoteSummary struct {
	Unit string `json:"unit"`
	VoteCounts
}

// BuildingVoteSummary 楼栋投票汇总
type BuildingVoteSummary struct {
	Building string `json:"building"`
	VoteCounts
	Units []UnitVoteSummary `json:"units"`
}

// PhaseVoteSummary 分期投票汇总
type PhaseVoteSummary struct {
	PhaseID   uint   `json:"phase_id"`
	PhaseName string `json:"phase_name"`
	VoteCounts
	Buildings []BuildingVoteSummary `json:"buildings"`
}

// VoteOverview 小区投票总览
type VoteOverview struct {
	Round   *models.VoteRound  `json:"round"`
	Summary VoteCounts         `json:"summary"`
	Phases  []PhaseVoteSummary `json:"phases"`
}

// 3 GetVoteOverview 分期→楼栋→单元 三级投票汇总；round 为 nil 时返回空总览
func (s *AggregationService) GetVoteOverview(round *models.VoteRound) (*VoteOverview, error) {
	overview := &VoteOverview{Round: round, Phases: []PhaseVoteSummary{}}
	if round == nil {
		return overview, nil
	}
	rows, err := s.unitCounts(round)
	if err != nil {
		return nil, err
	}

	// 单次遍历：分期、楼栋按首次出现顺序，单元按追加顺序
	phaseIdx := make(map[uint]int)
	buildingIdx := make(map[uint]map[string]int)
	for _, r := range rows {
		counts := VoteCounts{
			TotalRooms:   r.TotalRooms,
			VotedCount:   r.VotedCount,
			RefusedCount: r.RefusedCount,
			PendingCount: r.TotalRooms - r.VotedCount - r.RefusedCount,
		}

		pi, ok := phaseIdx[r.PhaseID]
		if !ok {
			pi = len(overview.Phases)
			phaseIdx[r.PhaseID] = pi
			buildingIdx[r.PhaseID] = make(map[string]int)
			overview.Phases = append(overview.Phases, PhaseVoteSummary{
				PhaseID:   r.PhaseID,
				PhaseName: r.PhaseName,
				Buildings: []BuildingVoteSummary{},
			})
		}
		phase := &overview.Phases[pi]

		bi, ok := buildingIdx[r.PhaseID][r.Building]
		if !ok {
			bi = len(phase.Buildings)
			buildingIdx[r.PhaseID][r.Building] = bi
			phase.Buildings = append(phase.Buildings, BuildingVoteSummary{
				Building: r.Building,
				Units:    []UnitVoteSummary{},
			})
		}
		building := &phase.Buildings[bi]

		building.Units = append(building.Units, UnitVoteSummary{Unit: r.Unit, VoteCounts: counts})
		building.add(counts)
		phase.add(counts)
		overview.Summary.add(counts)
	}
	return overview, nil
}

// UnitSweepSummary 单元扫楼汇总
type UnitSweepSummary struct {
	Unit string `json:"unit"`
	SweepTally
}

// BuildingSweepSummary 楼栋扫楼汇总
type BuildingSweepSummary struct {
	Building string `json:"building"`
	SweepTally
	Units []UnitSweepSummary `json:"units"`
}

// PhaseSweepSummary 分期扫楼汇总
type PhaseSweepSummary struct {
	PhaseID   uint   `json:"phase_id"`
	PhaseName string `json:"phase_name"`
	SweepTally
	Buildings []BuildingSweepSummary `json:"buildings"`
}

// SweepOverview 小区扫楼总览
type SweepOverview struct {
	Round   *models.VoteRound   `json:"round"`
	Summary SweepTally          `json:"summary"`
	Phases  []PhaseSweepSummary `json:"phases"`
}

// 4 GetSweepOverview 扫楼维度的三级汇总
func (s *AggregationService) GetSweepOverview(round *models.VoteRound) (*SweepOverview, error) {
	overview := &SweepOverview{Round: round, Phases: []PhaseSweepSummary{}}
	if round == nil {
		return overview, nil
	}
	rows, err := s.unitCounts(round)
	if err != nil {
		return nil, err
	}

	phaseIdx := make(map[uint]int)
	buildingIdx := make(map[uint]map[string]int)
	for _, r := range rows {
		tally := SweepTally{
			TotalRooms:      r.TotalRooms,
			CompletedCount:  r.CompletedCount,
			InProgressCount: r.InProgressCount,
			PendingCount:    r.TotalRooms - r.CompletedCount - r.InProgressCount,
		}

		pi, ok := phaseIdx[r.PhaseID]
		if !ok {
			pi = len(overview.Phases)
			phaseIdx[r.PhaseID] = pi
			buildingIdx[r.PhaseID] = make(map[string]int)
			overview.Phases = append(overview.Phases, PhaseSweepSummary{
				PhaseID:   r.PhaseID,
				PhaseName: r.PhaseName,
				Buildings: []BuildingSweepSummary{},
			})
		}
		phase := &overview.Phases[pi]

		bi, ok := buildingIdx[r.PhaseID][r.Building]
		if !ok {
			bi = len(phase.Buildings)
			buildingIdx[r.PhaseID][r.Building] = bi
			phase.Buildings = append(phase.Buildings, BuildingSweepSummary{
				Building: r.Building,
				Units:    []UnitSweepSummary{},
			})
		}
		building := &phase.Buildings[bi]

		building.Units = append(building.Units, UnitSweepSummary{Unit: r.Unit, SweepTally: tally})
		building.add(tally)
		phase.add(tally)
		overview.Summary.add(tally)
	}
	return overview, nil
}
