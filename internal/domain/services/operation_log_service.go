package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hoa-vote-service/internal/domain/models"
)

// InterfaceOperationLogService 操作日志服务接口
type InterfaceOperationLogService interface {
	Record(entry models.OperationLog)
	GetLogs(filter LogFilter) ([]models.OperationLog, int64, error)
	GetStats(days int) (*LogStats, error)
	GetFilterOptions() (*LogFilterOptions, error)
	Close()
}

// LogFilter 日志查询条件
type LogFilter struct {
	models.PaginationQuery
	UserID      uint       `form:"user_id"`
	Username    string     `form:"username"`
	Module      string     `form:"module"`
	Action      string     `form:"action"`
	CommunityID *uint      `form:"community_id"`
	StartDate   *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate     *time.Time `form:"end_date" time_format:"2006-01-02"`
}

// CountItem 分组计数
type CountItem struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// LogStats 日志统计
type LogStats struct {
	Total    int64       `json:"total"`
	Days     int         `json:"days"`
	ByModule []CountItem `json:"by_module"`
	ByAction []CountItem `json:"by_action"`
	ByDay    []CountItem `json:"by_day"`
}

// LogFilterOptions 日志筛选项
type LogFilterOptions struct {
	Modules   []string `json:"modules"`
	Actions   []string `json:"actions"`
	Usernames []string `json:"usernames"`
}

// OperationLogService 异步写入操作日志。写入是尽力而为的：
// 队列已满时丢弃并告警，写库失败只记录日志，不影响业务请求。
type OperationLogService struct {
	DB     *gorm.DB
	logger *zap.Logger

	queue  chan models.OperationLog
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewOperationLogService 创建日志服务并启动后台写入协程
func NewOperationLogService(db *gorm.DB, logger *zap.Logger, queueSize int) InterfaceOperationLogService {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OperationLogService{
		DB:     db,
		logger: logger,
		queue:  make(chan models.OperationLog, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *OperationLogService) run() {
	defer close(s.done)
	for entry := range s.queue {
		if err := s.DB.Create(&entry).Error; err != nil {
			s.logger.Error("写入操作日志失败",
				zap.Error(err),
				zap.String("module", entry.Module),
				zap.String("action", entry.Action),
				zap.String("request_id", entry.RequestID),
			)
		}
	}
}

// 1 Record 投递一条日志，不阻塞调用方
func (s *OperationLogService) Record(entry models.OperationLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("日志服务已关闭，丢弃操作日志", zap.String("module", entry.Module), zap.String("action", entry.Action))
		return
	}
	select {
	case s.queue <- entry:
	default:
		s.logger.Warn("操作日志队列已满，丢弃日志", zap.String("module", entry.Module), zap.String("action", entry.Action))
	}
}

// Close 停止接收并等待队列写完
func (s *OperationLogService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

// 2 GetLogs 分页查询日志，按时间倒序
func (s *OperationLogService) GetLogs(filter LogFilter) ([]models.OperationLog, int64, error) {
	filter.Normalize()

	query := s.DB.Model(&models.OperationLog{})
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Username != "" {
		query = query.Where("username LIKE ?", "%"+filter.Username+"%")
	}
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.CommunityID != nil {
		query = query.Where("community_id = ?", *filter.CommunityID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		// 结束日期包含当天
		query = query.Where("created_at < ?", filter.EndDate.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.OperationLog
	if err := query.Order("created_at DESC, id DESC").
		Offset(filter.Offset()).Limit(filter.PageSize).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// 3 GetStats 最近 days 天的日志统计
func (s *OperationLogService) GetStats(days int) (*LogStats, error) {
	if days <= 0 || days > 90 {
		days = 7
	}
	now := time.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	base := func() *gorm.DB {
		return s.DB.Model(&models.OperationLog{}).Where("created_at >= ?", since)
	}

	stats := &LogStats{Days: days}
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Select("module AS `key`, COUNT(*) AS count").
		Group("module").Order("count DESC").Scan(&stats.ByModule).Error; err != nil {
		return nil, err
	}
	if err := base().Select("action AS `key`, COUNT(*) AS count").
		Group("action").Order("count DESC").Scan(&stats.ByAction).Error; err != nil {
		return nil, err
	}

	var daily []CountItem
	if err := base().Select("DATE(created_at) AS `key`, COUNT(*) AS count").
		Group("DATE(created_at)").Order("`key`").Scan(&daily).Error; err != nil {
		return nil, err
	}
	for i := range daily {
		// MySQL 返回带时区的时间串，只保留日期部分
		if len(daily[i].Key) > 10 {
			daily[i].Key = daily[i].Key[:10]
		}
	}
	stats.ByDay = daily
	return stats, nil
}

// 4 GetFilterOptions 日志中出现过的模块、动作和用户名
func (s *OperationLogService) GetFilterOptions() (*LogFilterOptions, error) {
	opts := &LogFilterOptions{}
	if err := s.DB.Model(&models.OperationLog{}).Distinct().Order("module").Pluck("module", &opts.Modules).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.OperationLog{}).Distinct().Order("action").Pluck("action", &opts.Actions).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.OperationLog{}).Where("username <> ''").Distinct().Order("username").
		Pluck("username", &opts.Usernames).Error; err != nil {
		return nil, err
	}
	return opts, nil
}
