package container

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/infrastructure/config"
	"hoa-vote-service/internal/infrastructure/database"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	pool   *database.ConnectionPool
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client
	logger *zap.Logger

	// 基础服务
	jwtService   services.InterfaceJWTService
	loginLimiter services.InterfaceLoginLimiter
	operationLog services.InterfaceOperationLogService
	userService  services.InterfaceUserService

	// 业务服务
	communityService   services.InterfaceCommunityService
	ownerService       services.InterfaceOwnerService
	voteRoundService   services.InterfaceVoteRoundService
	voteService        services.InterfaceVoteService
	aggregationService services.InterfaceAggregationService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器；redisClient 可为 nil
func NewServiceContainer(pool *database.ConnectionPool, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *ServiceContainer {
	if pool == nil || pool.GetDB() == nil {
		panic("数据库连接为空")
	}
	if cfg == nil {
		panic("配置为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// 测试Redis连接，不可用时退回为不限制登录
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis连接测试失败，将不启用登录失败限制", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	c := &ServiceContainer{
		pool:   pool,
		db:     pool.GetDB(),
		config: cfg,
		redis:  redisClient,
		logger: logger,
	}
	c.initializeServices()
	return c
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.jwtService = services.NewJWTService(c.config)
	c.loginLimiter = services.NewLoginLimiter(c.redis, c.config)
	c.operationLog = services.NewOperationLogService(c.db, c.logger.Named("audit"), c.config.AuditQueueSize)
	c.userService = services.NewUserService(c.db, c.jwtService, c.loginLimiter, c.logger.Named("user"))

	c.communityService = services.NewCommunityService(c.db)
	c.ownerService = services.NewOwnerService(c.db, c.logger.Named("owner"))
	c.voteRoundService = services.NewVoteRoundService(c.db)
	c.voteService = services.NewVoteService(c.db, c.logger.Named("vote"))
	c.aggregationService = services.NewAggregationService(c.db)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "pool":
		return c.pool
	case "jwt":
		return c.jwtService
	case "operation_log":
		return c.operationLog
	case "user":
		return c.userService
	case "community":
		return c.communityService
	case "owner":
		return c.ownerService
	case "vote_round":
		return c.voteRoundService
	case "vote":
		return c.voteService
	case "aggregation":
		return c.aggregationService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Logger 容器使用的日志记录器
func (c *ServiceContainer) Logger() *zap.Logger {
	return c.logger
}

// Close 写完排队中的操作日志并关闭 Redis 连接，数据库连接池由调用方关闭
func (c *ServiceContainer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.operationLog.Close()
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Warn("关闭Redis连接失败", zap.Error(err))
		}
	}
}
