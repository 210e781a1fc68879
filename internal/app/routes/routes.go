package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "hoa-vote-service/docs"
	"hoa-vote-service/internal/app/controllers"
	"hoa-vote-service/internal/app/middleware"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/infrastructure/config"
)

// 上传文件在内存中缓存的上限
const maxMultipartMemory = 32 << 20

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(container *container.ServiceContainer) *gin.Engine {
	cfg := container.GetService("config").(*config.Config)

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(container.Logger().Named("http")))

	// 添加 CORS 中间件
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	// 表格下载本身已压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/votes/export", "/api/owners/import-template"})))

	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerRoutes(r, container)
	return r
}

// corsConfig 允许来源包含 "*" 时放开全部来源且不携带凭证
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查路由
	api.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	api.GET("/health", controllers.HandleHealthFunc(container, "status"))

	// 登录接口按IP限流 - 每秒1个请求，最多突发5个
	api.POST("/auth/login", middleware.IPRateLimiter(1, 5), controllers.HandleAuthFunc(container, "login"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	auth := api.Group("/")
	auth.Use(middleware.Authentication(container.GetService("jwt").(services.InterfaceJWTService)))

	// 当前用户与账号管理
	authGroup := auth.Group("/auth")
	authGroup.GET("/me", controllers.HandleAuthFunc(container, "getMe"))
	authGroup.PUT("/password", controllers.HandleAuthFunc(container, "changePassword"))

	userGroup := authGroup.Group("/users")
	userGroup.Use(middleware.RequireManager())
	userGroup.GET("", controllers.HandleUserFunc(container, "getUsers"))
	userGroup.POST("", controllers.HandleUserFunc(container, "createUser"))
	userGroup.PUT("/:id", controllers.HandleUserFunc(container, "updateUser"))
	userGroup.DELETE("/:id", controllers.HandleUserFunc(container, "deleteUser"))

	// 小区与分期路由
	communityGroup := auth.Group("/communities")
	{
		communityGroup.GET("", controllers.HandleCommunityFunc(container, "getCommunities"))
		communityGroup.GET("/:id", controllers.HandleCommunityFunc(container, "getCommunity"))
		communityGroup.POST("", middleware.RequireSuperAdmin(), controllers.HandleCommunityFunc(container, "createCommunity"))
		communityGroup.PUT("/:id", controllers.HandleCommunityFunc(container, "updateCommunity"))
		communityGroup.DELETE("/:id", middleware.RequireSuperAdmin(), controllers.HandleCommunityFunc(container, "deleteCommunity"))
		communityGroup.GET("/:id/phases", controllers.HandleCommunityFunc(container, "getPhases"))
		communityGroup.POST("/:id/phases", controllers.HandleCommunityFunc(container, "createPhase"))
		communityGroup.PUT("/:id/phases/:phaseId", controllers.HandleCommunityFunc(container, "updatePhase"))
		communityGroup.DELETE("/:id/phases/:phaseId", controllers.HandleCommunityFunc(container, "deletePhase"))
	}

	// 业主路由
	ownerGroup := auth.Group("/owners")
	{
		ownerGroup.GET("", controllers.HandleOwnerFunc(container, "getOwners"))
		ownerGroup.GET("/import-template", controllers.HandleOwnerFunc(container, "downloadTemplate"))
		ownerGroup.GET("/buildings/:phaseId", controllers.HandleOwnerFunc(container, "getBuildings"))
		ownerGroup.POST("/import", controllers.HandleOwnerFunc(container, "importOwners"))
		ownerGroup.GET("/:id", controllers.HandleOwnerFunc(container, "getOwner"))
		ownerGroup.POST("", controllers.HandleOwnerFunc(container, "createOwner"))
		ownerGroup.PUT("/:id", controllers.HandleOwnerFunc(container, "updateOwner"))
		ownerGroup.DELETE("/:id", controllers.HandleOwnerFunc(container, "deleteOwner"))
	}

	// 投票轮次路由
	voteGroup := auth.Group("/votes")
	roundGroup := voteGroup.Group("/rounds")
	{
		roundGroup.GET("", controllers.HandleVoteRoundFunc(container, "getRounds"))
		roundGroup.GET("/:id", controllers.HandleVoteRoundFunc(container, "getRound"))
		roundGroup.POST("", controllers.HandleVoteRoundFunc(container, "createRound"))
		roundGroup.PUT("/:id", controllers.HandleVoteRoundFunc(container, "updateRound"))
		roundGroup.DELETE("/:id", controllers.HandleVoteRoundFunc(container, "deleteRound"))
	}

	// 投票与扫楼路由
	{
		voteGroup.GET("", controllers.HandleVoteFunc(container, "getVotes"))
		voteGroup.POST("", controllers.HandleVoteFunc(container, "upsertVote"))
		voteGroup.POST("/batch", controllers.HandleVoteFunc(container, "batchUpdate"))
		voteGroup.POST("/init", controllers.HandleVoteFunc(container, "initVotes"))
		voteGroup.POST("/import", controllers.HandleVoteFunc(container, "importVotes"))
		voteGroup.GET("/export", controllers.HandleVoteFunc(container, "exportVotes"))
		voteGroup.GET("/stats", controllers.HandleVoteFunc(container, "stats"))
		voteGroup.GET("/unit-rooms", controllers.HandleVoteFunc(container, "unitRooms"))
		voteGroup.GET("/sweep-unit-rooms", controllers.HandleVoteFunc(container, "sweepUnitRooms"))
		voteGroup.GET("/progress", controllers.HandleVoteFunc(container, "progress"))
		voteGroup.GET("/sweep-overview", controllers.HandleVoteFunc(container, "sweepOverview"))
		voteGroup.PUT("/sweep/:ownerId", controllers.HandleVoteFunc(container, "updateSweep"))
		voteGroup.POST("/sweep-batch", controllers.HandleVoteFunc(container, "batchSweep"))
		voteGroup.PUT("/:id", controllers.HandleVoteFunc(container, "updateVote"))
		voteGroup.DELETE("/:id", controllers.HandleVoteFunc(container, "deleteVote"))
	}

	// 操作日志路由，仅超级管理员
	logGroup := auth.Group("/logs")
	logGroup.Use(middleware.RequireSuperAdmin())
	logGroup.GET("", controllers.HandleLogFunc(container, "getLogs"))
	logGroup.GET("/stats", controllers.HandleLogFunc(container, "getStats"))
	logGroup.GET("/filters", controllers.HandleLogFunc(container, "getFilters"))
}
