// @title           HOA Vote Service API
// @version         1.0
// @description     小区业主投票管理服务：业主台账、投票轮次、投票与扫楼进度、表格导入导出与操作日志

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 格式为 Bearer {token}
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hoa-vote-service/internal/app/routes"
	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/infrastructure/config"
	"hoa-vote-service/internal/infrastructure/database"
	Logger "hoa-vote-service/pkg/logger"
)

// 优雅关闭的最长等待时间
const shutdownTimeout = 10 * time.Second

func main() {
	// 加载.env文件，失败时继续使用已有的环境变量
	envErr := godotenv.Load()

	// 获取配置
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("配置无效: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志配置
	if err := Logger.SetupLogger(cfg.LogDir); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}
	defer Logger.Sync()
	if envErr != nil {
		Logger.Warning("无法加载.env文件: %v", envErr)
	} else {
		Logger.Info("成功加载.env文件")
	}

	// 创建数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		Logger.Error("无法创建数据库连接池: %v", err)
		Logger.Sync()
		os.Exit(1)
	}

	if cfg.DBMigrationMode == "skip" {
		Logger.Info("跳过数据库迁移")
	} else if err := autoMigrate(pool.GetDB()); err != nil {
		Logger.Error("自动迁移失败: %v", err)
		_ = pool.Close()
		Logger.Sync()
		os.Exit(1)
	}

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(pool, cfg, services.NewRedisClient(cfg), Logger.L())

	// 确保系统中有超级管理员账户
	userService := serviceContainer.GetService("user").(services.InterfaceUserService)
	if created, err := userService.EnsureSuperAdmin(cfg.DefaultAdminPassword); err != nil {
		Logger.Error("创建默认管理员失败: %v", err)
	} else if created {
		Logger.Warning("已创建默认超级管理员 admin，请尽快修改密码")
	}

	// 初始化路由
	r := routes.SetupRouter(serviceContainer)

	printSystemInfo(pool)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		Logger.Info("服务器启动在: http://0.0.0.0:%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("启动服务器失败: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	Logger.Info("收到信号 %s，开始关闭服务", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Logger.Error("关闭HTTP服务失败: %v", err)
	}

	// 写完排队中的操作日志后再关闭数据库
	serviceContainer.Close()
	if err := pool.Close(); err != nil {
		Logger.Error("关闭数据库连接池失败: %v", err)
	}
	Logger.Info("服务已停止")
}

// autoMigrate 自动迁移所有模型（只添加新列和新表）
func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return err
	}
	Logger.Info("数据库迁移完成")
	return nil
}

// printSystemInfo 打印系统信息
func printSystemInfo(pool *database.ConnectionPool) {
	log := Logger.L()

	// 打印数据库连接池信息
	if stats, err := pool.Stats(); err == nil {
		log.Info("数据库连接池状态", zap.Any("stats", stats))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Info("系统信息",
		zap.Int("cpu", runtime.NumCPU()),
		zap.Int("goroutines", runtime.NumGoroutine()),
		zap.Uint64("alloc_mib", m.Alloc/1024/1024),
		zap.Uint64("sys_mib", m.Sys/1024/1024),
	)
}
