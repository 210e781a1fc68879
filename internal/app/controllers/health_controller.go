package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
	"hoa-vote-service/internal/infrastructure/database"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(ctx *gin.Context, container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleHealthFunc 返回一个处理健康检查请求的Gin处理函数
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthCheckController(ctx, container)

		switch method {
		case "ping":
			controller.Ping()
		case "status":
			controller.Status()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法")
		}
	}
}

// Ping 存活检查，不访问数据库
// @Summary      存活检查
// @Description  不访问数据库的存活检查
// @Tags         Health
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /ping [get]
func (h *HealthCheckController) Ping() {
	response.Success(h.Ctx, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Status 数据库连通性与连接池状态，数据库不可用时返回 503
// @Summary      健康状态
// @Description  数据库连通性与连接池状态
// @Tags         Health
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      503  {object}  ErrorResponse
// @Router       /health [get]
func (h *HealthCheckController) Status() {
	pool := h.Container.GetService("pool").(*database.ConnectionPool)

	if err := pool.HealthCheck(); err != nil {
		h.Ctx.JSON(http.StatusServiceUnavailable, response.Response{
			Code:    code.ErrDatabase,
			Message: "数据库不可用",
			Data:    gin.H{"status": "unhealthy", "database": err.Error()},
		})
		return
	}

	stats, err := pool.Stats()
	if err != nil {
		stats = map[string]interface{}{"error": err.Error()}
	}
	response.Success(h.Ctx, gin.H{
		"status":   "healthy",
		"database": "ok",
		"pool":     stats,
	})
}
