package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// 日志统计默认天数
const defaultLogStatsDays = 7

// InterfaceLogController 定义操作日志控制器接口
type InterfaceLogController interface {
	GetLogs()
	GetStats()
	GetFilters()
}

// LogController 操作日志控制器，仅超级管理员可用
type LogController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewLogController 创建一个新的操作日志控制器
func NewLogController(ctx *gin.Context, container *container.ServiceContainer) *LogController {
	return &LogController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleLogFunc 返回一个处理操作日志请求的Gin处理函数
func HandleLogFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewLogController(ctx, container)

		switch method {
		case "getLogs":
			controller.GetLogs()
		case "getStats":
			controller.GetStats()
		case "getFilters":
			controller.GetFilters()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法")
		}
	}
}

func (c *LogController) service() services.InterfaceOperationLogService {
	return c.Container.GetService("operation_log").(services.InterfaceOperationLogService)
}

// 1 GetLogs 日志列表，最新的在前
// @Summary      操作日志列表
// @Description  最新的在前，仅超级管理员
// @Tags         OperationLog
// @Produce      json
// @Param        page query integer false "页码，默认为1"
// @Param        page_size query integer false "每页条数，默认为20，最大500"
// @Param        user_id query integer false "用户ID"
// @Param        username query string false "用户名"
// @Param        module query string false "模块"
// @Param        action query string false "操作"
// @Param        community_id query integer false "小区ID"
// @Param        start_date query string false "开始日期 YYYY-MM-DD"
// @Param        end_date query string false "结束日期 YYYY-MM-DD"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /logs [get]
func (c *LogController) GetLogs() {
	var filter services.LogFilter
	if err := c.Ctx.ShouldBindQuery(&filter); err != nil {
		response.ParamError(c.Ctx, "查询参数无效，日期格式应为 YYYY-MM-DD")
		return
	}

	logs, total, err := c.service().GetLogs(filter)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	filter.Normalize()
	response.Page(c.Ctx, logs, total, filter.Page, filter.PageSize)
}

// 2 GetStats 最近若干天的日志统计
// @Summary      操作日志统计
// @Description  按模块、操作与日期统计
// @Tags         OperationLog
// @Produce      json
// @Param        days query integer false "统计天数，默认7"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /logs/stats [get]
func (c *LogController) GetStats() {
	days := defaultLogStatsDays
	if raw := c.Ctx.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.ParamError(c.Ctx, "无效的days")
			return
		}
		days = n
	}

	stats, err := c.service().GetStats(days)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, stats)
}

// 3 GetFilters 日志筛选项
// @Summary      日志筛选项
// @Description  已出现的模块、操作与用户名
// @Tags         OperationLog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /logs/filters [get]
func (c *LogController) GetFilters() {
	options, err := c.service().GetFilterOptions()
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, options)
}
