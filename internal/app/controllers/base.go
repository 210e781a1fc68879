package controllers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hoa-vote-service/internal/app/middleware"
	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"请求参数错误"`
}

// 业务错误到错误码的映射
var errorCodes = []struct {
	err  error
	code int
}{
	{services.ErrForbidden, code.ErrForbidden},
	{services.ErrInvalidCredentials, code.ErrUserPasswordIncorrect},
	{services.ErrUserDisabled, code.ErrUserDisabled},
	{services.ErrUserLocked, code.ErrUserLocked},
	{services.ErrUserNotFound, code.ErrUserNotFound},
	{services.ErrUsernameTaken, code.ErrUserAlreadyExist},
	{services.ErrOldPassword, code.ErrOldPasswordIncorrect},
	{services.ErrDeleteSelf, code.ErrValidation},
	{services.ErrCommunityNotFound, code.ErrCommunityNotFound},
	{services.ErrCommunityNameUsed, code.ErrCommunityAlreadyExist},
	{services.ErrCommunityInUse, code.ErrCommunityInUse},
	{services.ErrPhaseNotFound, code.ErrPhaseNotFound},
	{services.ErrPhaseCodeUsed, code.ErrPhaseCodeExist},
	{services.ErrPhaseInUse, code.ErrPhaseInUse},
	{services.ErrOwnerNotFound, code.ErrOwnerNotFound},
	{services.ErrDuplicateRoomNumber, code.ErrRoomNumberExist},
	{services.ErrImportFile, code.ErrImportFile},
	{services.ErrRoundNotFound, code.ErrRoundNotFound},
	{services.ErrRoundCodeUsed, code.ErrRoundCodeExist},
	{services.ErrVoteNotFound, code.ErrVoteNotFound},
	{services.ErrInvalidStatus, code.ErrInvalidStatus},
	{services.ErrEmptyOwnerList, code.ErrValidation},
	{services.ErrInvalidDate, code.ErrValidation},
}

// handleError 业务错误返回对应错误码，其余错误只在服务端记录
func handleError(ctx *gin.Context, container *container.ServiceContainer, err error) {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			// 导入错误带有具体原因
			if m.code == code.ErrImportFile || m.code == code.ErrValidation {
				response.FailWithMessage(ctx, m.code, err.Error())
				return
			}
			response.Fail(ctx, m.code)
			return
		}
	}
	container.Logger().Error("请求处理失败",
		zap.String("path", ctx.FullPath()),
		zap.String("request_id", middleware.GetRequestID(ctx)),
		zap.Error(err),
	)
	response.ServerError(ctx)
}

// currentUser 认证中间件写入的调用者
func currentUser(ctx *gin.Context) services.CurrentUser {
	user, _ := middleware.CurrentUser(ctx)
	return user
}

// paramID 解析路径中的ID参数，失败时直接返回 400
func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.ParamError(ctx, "无效的"+name)
		return 0, false
	}
	return uint(id), true
}

// queryID 解析查询参数中的ID，缺省返回 0
func queryID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		response.ParamError(ctx, "无效的"+name)
		return 0, false
	}
	return uint(id), true
}

// requireAccess 读权限校验
func requireAccess(ctx *gin.Context, communityID uint) bool {
	if !services.CanAccessCommunity(currentUser(ctx), communityID) {
		response.Forbidden(ctx)
		return false
	}
	return true
}

// requireManage 写权限校验
func requireManage(ctx *gin.Context, communityID uint) bool {
	if !services.CanManageCommunity(currentUser(ctx), communityID) {
		response.Forbidden(ctx)
		return false
	}
	return true
}

// recordOperation 写入操作日志
func recordOperation(ctx *gin.Context, container *container.ServiceContainer, module, action string, communityID *uint, targetID interface{}, detail string) {
	user := currentUser(ctx)
	logService := container.GetService("operation_log").(services.InterfaceOperationLogService)
	entry := models.OperationLog{
		UserID:      user.ID,
		Username:    user.Username,
		CommunityID: communityID,
		Module:      module,
		Action:      action,
		Detail:      detail,
		IPAddress:   ctx.ClientIP(),
		RequestID:   middleware.GetRequestID(ctx),
	}
	if targetID != nil {
		entry.TargetID = fmt.Sprint(targetID)
	}
	logService.Record(entry)
}

func uintPtr(v uint) *uint {
	return &v
}
