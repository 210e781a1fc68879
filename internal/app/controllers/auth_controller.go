package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/app/middleware"
	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// InterfaceAuthController 定义认证控制器接口
type InterfaceAuthController interface {
	Login()
	GetMe()
	ChangePassword()
}

// AuthController 处理登录与本人账户请求
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController 创建一个新的认证控制器
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// HandleAuthFunc 返回一个处理认证请求的Gin处理函数
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		case "getMe":
			controller.GetMe()
		case "changePassword":
			controller.ChangePassword()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法")
		}
	}
}

// 1 Login 用户登录
// @Summary      用户登录
// @Description  用户名密码登录，返回令牌与用户信息；连续失败会被临时锁定
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "登录信息"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *AuthController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "用户名和密码不能为空")
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	logService := c.Container.GetService("operation_log").(services.InterfaceOperationLogService)
	entry := models.OperationLog{
		Username:  req.Username,
		Module:    "auth",
		IPAddress: c.Ctx.ClientIP(),
		RequestID: middleware.GetRequestID(c.Ctx),
	}

	result, err := userService.Login(c.Ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrUserLocked) || errors.Is(err, services.ErrUserDisabled) {
			entry.Action = "login_failed"
			entry.Detail = err.Error()
			logService.Record(entry)
		}
		handleError(c.Ctx, c.Container, err)
		return
	}

	entry.UserID = result.User.ID
	entry.CommunityID = result.User.CommunityID
	entry.Action = "login"
	logService.Record(entry)

	response.Success(c.Ctx, result)
}

// 2 GetMe 当前登录用户信息
// @Summary      当前用户
// @Description  获取当前登录用户信息
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /auth/me [get]
func (c *AuthController) GetMe() {
	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.GetUserByID(currentUser(c.Ctx).ID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, user)
}

// 3 ChangePassword 修改本人密码
// @Summary      修改密码
// @Description  修改本人密码，新密码至少6位
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "新旧密码"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/password [put]
func (c *AuthController) ChangePassword() {
	var req ChangePasswordRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "新密码至少6位")
		return
	}

	user := currentUser(c.Ctx)
	userService := c.Container.GetService("user").(services.InterfaceUserService)
	if err := userService.ChangePassword(user.ID, req.OldPassword, req.NewPassword); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "auth", "change_password", user.CommunityID, user.ID, "")
	response.Success(c.Ctx, nil)
}
