package controllers

import (
	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// InterfaceUserController 定义用户管理控制器接口
type InterfaceUserController interface {
	GetUsers()
	CreateUser()
	UpdateUser()
	DeleteUser()
}

// UserController 用户管理控制器
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUserController 创建一个新的用户管理控制器
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Username    string      `json:"username" binding:"required,max=50"`
	Password    string      `json:"password" binding:"required,min=6"`
	RealName    string      `json:"real_name"`
	Role        models.Role `json:"role"`
	CommunityID *uint       `json:"community_id"`
	Status      string      `json:"status"`
}

// UpdateUserRequest 更新用户请求，未提供的字段保持不变
type UpdateUserRequest struct {
	Username    string      `json:"username" binding:"omitempty,max=50"`
	Password    string      `json:"password" binding:"omitempty,min=6"`
	RealName    string      `json:"real_name"`
	Role        models.Role `json:"role"`
	CommunityID *uint       `json:"community_id"`
	Status      string      `json:"status"`
}

// HandleUserFunc 返回一个处理用户管理请求的Gin处理函数
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "getUsers":
			controller.GetUsers()
		case "createUser":
			controller.CreateUser()
		case "updateUser":
			controller.UpdateUser()
		case "deleteUser":
			controller.DeleteUser()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法")
		}
	}
}

// 1 GetUsers 用户列表
// @Summary      用户列表
// @Description  超级管理员可查看全部用户，小区管理员只能查看本小区
// @Tags         User
// @Produce      json
// @Param        page query integer false "页码，默认为1"
// @Param        page_size query integer false "每页条数，默认为20，最大500"
// @Param        community_id query integer false "小区ID"
// @Param        role query string false "角色"
// @Param        keyword query string false "用户名或姓名关键字"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/users [get]
func (c *UserController) GetUsers() {
	var filter services.UserFilter
	if err := c.Ctx.ShouldBindQuery(&filter); err != nil {
		response.ParamError(c.Ctx, "查询参数无效")
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	users, total, err := userService.GetUsers(currentUser(c.Ctx), filter)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	filter.Normalize()
	response.Page(c.Ctx, users, total, filter.Page, filter.PageSize)
}

// 2 CreateUser 创建用户
// @Summary      创建用户
// @Description  小区管理员只能创建本小区的普通用户
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "用户信息"
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/users [post]
func (c *UserController) CreateUser() {
	var req CreateUserRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "用户名必填，密码至少6位")
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.CreateUser(currentUser(c.Ctx), services.UserInput{
		Username:    req.Username,
		Password:    req.Password,
		RealName:    req.RealName,
		Role:        req.Role,
		CommunityID: req.CommunityID,
		Status:      req.Status,
	})
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "user", "create", user.CommunityID, user.ID, user.Username)
	response.Created(c.Ctx, user)
}

// 3 UpdateUser 更新用户
// @Summary      更新用户
// @Description  未提供的字段保持不变
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id path integer true "用户ID"
// @Param        request body UpdateUserRequest true "用户信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/users/{id} [put]
func (c *UserController) UpdateUser() {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "请求参数无效")
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.UpdateUser(currentUser(c.Ctx), id, services.UserInput{
		Username:    req.Username,
		Password:    req.Password,
		RealName:    req.RealName,
		Role:        req.Role,
		CommunityID: req.CommunityID,
		Status:      req.Status,
	})
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "user", "update", user.CommunityID, user.ID, user.Username)
	response.Success(c.Ctx, user)
}

// 4 DeleteUser 删除用户
// @Summary      删除用户
// @Description  不能删除自己
// @Tags         User
// @Produce      json
// @Param        id path integer true "用户ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/users/{id} [delete]
func (c *UserController) DeleteUser() {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	if err := userService.DeleteUser(currentUser(c.Ctx), id); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "user", "delete", nil, id, "")
	response.Success(c.Ctx, nil)
}
