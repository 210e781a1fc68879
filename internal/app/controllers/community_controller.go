package controllers

import (
	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// InterfaceCommunityController 定义小区控制器接口
type InterfaceCommunityController interface {
	GetCommunities()
	GetCommunity()
	CreateCommunity()
	UpdateCommunity()
	DeleteCommunity()
	GetPhases()
	CreatePhase()
	UpdatePhase()
	DeletePhase()
}

// CommunityController 小区与分期控制器
type CommunityController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCommunityController 创建一个新的小区控制器
func NewCommunityController(ctx *gin.Context, container *container.ServiceContainer) *CommunityController {
	return &CommunityController{
		Ctx:       ctx,
		Container: container,
	}
}

// CommunityRequest 创建小区请求
type CommunityRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

// UpdateCommunityRequest 更新小区请求
type UpdateCommunityRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
}

// PhaseRequest 创建分期请求
type PhaseRequest struct {
	Name      string `json:"name" binding:"required,max=50"`
	Code      string `json:"code" binding:"required,max=20"`
	SortOrder int    `json:"sort_order"`
}

// UpdatePhaseRequest 更新分期请求
type UpdatePhaseRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=50"`
	Code      *string `json:"code" binding:"omitempty,min=1,max=20"`
	SortOrder *int    `json:"sort_order"`
}

// HandleCommunityFunc 返回一个处理小区请求的Gin处理函数
func HandleCommunityFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCommunityController(ctx, container)

		switch method {
		case "getCommunities":
			controller.GetCommunities()
		case "getCommunity":
			controller.GetCommunity()
		case "createCommunity":
			controller.CreateCommunity()
		case "updateCommunity":
			controller.UpdateCommunity()
		case "deleteCommunity":
			controller.DeleteCommunity()
		case "getPhases":
			controller.GetPhases()
		case "createPhase":
			controller.CreatePhase()
		case "updatePhase":
			controller.UpdatePhase()
		case "deletePhase":
			controller.DeletePhase()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法")
		}
	}
}

func (c *CommunityController) service() services.InterfaceCommunityService {
	return c.Container.GetService("community").(services.InterfaceCommunityService)
}

// 1 GetCommunities 小区列表
// @Summary      小区列表
// @Description  超级管理员返回全部小区，其他用户只返回本小区
// @Tags         Community
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /communities [get]
func (c *CommunityController) GetCommunities() {
	communities, err := c.service().GetCommunities(currentUser(c.Ctx))
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, communities)
}

// 2 GetCommunity 小区详情（含分期）
// @Summary      小区详情
// @Description  根据ID获取小区及其分期
// @Tags         Community
// @Produce      json
// @Param        id path integer true "小区ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /communities/{id} [get]
func (c *CommunityController) GetCommunity() {
	id, ok := paramID(c.Ctx, "id")
	if !ok || !requireAccess(c.Ctx, id) {
		return
	}
	community, err := c.service().GetCommunityByID(id)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, community)
}

// 3 CreateCommunity 创建小区，仅超级管理员
// @Summary      创建小区
// @Description  仅超级管理员
// @Tags         Community
// @Accept       json
// @Produce      json
// @Param        request body CommunityRequest true "小区信息"
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /communities [post]
func (c *CommunityController) CreateCommunity() {
	var req CommunityRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "小区名称不能为空")
		return
	}

	community := &models.Community{Name: req.Name, Address: req.Address, Description: req.Description}
	if err := c.service().CreateCommunity(community); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "community", "create", uintPtr(community.ID), community.ID, community.Name)
	response.Created(c.Ctx, community)
}

// 4 UpdateCommunity 更新小区
// @Summary      更新小区
// @Description  需要小区管理权限
// @Tags         Community
// @Accept       json
// @Produce      json
// @Param        id path integer true "小区ID"
// @Param        request body UpdateCommunityRequest true "小区信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /communities/{id} [put]
func (c *CommunityController) UpdateCommunity() {
	id, ok := paramID(c.Ctx, "id")
	if !ok || !requireManage(c.Ctx, id) {
		return
	}
	var req UpdateCommunityRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "请求参数无效")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	community, err := c.service().UpdateCommunity(id, updates)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "community", "update", uintPtr(id), id, community.Name)
	response.Success(c.Ctx, community)
}

// 5 DeleteCommunity 删除小区，仅超级管理员
// @Summary      删除小区
// @Description  仅超级管理员；存在分期时拒绝删除
// @Tags         Community
// @Produce      json
// @Param        id path integer true "小区ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /communities/{id} [delete]
func (c *CommunityController) DeleteCommunity() {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteCommunity(id); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "community", "delete", uintPtr(id), id, "")
	response.Success(c.Ctx, nil)
}

// 6 GetPhases 分期列表
// @Summary      分期列表
// @Description  分期及其业主数量
// @Tags         Community
// @Produce      json
// @Param        id path integer true "小区ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /communities/{id}/phases [get]
func (c *CommunityController) GetPhases() {
	id, ok := paramID(c.Ctx, "id")
	if !ok || !requireAccess(c.Ctx, id) {
		return
	}
	phases, err := c.service().GetPhases(id)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, phases)
}

// 7 CreatePhase 创建分期
// @Summary      创建分期
// @Description  分期编码在小区内唯一
// @Tags         Community
// @Accept       json
// @Produce      json
// @Param        id path integer true "小区ID"
// @Param        request body PhaseRequest true "分期信息"
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /communities/{id}/phases [post]
func (c *CommunityController) CreatePhase() {
	id, ok := paramID(c.Ctx, "id")
	if !ok || !requireManage(c.Ctx, id) {
		return
	}
	var req PhaseRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "分期名称和编码不能为空")
		return
	}

	phase := &models.Phase{CommunityID: id, Name: req.Name, Code: req.Code, SortOrder: req.SortOrder}
	if err := c.service().CreatePhase(phase); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "phase", "create", uintPtr(id), phase.ID, phase.Name)
	response.Created(c.Ctx, phase)
}

// 8 UpdatePhase 更新分期
// @Summary      更新分期
// @Description  更新分期名称、编码或排序
// @Tags         Community
// @Accept       json
// @Produce      json
// @Param        id path integer true "小区ID"
// @Param        phaseId path integer true "分期ID"
// @Param        request body UpdatePhaseRequest true "分期信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /communities/{id}/phases/{phaseId} [put]
func (c *CommunityController) UpdatePhase() {
	id, ok := paramID(c.Ctx, "id")
	if !ok || !requireManage(c.Ctx, id) {
		return
	}
	phaseID, ok := paramID(c.Ctx, "phaseId")
	if !ok {
		return
	}
	var req UpdatePhaseRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "请求参数无效")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Code != nil {
		updates["code"] = *req.Code
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	phase, err := c.service().UpdatePhase(id, phaseID, updates)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "phase", "update", uintPtr(id), phaseID, phase.Name)
	response.Success(c.Ctx, phase)
}

// 9 DeletePhase 删除分期
// @Summary      删除分期
// @Description  存在业主时拒绝删除
// @Tags         Community
// @Produce      json
// @Param        id path integer true "小区ID"
// @Param        phaseId path integer true "分期ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /communities/{id}/phases/{phaseId} [delete]
func (c *CommunityController) DeletePhase() {
	id, ok := paramID(c.Ctx, "id")
	if !ok || !requireManage(c.Ctx, id) {
		return
	}
	phaseID, ok := paramID(c.Ctx, "phaseId")
	if !ok {
		return
	}
	if err := c.service().DeletePhase(id, phaseID); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "phase", "delete", uintPtr(id), phaseID, "")
	response.Success(c.Ctx, nil)
}
