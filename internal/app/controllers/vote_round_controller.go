package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// InterfaceVoteRoundController 定义投票轮次控制器接口
type InterfaceVoteRoundController interface {
	GetRounds()
	GetRound()
	CreateRound()
	UpdateRound()
	DeleteRound()
}

// VoteRoundController 投票轮次控制器
type VoteRoundController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewVoteRoundController 创建一个新的投票轮次控制器
func NewVoteRoundController(ctx *gin.Context, container *container.ServiceContainer) *VoteRoundController {
	return &VoteRoundController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateRoundRequest 创建轮次请求，日期格式 2006-01-02
type CreateRoundRequest struct {
	CommunityID uint   `json:"community_id" binding:"required"`
	Name        string `json:"name" binding:"required,max=100"`
	Year        int    `json:"year"`
	RoundCode   string `json:"round_code" binding:"required,max=20"`
	Status      string `json:"status"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// UpdateRoundRequest 更新轮次请求
type UpdateRoundRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Year        *int    `json:"year"`
	RoundCode   *string `json:"round_code" binding:"omitempty,min=1,max=20"`
	Status      *string `json:"status"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Description *string `json:"description"`
}

// HandleVoteRoundFunc 返回一个处理轮次请求的Gin处理函数
func HandleVoteRoundFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewVoteRoundController(ctx, container)

		switch method {
		case "getRounds":
			controller.GetRounds()
		case "getRound":
			controller.GetRound()
		case "createRound":
			controller.CreateRound()
		case "updateRound":
			controller.UpdateRound()
		case "deleteRound":
			controller.DeleteRound()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法")
		}
	}
}

func (c *VoteRoundController) service() services.InterfaceVoteRoundService {
	return c.Container.GetService("vote_round").(services.InterfaceVoteRoundService)
}

// parseDate 空串表示清空日期
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, services.ErrInvalidDate
}

// 1 GetRounds 轮次列表，按创建时间倒序
// @Summary      轮次列表
// @Description  按创建时间倒序
// @Tags         VoteRound
// @Produce      json
// @Param        community_id query integer false "小区ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/rounds [get]
func (c *VoteRoundController) GetRounds() {
	communityID, ok := queryID(c.Ctx, "community_id")
	if !ok {
		return
	}

	var filter *uint
	if communityID > 0 {
		if !requireAccess(c.Ctx, communityID) {
			return
		}
		filter = &communityID
	} else {
		filter = services.ScopeCommunityID(currentUser(c.Ctx))
	}

	rounds, err := c.service().GetRounds(filter)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, rounds)
}

// 2 GetRound 轮次详情
// @Summary      轮次详情
// @Description  根据ID获取投票轮次
// @Tags         VoteRound
// @Produce      json
// @Param        id path integer true "轮次ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /votes/rounds/{id} [get]
func (c *VoteRoundController) GetRound() {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return
	}
	round, err := c.service().GetRoundByID(id)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	if !requireAccess(c.Ctx, round.CommunityID) {
		return
	}
	response.Success(c.Ctx, round)
}

// 3 CreateRound 创建轮次
// @Summary      创建轮次
// @Description  激活轮次时关闭本小区其他进行中的轮次
// @Tags         VoteRound
// @Accept       json
// @Produce      json
// @Param        request body CreateRoundRequest true "轮次信息"
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/rounds [post]
func (c *VoteRoundController) CreateRound() {
	var req CreateRoundRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "小区、名称和轮次编码不能为空")
		return
	}
	if !requireManage(c.Ctx, req.CommunityID) {
		return
	}

	status := models.RoundStatusDraft
	if req.Status != "" {
		status = models.RoundStatus(req.Status)
	}
	if !status.Valid() {
		response.Fail(c.Ctx, code.ErrInvalidStatus)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	round := &models.VoteRound{
		CommunityID: req.CommunityID,
		Name:        req.Name,
		Year:        req.Year,
		RoundCode:   req.RoundCode,
		Status:      status,
		StartDate:   start,
		EndDate:     end,
		Description: req.Description,
	}
	if err := c.service().CreateRound(round); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "vote_round", "create", uintPtr(round.CommunityID), round.ID, round.Name)
	response.Created(c.Ctx, round)
}

// 4 UpdateRound 更新轮次
// @Summary      更新轮次
// @Description  激活轮次时关闭本小区其他进行中的轮次
// @Tags         VoteRound
// @Accept       json
// @Produce      json
// @Param        id path integer true "轮次ID"
// @Param        request body UpdateRoundRequest true "轮次信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/rounds/{id} [put]
func (c *VoteRoundController) UpdateRound() {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return
	}
	existing, err := c.service().GetRoundByID(id)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	if !requireManage(c.Ctx, existing.CommunityID) {
		return
	}
	var req UpdateRoundRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "请求参数无效")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.RoundCode != nil {
		updates["round_code"] = *req.RoundCode
	}
	if req.Status != nil {
		updates["status"] = models.RoundStatus(*req.Status)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	for column, raw := range map[string]*string{"start_date": req.StartDate, "end_date": req.EndDate} {
		if raw == nil {
			continue
		}
		t, err := parseDate(*raw)
		if err != nil {
			handleError(c.Ctx, c.Container, err)
			return
		}
		updates[column] = t
	}

	round, err := c.service().UpdateRound(id, updates)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "vote_round", "update", uintPtr(round.CommunityID), id, round.Name)
	response.Success(c.Ctx, round)
}

// 5 DeleteRound 删除轮次及其投票记录
// @Summary      删除轮次
// @Description  同时删除本轮全部投票记录
// @Tags         VoteRound
// @Produce      json
// @Param        id path integer true "轮次ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/rounds/{id} [delete]
func (c *VoteRoundController) DeleteRound() {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return
	}
	round, err := c.service().GetRoundByID(id)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	if !requireManage(c.Ctx, round.CommunityID) {
		return
	}
	if err := c.service().DeleteRound(id); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "vote_round", "delete", uintPtr(round.CommunityID), id, round.Name)
	response.Success(c.Ctx, nil)
}
