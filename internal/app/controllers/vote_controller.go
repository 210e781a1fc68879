package controllers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// InterfaceVoteController 定义投票控制器接口
type InterfaceVoteController interface {
	GetVotes()
	UpsertVote()
	UpdateVote()
	DeleteVote()
	BatchUpdate()
	InitVotes()
	ImportVotes()
	ExportVotes()
	GetUnitRooms()
	GetSweepUnitRooms()
	GetProgress()
	GetSweepOverview()
	UpdateSweep()
	BatchSweep()
	GetStats()
}

// VoteController 投票与扫楼控制器
type VoteController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewVoteController 创建一个新的投票控制器
func NewVoteController(ctx *gin.Context, container *container.ServiceContainer) *VoteController {
	return &VoteController{
		Ctx:       ctx,
		Container: container,
	}
}

// UpsertVoteRequest 单条投票请求
type UpsertVoteRequest struct {
	OwnerID    uint    `json:"owner_id" binding:"required"`
	RoundID    uint    `json:"round_id" binding:"required"`
	VoteStatus string  `json:"vote_status" binding:"required"`
	VotePhone  string  `json:"vote_phone"`
	VoteDate   string  `json:"vote_date"`
	Remark     *string `json:"remark"`
}

// UpdateVoteRequest 更新投票请求
type UpdateVoteRequest struct {
	VoteStatus string  `json:"vote_status"`
	VotePhone  string  `json:"vote_phone"`
	VoteDate   string  `json:"vote_date"`
	Remark     *string `json:"remark"`
}

// BatchVoteRequest 批量投票请求
type BatchVoteRequest struct {
	RoundID    uint    `json:"round_id" binding:"required"`
	OwnerIDs   []uint  `json:"owner_ids" binding:"required,min=1"`
	VoteStatus string  `json:"vote_status" binding:"required"`
	Remark     *string `json:"remark"`
}

// InitVotesRequest 初始化投票记录请求
type InitVotesRequest struct {
	RoundID uint `json:"round_id" binding:"required"`
}

// SweepRequest 单户扫楼请求
type SweepRequest struct {
	RoundID     uint    `json:"round_id" binding:"required"`
	SweepStatus string  `json:"sweep_status" binding:"required"`
	SweepRemark *string `json:"sweep_remark"`
}

// BatchSweepRequest 批量扫楼请求
type BatchSweepRequest struct {
	RoundID     uint    `json:"round_id" binding:"required"`
	OwnerIDs    []uint  `json:"owner_ids" binding:"required,min=1"`
	SweepStatus string  `json:"sweep_status" binding:"required"`
	SweepRemark *string `json:"sweep_remark"`
}

// UnitQuery 单元楼层视图查询参数
type UnitQuery struct {
	RoundID  uint   `form:"round_id"`
	PhaseID  uint   `form:"phase_id" binding:"required"`
	Building string `form:"building" binding:"required"`
	Unit     string `form:"unit" binding:"required"`
}

// HandleVoteFunc 返回一个处理投票请求的Gin处理函数
func HandleVoteFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewVoteController(ctx, container)

		switch method {
		case "getVotes":
			controller.GetVotes()
		case "upsertVote":
			controller.UpsertVote()
		case "updateVote":
			controller.UpdateVote()
		case "deleteVote":
			controller.DeleteVote()
		case "batchUpdate":
			controller.BatchUpdate()
		case "initVotes":
			controller.InitVotes()
		case "importVotes":
			controller.ImportVotes()
		case "exportVotes":
			controller.ExportVotes()
		case "unitRooms":
			controller.GetUnitRooms()
		case "sweepUnitRooms":
			controller.GetSweepUnitRooms()
		case "progress":
			controller.GetProgress()
		case "sweepOverview":
			controller.GetSweepOverview()
		case "updateSweep":
			controller.UpdateSweep()
		case "batchSweep":
			controller.BatchSweep()
		case "stats":
			controller.GetStats()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法")
		}
	}
}

func (c *VoteController) service() services.InterfaceVoteService {
	return c.Container.GetService("vote").(services.InterfaceVoteService)
}

func (c *VoteController) rounds() services.InterfaceVoteRoundService {
	return c.Container.GetService("vote_round").(services.InterfaceVoteRoundService)
}

func (c *VoteController) aggregation() services.InterfaceAggregationService {
	return c.Container.GetService("aggregation").(services.InterfaceAggregationService)
}

// loadRound 读取轮次并校验权限，manage 为 true 时要求写权限
func (c *VoteController) loadRound(roundID uint, manage bool) (*models.VoteRound, bool) {
	round, err := c.rounds().GetRoundByID(roundID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return nil, false
	}
	if manage {
		return round, requireManage(c.Ctx, round.CommunityID)
	}
	return round, requireAccess(c.Ctx, round.CommunityID)
}

// queryRound 从查询参数 round_id 读取轮次
func (c *VoteController) queryRound() (*models.VoteRound, bool) {
	roundID, ok := queryID(c.Ctx, "round_id")
	if !ok {
		return nil, false
	}
	if roundID == 0 {
		response.ParamError(c.Ctx, "请选择投票轮次")
		return nil, false
	}
	return c.loadRound(roundID, false)
}

// loadVote 读取投票记录并校验写权限
func (c *VoteController) loadVote() (*models.Vote, bool) {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return nil, false
	}
	vote, err := c.service().GetVoteByID(id)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return nil, false
	}
	if vote.Round == nil {
		response.Fail(c.Ctx, code.ErrRoundNotFound)
		return nil, false
	}
	return vote, requireManage(c.Ctx, vote.Round.CommunityID)
}

// 1 GetVotes 本轮业主投票列表，无记录的业主显示为待投票
// @Summary      投票列表
// @Description  本轮业主投票列表，无记录的业主显示为待投票
// @Tags         Vote
// @Produce      json
// @Param        page query integer false "页码，默认为1"
// @Param        page_size query integer false "每页条数，默认为20，最大500"
// @Param        round_id query integer true "轮次ID"
// @Param        phase_id query integer false "分期ID"
// @Param        building query string false "楼栋"
// @Param        unit query string false "单元"
// @Param        vote_status query string false "投票状态"
// @Param        sweep_status query string false "扫楼状态"
// @Param        keyword query string false "姓名、房间号或电话关键字"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes [get]
func (c *VoteController) GetVotes() {
	round, ok := c.queryRound()
	if !ok {
		return
	}
	var filter services.VoteFilter
	if err := c.Ctx.ShouldBindQuery(&filter); err != nil {
		response.ParamError(c.Ctx, "查询参数无效")
		return
	}

	items, total, err := c.service().GetVotes(round, filter)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	filter.Normalize()
	response.Page(c.Ctx, items, total, filter.Page, filter.PageSize)
}

// 2 UpsertVote 写入单个业主的投票
// @Summary      写入投票
// @Description  按业主与轮次新增或更新投票
// @Tags         Vote
// @Accept       json
// @Produce      json
// @Param        request body UpsertVoteRequest true "投票信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes [post]
func (c *VoteController) UpsertVote() {
	var req UpsertVoteRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "业主、轮次和投票状态不能为空")
		return
	}
	round, ok := c.loadRound(req.RoundID, true)
	if !ok {
		return
	}
	voteDate, err := parseDate(req.VoteDate)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	user := currentUser(c.Ctx)
	vote, err := c.service().UpsertVote(round, services.VoteInput{
		OwnerID:    req.OwnerID,
		VoteStatus: models.VoteStatus(req.VoteStatus),
		VotePhone:  req.VotePhone,
		VoteDate:   voteDate,
		Remark:     req.Remark,
	}, user.ID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "vote", "upsert", uintPtr(round.CommunityID), req.OwnerID,
		fmt.Sprintf("%s: %s", round.RoundCode, req.VoteStatus))
	response.Success(c.Ctx, vote)
}

// 3 UpdateVote 按记录ID更新投票
// @Summary      更新投票
// @Description  按记录ID更新投票
// @Tags         Vote
// @Accept       json
// @Produce      json
// @Param        id path integer true "投票记录ID"
// @Param        request body UpdateVoteRequest true "投票信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/{id} [put]
func (c *VoteController) UpdateVote() {
	existing, ok := c.loadVote()
	if !ok {
		return
	}
	var req UpdateVoteRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "请求参数无效")
		return
	}
	voteDate, err := parseDate(req.VoteDate)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	vote, err := c.service().UpdateVote(existing.ID, services.VoteInput{
		VoteStatus: models.VoteStatus(req.VoteStatus),
		VotePhone:  req.VotePhone,
		VoteDate:   voteDate,
		Remark:     req.Remark,
	}, currentUser(c.Ctx).ID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "vote", "update", uintPtr(existing.Round.CommunityID), existing.ID, string(vote.VoteStatus))
	response.Success(c.Ctx, vote)
}

// 4 DeleteVote 删除投票记录
// @Summary      删除投票
// @Description  删除投票记录
// @Tags         Vote
// @Produce      json
// @Param        id path integer true "投票记录ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/{id} [delete]
func (c *VoteController) DeleteVote() {
	existing, ok := c.loadVote()
	if !ok {
		return
	}
	if err := c.service().DeleteVote(existing.ID); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "vote", "delete", uintPtr(existing.Round.CommunityID), existing.ID, "")
	response.Success(c.Ctx, nil)
}

// 5 BatchUpdate 批量设置投票状态
// @Summary      批量投票
// @Description  批量设置投票状态，不在同一事务中
// @Tags         Vote
// @Accept       json
// @Produce      json
// @Param        request body BatchVoteRequest true "批量投票"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/batch [post]
func (c *VoteController) BatchUpdate() {
	var req BatchVoteRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "轮次、业主列表和投票状态不能为空")
		return
	}
	round, ok := c.loadRound(req.RoundID, true)
	if !ok {
		return
	}

	updated, err := c.service().BatchUpdateVotes(round, req.OwnerIDs, models.VoteStatus(req.VoteStatus), req.Remark, currentUser(c.Ctx).ID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "vote", "batch_update", uintPtr(round.CommunityID), round.ID,
		fmt.Sprintf("%d户设为%s", updated, req.VoteStatus))
	response.Success(c.Ctx, gin.H{"updated": updated})
}

// 6 InitVotes 为本小区缺少记录的业主补齐待投票记录
// @Summary      初始化投票
// @Description  为缺少记录的业主补齐待投票记录
// @Tags         Vote
// @Accept       json
// @Produce      json
// @Param        request body InitVotesRequest true "轮次"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/init [post]
func (c *VoteController) InitVotes() {
	var req InitVotesRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "请选择投票轮次")
		return
	}
	round, ok := c.loadRound(req.RoundID, true)
	if !ok {
		return
	}

	result, err := c.service().InitVotes(round)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "vote", "init", uintPtr(round.CommunityID), round.ID,
		fmt.Sprintf("新增%d条，共%d户", result.Created, result.Total))
	response.Success(c.Ctx, result)
}

// 7 ImportVotes 从表格导入投票结果
// @Summary      导入投票
// @Description  按房间号把表格中的投否列对账到本轮
// @Tags         Vote
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "投票表格"
// @Param        round_id formData integer true "轮次ID"
// @Param        status_column formData string false "投票状态列名"
// @Param        remark_column formData string false "备注列名"
// @Param        sweep_column formData string false "扫楼列名"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/import [post]
func (c *VoteController) ImportVotes() {
	roundID, err := strconv.ParseUint(c.Ctx.PostForm("round_id"), 10, 64)
	if err != nil || roundID == 0 {
		response.ParamError(c.Ctx, "请选择投票轮次")
		return
	}
	fh, err := c.Ctx.FormFile("file")
	if err != nil {
		response.ParamError(c.Ctx, "请上传文件")
		return
	}
	round, ok := c.loadRound(uint(roundID), true)
	if !ok {
		return
	}

	rows, err := readUploadRows(fh)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	opts := services.VoteImportOptions{
		StatusColumn: c.Ctx.PostForm("status_column"),
		RemarkColumn: c.Ctx.PostForm("remark_column"),
		SweepColumn:  c.Ctx.PostForm("sweep_column"),
	}
	result, err := c.service().ImportVotes(round, rows, opts, currentUser(c.Ctx).ID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "vote", "import", uintPtr(round.CommunityID), round.ID,
		fmt.Sprintf("%s: 成功%d 已投%d 待投%d 未匹配%d", fh.Filename, result.Success, result.Voted, result.Pending, result.NotFound))
	response.Success(c.Ctx, result)
}

// 8 ExportVotes 导出本轮投票明细
// @Summary      导出投票
// @Description  导出本轮投票明细 xlsx
// @Tags         Vote
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        round_id query integer true "轮次ID"
// @Security     BearerAuth
// @Success      200  {file}  file
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/export [get]
func (c *VoteController) ExportVotes() {
	round, ok := c.queryRound()
	if !ok {
		return
	}
	items, err := c.service().ExportVotes(round)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	communityService := c.Container.GetService("community").(services.InterfaceCommunityService)
	community, err := communityService.GetCommunityByID(round.CommunityID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	f, filename, err := services.BuildVoteExport(community, round, items)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	if err := sendWorkbook(c.Ctx, f, filename, fmt.Sprintf("votes_%d.xlsx", round.ID)); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	recordOperation(c.Ctx, c.Container, "vote", "export", uintPtr(round.CommunityID), round.ID, filename)
}

// unitRound 单元视图使用的轮次：未指定时取分期所属小区的当前轮次
func (c *VoteController) unitRound(q UnitQuery) (*models.VoteRound, bool) {
	communityService := c.Container.GetService("community").(services.InterfaceCommunityService)
	phase, err := communityService.GetPhaseByID(q.PhaseID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return nil, false
	}
	if !requireAccess(c.Ctx, phase.CommunityID) {
		return nil, false
	}
	round, err := c.rounds().ResolveRound(phase.CommunityID, q.RoundID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return nil, false
	}
	if round == nil {
		response.Fail(c.Ctx, code.ErrRoundNotFound)
		return nil, false
	}
	return round, true
}

// 9 GetUnitRooms 单元按楼层的投票视图
// @Summary      单元投票视图
// @Description  单元内业主按楼层分组的投票状态
// @Tags         Vote
// @Produce      json
// @Param        round_id query integer false "轮次ID，缺省时取当前轮次"
// @Param        phase_id query integer true "分期ID"
// @Param        building query string true "楼栋"
// @Param        unit query string true "单元"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/unit-rooms [get]
func (c *VoteController) GetUnitRooms() {
	var q UnitQuery
	if err := c.Ctx.ShouldBindQuery(&q); err != nil {
		response.ParamError(c.Ctx, "分期、楼栋和单元不能为空")
		return
	}
	round, ok := c.unitRound(q)
	if !ok {
		return
	}
	result, err := c.aggregation().GetUnitRooms(round, q.PhaseID, q.Building, q.Unit)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, result)
}

// 10 GetSweepUnitRooms 单元按楼层的扫楼视图
// @Summary      单元扫楼视图
// @Description  单元内业主按楼层分组的扫楼状态
// @Tags         Vote
// @Produce      json
// @Param        round_id query integer false "轮次ID，缺省时取当前轮次"
// @Param        phase_id query integer true "分期ID"
// @Param        building query string true "楼栋"
// @Param        unit query string true "单元"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/sweep-unit-rooms [get]
func (c *VoteController) GetSweepUnitRooms() {
	var q UnitQuery
	if err := c.Ctx.ShouldBindQuery(&q); err != nil {
		response.ParamError(c.Ctx, "分期、楼栋和单元不能为空")
		return
	}
	round, ok := c.unitRound(q)
	if !ok {
		return
	}
	result, err := c.aggregation().GetSweepUnitRooms(round, q.PhaseID, q.Building, q.Unit)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, result)
}

// overviewRound 总览使用的轮次，小区没有轮次时返回 nil
func (c *VoteController) overviewRound() (*models.VoteRound, bool) {
	communityID, ok := queryID(c.Ctx, "community_id")
	if !ok {
		return nil, false
	}
	if communityID == 0 {
		scope := services.ScopeCommunityID(currentUser(c.Ctx))
		if scope == nil {
			response.ParamError(c.Ctx, "请选择小区")
			return nil, false
		}
		communityID = *scope
	}
	if !requireAccess(c.Ctx, communityID) {
		return nil, false
	}
	roundID, ok := queryID(c.Ctx, "round_id")
	if !ok {
		return nil, false
	}

	round, err := c.rounds().ResolveRound(communityID, roundID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return nil, false
	}
	return round, true
}

// 11 GetProgress 投票进度总览
// @Summary      投票进度总览
// @Description  按分期、楼栋、单元汇总的投票进度
// @Tags         Vote
// @Produce      json
// @Param        community_id query integer false "小区ID，超级管理员必填"
// @Param        round_id query integer false "轮次ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/progress [get]
func (c *VoteController) GetProgress() {
	round, ok := c.overviewRound()
	if !ok {
		return
	}
	overview, err := c.aggregation().GetVoteOverview(round)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, overview)
}

// 12 GetSweepOverview 扫楼进度总览
// @Summary      扫楼进度总览
// @Description  按分期、楼栋、单元汇总的扫楼进度
// @Tags         Vote
// @Produce      json
// @Param        community_id query integer false "小区ID，超级管理员必填"
// @Param        round_id query integer false "轮次ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/sweep-overview [get]
func (c *VoteController) GetSweepOverview() {
	round, ok := c.overviewRound()
	if !ok {
		return
	}
	overview, err := c.aggregation().GetSweepOverview(round)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, overview)
}

// 13 UpdateSweep 更新单户扫楼状态
// @Summary      更新扫楼
// @Description  更新单户扫楼状态
// @Tags         Vote
// @Accept       json
// @Produce      json
// @Param        ownerId path integer true "业主ID"
// @Param        request body SweepRequest true "扫楼信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/sweep/{ownerId} [put]
func (c *VoteController) UpdateSweep() {
	ownerID, ok := paramID(c.Ctx, "ownerId")
	if !ok {
		return
	}
	var req SweepRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "轮次和扫楼状态不能为空")
		return
	}
	round, ok := c.loadRound(req.RoundID, true)
	if !ok {
		return
	}

	vote, err := c.service().UpdateSweep(round, ownerID, models.SweepStatus(req.SweepStatus), req.SweepRemark, currentUser(c.Ctx).ID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "sweep", "update", uintPtr(round.CommunityID), ownerID, req.SweepStatus)
	response.Success(c.Ctx, vote)
}

// 14 BatchSweep 批量更新扫楼状态
// @Summary      批量扫楼
// @Description  批量更新扫楼状态
// @Tags         Vote
// @Accept       json
// @Produce      json
// @Param        request body BatchSweepRequest true "批量扫楼"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/sweep-batch [post]
func (c *VoteController) BatchSweep() {
	var req BatchSweepRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "轮次、业主列表和扫楼状态不能为空")
		return
	}
	round, ok := c.loadRound(req.RoundID, true)
	if !ok {
		return
	}

	updated, err := c.service().BatchUpdateSweep(round, req.OwnerIDs, models.SweepStatus(req.SweepStatus), req.SweepRemark, currentUser(c.Ctx).ID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "sweep", "batch_update", uintPtr(round.CommunityID), round.ID,
		fmt.Sprintf("%d户设为%s", updated, req.SweepStatus))
	response.Success(c.Ctx, gin.H{"updated": updated})
}

// 15 GetStats 本轮投票统计
// @Summary      投票统计
// @Description  本轮户数、面积与各状态统计
// @Tags         Vote
// @Produce      json
// @Param        round_id query integer true "轮次ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /votes/stats [get]
func (c *VoteController) GetStats() {
	round, ok := c.queryRound()
	if !ok {
		return
	}
	stats, err := c.service().GetStats(round)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, stats)
}
