package controllers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/domain/excel"
	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/error/code"
	"hoa-vote-service/internal/error/response"
)

// InterfaceOwnerController 定义业主控制器接口
type InterfaceOwnerController interface {
	GetOwners()
	GetOwner()
	CreateOwner()
	UpdateOwner()
	DeleteOwner()
	GetBuildings()
	ImportOwners()
	DownloadTemplate()
}

// OwnerController 业主控制器
type OwnerController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewOwnerController 创建一个新的业主控制器
func NewOwnerController(ctx *gin.Context, container *container.ServiceContainer) *OwnerController {
	return &OwnerController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateOwnerRequest 创建业主请求
type CreateOwnerRequest struct {
	PhaseID       uint    `json:"phase_id" binding:"required"`
	SeqNo         int     `json:"seq_no"`
	Building      string  `json:"building"`
	Unit          string  `json:"unit"`
	Room          string  `json:"room"`
	RoomNumber    string  `json:"room_number" binding:"required,max=50"`
	OwnerName     string  `json:"owner_name"`
	Area          float64 `json:"area" binding:"gte=0"`
	ParkingNo     string  `json:"parking_no"`
	ParkingArea   float64 `json:"parking_area" binding:"gte=0"`
	Phone1        string  `json:"phone1"`
	Phone2        string  `json:"phone2"`
	Phone3        string  `json:"phone3"`
	WechatStatus  string  `json:"wechat_status"`
	WechatContact string  `json:"wechat_contact"`
	HouseStatus   string  `json:"house_status"`
	Remark        string  `json:"remark"`
}

// UpdateOwnerRequest 更新业主请求，未提供的字段保持不变
type UpdateOwnerRequest struct {
	SeqNo         *int     `json:"seq_no"`
	Building      *string  `json:"building"`
	Unit          *string  `json:"unit"`
	Room          *string  `json:"room"`
	RoomNumber    *string  `json:"room_number" binding:"omitempty,min=1,max=50"`
	OwnerName     *string  `json:"owner_name"`
	Area          *float64 `json:"area" binding:"omitempty,gte=0"`
	ParkingNo     *string  `json:"parking_no"`
	ParkingArea   *float64 `json:"parking_area" binding:"omitempty,gte=0"`
	Phone1        *string  `json:"phone1"`
	Phone2        *string  `json:"phone2"`
	Phone3        *string  `json:"phone3"`
	WechatStatus  *string  `json:"wechat_status"`
	WechatContact *string  `json:"wechat_contact"`
	HouseStatus   *string  `json:"house_status"`
	Remark        *string  `json:"remark"`
}

func (r UpdateOwnerRequest) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	set := func(column string, v interface{}, present bool) {
		if present {
			updates[column] = v
		}
	}
	if r.SeqNo != nil {
		set("seq_no", *r.SeqNo, true)
	}
	if r.Area != nil {
		set("area", *r.Area, true)
	}
	if r.ParkingArea != nil {
		set("parking_area", *r.ParkingArea, true)
	}
	for column, v := range map[string]*string{
		"building":       r.Building,
		"unit":           r.Unit,
		"room":           r.Room,
		"room_number":    r.RoomNumber,
		"owner_name":     r.OwnerName,
		"parking_no":     r.ParkingNo,
		"phone1":         r.Phone1,
		"phone2":         r.Phone2,
		"phone3":         r.Phone3,
		"wechat_status":  r.WechatStatus,
		"wechat_contact": r.WechatContact,
		"house_status":   r.HouseStatus,
		"remark":         r.Remark,
	} {
		if v != nil {
			set(column, *v, true)
		}
	}

	// 只改房间号时同步拆分出的楼栋、单元、房号
	if r.RoomNumber != nil && r.Building == nil && r.Unit == nil && r.Room == nil {
		if b, u, room, ok := excel.ParseRoomNumber(*r.RoomNumber); ok {
			updates["building"], updates["unit"], updates["room"] = b, u, room
		}
	}
	return updates
}

// HandleOwnerFunc 返回一个处理业主请求的Gin处理函数
func HandleOwnerFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewOwnerController(ctx, container)

		switch method {
		case "getOwners":
			controller.GetOwners()
		case "getOwner":
			controller.GetOwner()
		case "createOwner":
			controller.CreateOwner()
		case "updateOwner":
			controller.UpdateOwner()
		case "deleteOwner":
			controller.DeleteOwner()
		case "getBuildings":
			controller.GetBuildings()
		case "importOwners":
			controller.ImportOwners()
		case "downloadTemplate":
			controller.DownloadTemplate()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法")
		}
	}
}

func (c *OwnerController) service() services.InterfaceOwnerService {
	return c.Container.GetService("owner").(services.InterfaceOwnerService)
}

// phaseCommunity 分期所属小区
func (c *OwnerController) phaseCommunity(phaseID uint) (uint, bool) {
	communityService := c.Container.GetService("community").(services.InterfaceCommunityService)
	phase, err := communityService.GetPhaseByID(phaseID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return 0, false
	}
	return phase.CommunityID, true
}

// ownerCommunity 业主所属小区
func (c *OwnerController) ownerCommunity(ownerID uint) (uint, bool) {
	communityID, err := c.service().CommunityIDOfOwner(ownerID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return 0, false
	}
	return communityID, true
}

// 1 GetOwners 业主列表；非超级管理员只能查询本小区
// @Summary      业主列表
// @Description  按小区、分期、楼栋、单元与关键字筛选
// @Tags         Owner
// @Produce      json
// @Param        page query integer false "页码，默认为1"
// @Param        page_size query integer false "每页条数，默认为20，最大500"
// @Param        community_id query integer false "小区ID"
// @Param        phase_id query integer false "分期ID"
// @Param        building query string false "楼栋"
// @Param        unit query string false "单元"
// @Param        keyword query string false "姓名、房间号或电话关键字"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /owners [get]
func (c *OwnerController) GetOwners() {
	var filter services.OwnerFilter
	if err := c.Ctx.ShouldBindQuery(&filter); err != nil {
		response.ParamError(c.Ctx, "查询参数无效")
		return
	}
	user := currentUser(c.Ctx)
	if scope := services.ScopeCommunityID(user); scope != nil {
		if filter.CommunityID != nil && *filter.CommunityID != *scope {
			response.Forbidden(c.Ctx)
			return
		}
		filter.CommunityID = scope
	}

	owners, total, err := c.service().GetOwners(filter)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	filter.Normalize()
	response.Page(c.Ctx, owners, total, filter.Page, filter.PageSize)
}

// 2 GetOwner 业主详情
// @Summary      业主详情
// @Description  根据ID获取业主
// @Tags         Owner
// @Produce      json
// @Param        id path integer true "业主ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /owners/{id} [get]
func (c *OwnerController) GetOwner() {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return
	}
	owner, err := c.service().GetOwnerByID(id)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	if owner.Phase == nil {
		response.Fail(c.Ctx, code.ErrPhaseNotFound)
		return
	}
	if !requireAccess(c.Ctx, owner.Phase.CommunityID) {
		return
	}
	response.Success(c.Ctx, owner)
}

// 3 CreateOwner 创建业主
// @Summary      创建业主
// @Description  房间号在分期内唯一
// @Tags         Owner
// @Accept       json
// @Produce      json
// @Param        request body CreateOwnerRequest true "业主信息"
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /owners [post]
func (c *OwnerController) CreateOwner() {
	var req CreateOwnerRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "分期和房间号不能为空")
		return
	}
	communityID, ok := c.phaseCommunity(req.PhaseID)
	if !ok || !requireManage(c.Ctx, communityID) {
		return
	}

	owner := &models.Owner{
		PhaseID:       req.PhaseID,
		SeqNo:         req.SeqNo,
		Building:      req.Building,
		Unit:          req.Unit,
		Room:          req.Room,
		RoomNumber:    req.RoomNumber,
		OwnerName:     req.OwnerName,
		Area:          req.Area,
		ParkingNo:     req.ParkingNo,
		ParkingArea:   req.ParkingArea,
		Phone1:        req.Phone1,
		Phone2:        req.Phone2,
		Phone3:        req.Phone3,
		WechatStatus:  req.WechatStatus,
		WechatContact: req.WechatContact,
		HouseStatus:   req.HouseStatus,
		Remark:        req.Remark,
	}
	if err := c.service().CreateOwner(owner); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "owner", "create", uintPtr(communityID), owner.ID, owner.RoomNumber)
	response.Created(c.Ctx, owner)
}

// 4 UpdateOwner 更新业主
// @Summary      更新业主
// @Description  未提供的字段保持不变
// @Tags         Owner
// @Accept       json
// @Produce      json
// @Param        id path integer true "业主ID"
// @Param        request body UpdateOwnerRequest true "业主信息"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /owners/{id} [put]
func (c *OwnerController) UpdateOwner() {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return
	}
	communityID, ok := c.ownerCommunity(id)
	if !ok || !requireManage(c.Ctx, communityID) {
		return
	}
	var req UpdateOwnerRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "请求参数无效")
		return
	}

	owner, err := c.service().UpdateOwner(id, req.updates())
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "owner", "update", uintPtr(communityID), id, owner.RoomNumber)
	response.Success(c.Ctx, owner)
}

// 5 DeleteOwner 删除业主及其投票记录
// @Summary      删除业主
// @Description  同时删除该业主的全部投票记录
// @Tags         Owner
// @Produce      json
// @Param        id path integer true "业主ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /owners/{id} [delete]
func (c *OwnerController) DeleteOwner() {
	id, ok := paramID(c.Ctx, "id")
	if !ok {
		return
	}
	communityID, ok := c.ownerCommunity(id)
	if !ok || !requireManage(c.Ctx, communityID) {
		return
	}
	if err := c.service().DeleteOwner(id); err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "owner", "delete", uintPtr(communityID), id, "")
	response.Success(c.Ctx, nil)
}

// 6 GetBuildings 分期下的楼栋与单元
// @Summary      楼栋与单元
// @Description  分期下的楼栋及单元，按数字顺序
// @Tags         Owner
// @Produce      json
// @Param        phaseId path integer true "分期ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /owners/buildings/{phaseId} [get]
func (c *OwnerController) GetBuildings() {
	phaseID, ok := paramID(c.Ctx, "phaseId")
	if !ok {
		return
	}
	communityID, ok := c.phaseCommunity(phaseID)
	if !ok || !requireAccess(c.Ctx, communityID) {
		return
	}
	buildings, err := c.service().GetBuildings(phaseID)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	response.Success(c.Ctx, buildings)
}

// 7 ImportOwners 从 Excel 或 CSV 导入业主
// @Summary      导入业主
// @Description  上传 xlsx 或 csv，按房间号新增或更新
// @Tags         Owner
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "业主表格"
// @Param        phase_id formData integer true "分期ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /owners/import [post]
func (c *OwnerController) ImportOwners() {
	phaseID, err := strconv.ParseUint(c.Ctx.PostForm("phase_id"), 10, 64)
	if err != nil || phaseID == 0 {
		response.ParamError(c.Ctx, "请选择分期")
		return
	}
	fh, err := c.Ctx.FormFile("file")
	if err != nil {
		response.ParamError(c.Ctx, "请上传文件")
		return
	}
	communityID, ok := c.phaseCommunity(uint(phaseID))
	if !ok || !requireManage(c.Ctx, communityID) {
		return
	}

	rows, err := readUploadRows(fh)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	result, err := c.service().ImportOwners(uint(phaseID), rows)
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}

	recordOperation(c.Ctx, c.Container, "owner", "import", uintPtr(communityID), phaseID,
		fmt.Sprintf("%s: 成功%d 新增%d 更新%d 失败%d", fh.Filename, result.Success, result.Created, result.Updated, result.Failed))
	response.Success(c.Ctx, result)
}

// 8 DownloadTemplate 下载业主导入模板
// @Summary      下载导入模板
// @Description  业主导入模板 xlsx
// @Tags         Owner
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200  {file}  file
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /owners/import-template [get]
func (c *OwnerController) DownloadTemplate() {
	f, err := excel.BuildOwnerTemplate()
	if err != nil {
		handleError(c.Ctx, c.Container, err)
		return
	}
	if err := sendWorkbook(c.Ctx, f, "业主导入模板.xlsx", "owner_template.xlsx"); err != nil {
		handleError(c.Ctx, c.Container, err)
	}
}
