package excel

import (
	"errors"
	"strconv"
	"strings"

	"hoa-vote-service/internal/domain/models"
)

// OwnerTemplateHeaders 业主导入模板表头
var OwnerTemplateHeaders = []string{
	"序号", "房间号", "姓名", "面积", "车位号", "车位面积",
	"联系电话1", "联系电话2", "联系电话3", "群状态", "微信沟通人", "房屋状态", "备注",
}

// OwnerColumns 业主表各字段所在列，-1 表示缺失
type OwnerColumns struct {
	SeqNo         int
	RoomNumber    int
	OwnerName     int
	Area          int
	ParkingNo     int
	ParkingArea   int
	Phone1        int
	Phone2        int
	Phone3        int
	WechatStatus  int
	WechatContact int
	HouseStatus   int
	Remark        int
}

// MapOwnerHeaders 将中文表头映射为字段列号
func MapOwnerHeaders(headers []string) (OwnerColumns, error) {
	find := func(exact []string, subs ...string) int {
		idx, _ := FindColumn(headers, exact, subs)
		return idx
	}

	cols := OwnerColumns{
		SeqNo:         find([]string{"序号"}),
		OwnerName:     find([]string{"姓名", "业主姓名"}, "姓名"),
		ParkingNo:     find([]string{"车位号"}, "车位号"),
		ParkingArea:   find([]string{"车位面积"}, "车位面积"),
		Phone2:        find([]string{"联系电话2"}, "电话2"),
		Phone3:        find([]string{"联系电话3"}, "电话3"),
		WechatStatus:  find([]string{"群状态"}, "群状态"),
		WechatContact: find([]string{"微信沟通人"}, "沟通人"),
		HouseStatus:   find([]string{"房屋状态"}, "房屋状态"),
		Remark:        find([]string{"备注"}, "备注"),
	}
	cols.RoomNumber, _ = FindRoomNumberColumn(headers)
	cols.Phone1 = find([]string{"联系电话1", "联系电话"}, "电话1")

	// 面积列需要排除"车位面积"
	cols.Area = -1
	for i, h := range headers {
		name := cleanHeader(h)
		if i == cols.ParkingArea {
			continue
		}
		if name == "面积" {
			cols.Area = i
			break
		}
		if cols.Area < 0 && strings.Contains(name, "面积") {
			cols.Area = i
		}
	}

	if cols.RoomNumber < 0 {
		return cols, errors.New("未找到房间号列")
	}
	return cols, nil
}

// ParseOwnerRow 把一行数据转换为业主记录（未设置 PhaseID）
func ParseOwnerRow(cols OwnerColumns, row []string) (models.Owner, error) {
	roomNumber := CellAt(row, cols.RoomNumber)
	if roomNumber == "" {
		return models.Owner{}, errors.New("房间号为空")
	}
	building, unit, room, ok := ParseRoomNumber(roomNumber)
	if !ok {
		return models.Owner{}, errors.New("房间号格式无效: " + roomNumber)
	}

	owner := models.Owner{
		Building:      building,
		Unit:          unit,
		Room:          room,
		RoomNumber:    roomNumber,
		OwnerName:     CellAt(row, cols.OwnerName),
		ParkingNo:     CellAt(row, cols.ParkingNo),
		Phone1:        CellAt(row, cols.Phone1),
		Phone2:        CellAt(row, cols.Phone2),
		Phone3:        CellAt(row, cols.Phone3),
		WechatStatus:  CellAt(row, cols.WechatStatus),
		WechatContact: CellAt(row, cols.WechatContact),
		HouseStatus:   CellAt(row, cols.HouseStatus),
		Remark:        CellAt(row, cols.Remark),
	}
	if seq, err := strconv.Atoi(CellAt(row, cols.SeqNo)); err == nil {
		owner.SeqNo = seq
	}
	if raw := CellAt(row, cols.Area); raw != "" {
		area, ok := ParseArea(raw)
		if !ok {
			return models.Owner{}, errors.New("面积格式无效: " + raw)
		}
		owner.Area = area
	}
	if area, ok := ParseArea(CellAt(row, cols.ParkingArea)); ok {
		owner.ParkingArea = area
	}
	return owner, nil
}

// IsBlankRow 整行均为空
func IsBlankRow(row []string) bool {
	for i := range row {
		if CellAt(row, i) != "" {
			return false
		}
	}
	return true
}
