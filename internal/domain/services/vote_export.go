package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"hoa-vote-service/internal/domain/excel"
	"hoa-vote-service/internal/domain/models"
)

// BuildVoteExport 生成本轮投票明细工作簿与下载文件名，调用方负责 Close
func BuildVoteExport(community *models.Community, round *models.VoteRound, items []VoteListItem) (*excelize.File, string, error) {
	rows := make([]excel.VoteExportRow, len(items))
	for i, it := range items {
		rows[i] = excel.VoteExportRow{
			PhaseName:    it.PhaseName,
			Building:     it.Building,
			Unit:         it.Unit,
			Room:         it.Room,
			RoomNumber:   it.RoomNumber,
			OwnerName:    it.OwnerName,
			Area:         it.Area,
			Phone1:       it.Phone1,
			Phone2:       it.Phone2,
			Phone3:       it.Phone3,
			WechatStatus: it.WechatStatus,
			HouseStatus:  it.HouseStatus,
			VoteStatus:   it.VoteStatus,
			VotePhone:    deref(it.VotePhone),
			VoteDate:     it.VoteDate,
			SweepStatus:  it.SweepStatus,
			Remark:       deref(it.Remark),
		}
	}

	f, err := excel.BuildVoteWorkbook(round.RoundCode, rows)
	if err != nil {
		return nil, "", err
	}

	communityName := ""
	if community != nil {
		communityName = community.Name
	}
	filename := fmt.Sprintf("%s_%s_投票明细.xlsx", communityName, round.Name)
	return f, filename, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
