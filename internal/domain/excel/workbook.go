package excel

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"hoa-vote-service/internal/domain/models"
)

// ErrUnsupportedFile 文件类型不支持
var ErrUnsupportedFile = errors.New("仅支持 .xlsx 或 .csv 文件")

const utf8BOM = "\xef\xbb\xbf"

// VoteSheetName 导出工作表名称
const VoteSheetName = "投票明细"

var voteStatusLabels = map[models.VoteStatus]string{
	models.VoteStatusPending: "待投票",
	models.VoteStatusVoted:   "已投票",
	models.VoteStatusOnsite:  "现场投票",
	models.VoteStatusVideo:   "视频投票",
	models.VoteStatusRefused: "拒绝投票",
}

var sweepStatusLabels = map[models.SweepStatus]string{
	models.SweepStatusPending:    "待扫楼",
	models.SweepStatusInProgress: "扫楼中",
	models.SweepStatusCompleted:  "已完成",
}

// VoteStatusLabel 投票状态中文名，未知状态原样返回
func VoteStatusLabel(s models.VoteStatus) string {
	if label, ok := voteStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// SweepStatusLabel 扫楼状态中文名
func SweepStatusLabel(s models.SweepStatus) string {
	if label, ok := sweepStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ReadRows 读取上传文件的全部行。xlsx 取第一个工作表；
// csv 支持带 BOM 的 UTF-8，无法按 UTF-8 解析时按 GBK 解码。
func ReadRows(r io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readWorkbookRows(r)
	case ".csv":
		return readCSVRows(r)
	}
	return nil, ErrUnsupportedFile
}

func readWorkbookRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析Excel文件失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("Excel文件中没有工作表")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	return rows, nil
}

func readCSVRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取CSV文件失败: %w", err)
	}

	var src io.Reader
	switch {
	case bytes.HasPrefix(data, []byte(utf8BOM)):
		src = bytes.NewReader(data[len(utf8BOM):])
	case utf8.Valid(data):
		src = bytes.NewReader(data)
	default:
		// Excel 中文版另存的 CSV 默认为 GBK
		src = transform.NewReader(bytes.NewReader(data), simplifiedchinese.GBK.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析CSV文件失败: %w", err)
	}
	return rows, nil
}

// VotedColumnHeader 导出与导入共用的投否列名
func VotedColumnHeader(roundCode string) string {
	return roundCode + "投否"
}

// ExportHeaders 投票明细导出表头（19 列）
func ExportHeaders(roundCode string) []string {
	return []string{
		"序号", "期数", "楼栋", "单元", "户室", "房间号", "业主姓名", "面积",
		"联系电话1", "联系电话2", "联系电话3", "群状态", "房屋状态",
		"投票状态", VotedColumnHeader(roundCode), "投票电话", "投票日期", "扫楼状态", "备注",
	}
}

// VoteExportRow 导出的一行数据
type VoteExportRow struct {
	PhaseName    string
	Building     string
	Unit         string
	Room         string
	RoomNumber   string
	OwnerName    string
	Area         float64
	Phone1       string
	Phone2       string
	Phone3       string
	WechatStatus string
	HouseStatus  string
	VoteStatus   models.VoteStatus
	VotePhone    string
	VoteDate     *time.Time
	SweepStatus  models.SweepStatus
	Remark       string
}

func (r VoteExportRow) values(seq int) []interface{} {
	voted := "否"
	if r.VoteStatus.Counted() {
		voted = "是"
	}
	voteDate := ""
	if r.VoteDate != nil {
		voteDate = r.VoteDate.Format("2006-01-02")
	}
	return []interface{}{
		seq, r.PhaseName, r.Building, r.Unit, r.Room, r.RoomNumber, r.OwnerName, r.Area,
		r.Phone1, r.Phone2, r.Phone3, r.WechatStatus, r.HouseStatus,
		VoteStatusLabel(r.VoteStatus), voted, r.VotePhone, voteDate,
		SweepStatusLabel(r.SweepStatus), r.Remark,
	}
}

// BuildVoteWorkbook 生成投票明细工作簿，调用方负责 Close
func BuildVoteWorkbook(roundCode string, rows []VoteExportRow) (*excelize.File, error) {
	headers := ExportHeaders(roundCode)
	f, err := newSheetWithHeaders(VoteSheetName, headers)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row.values(i + 1)
		if err := f.SetSheetRow(VoteSheetName, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// BuildOwnerTemplate 生成业主导入模板
func BuildOwnerTemplate() (*excelize.File, error) {
	const sheet = "业主信息"
	f, err := newSheetWithHeaders(sheet, OwnerTemplateHeaders)
	if err != nil {
		return nil, err
	}
	example := []interface{}{1, "1-1-101", "张三", 89.5, "A-001", 12.5, "13800000000", "", "", "已进群", "李四", "自住", ""}
	if err := f.SetSheetRow(sheet, "A2", &example); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func newSheetWithHeaders(sheet string, headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}

	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		f.Close()
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", style); err != nil {
		f.Close()
		return nil, err
	}
	_ = f.SetColWidth(sheet, "A", lastCol, 14)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return f, nil
}
