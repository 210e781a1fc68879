// Package excel 提供与 I/O 无关的表格处理函数：表头识别、房间号规范化、
// 单元格取值解析，以及导入导出所用的工作簿读写。
package excel

import (
	"strconv"
	"strings"
	"unicode"

	"hoa-vote-service/internal/domain/models"
)

// 表头识别最多向下扫描的行数（表格上方可能有标题行）
const headerScanLimit = 10

// FindColumn 在表头中查找列：先按 exact 精确匹配（去除首尾空白），
// 再按 substrings 的优先顺序做包含匹配，同一关键字取最左边的列。
func FindColumn(headers []string, exact []string, substrings []string) (int, bool) {
	for _, want := range exact {
		for i, h := range headers {
			if cleanHeader(h) == want {
				return i, true
			}
		}
	}
	for _, sub := range substrings {
		for i, h := range headers {
			if strings.Contains(cleanHeader(h), sub) {
				return i, true
			}
		}
	}
	return -1, false
}

// FindRoomNumberColumn 房间号列：精确"房间号"，否则包含"房间"或"房号"
func FindRoomNumberColumn(headers []string) (int, bool) {
	return FindColumn(headers, []string{"房间号"}, []string{"房间", "房号"})
}

// FindVoteStatusColumn 投票状态列：显式指定时只做精确匹配，否则包含"投否"
func FindVoteStatusColumn(headers []string, explicit string) (int, bool) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return FindColumn(headers, []string{explicit}, nil)
	}
	return FindColumn(headers, nil, []string{"投否"})
}

// FindRemarkColumn 备注列
func FindRemarkColumn(headers []string, explicit string) (int, bool) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return FindColumn(headers, []string{explicit}, nil)
	}
	return FindColumn(headers, nil, []string{"备注"})
}

// FindSweepColumn 扫楼列
func FindSweepColumn(headers []string, explicit string) (int, bool) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return FindColumn(headers, []string{explicit}, nil)
	}
	return FindColumn(headers, nil, []string{"扫楼"})
}

// FindHeaderRow 返回第一行能识别出房间号列的行号
func FindHeaderRow(rows [][]string) (int, bool) {
	for i := 0; i < len(rows) && i < headerScanLimit; i++ {
		if _, ok := FindRoomNumberColumn(rows[i]); ok {
			return i, true
		}
	}
	return -1, false
}

// NormalizeRoomNumber 去除空白与各类连字符，使 "1-1-101"、"1 - 1 - 101"、"11101" 对齐
func NormalizeRoomNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || isHyphen(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseRoomNumber 将 "楼栋-单元-房号" 拆分；只有两段时视为 "楼栋-房号"
func ParseRoomNumber(roomNumber string) (building, unit, room string, ok bool) {
	parts := strings.FieldsFunc(strings.TrimSpace(roomNumber), isHyphen)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch {
	case len(parts) >= 3:
		return parts[0], parts[1], strings.Join(parts[2:], "-"), true
	case len(parts) == 2:
		return parts[0], "", parts[1], true
	case len(parts) == 1 && parts[0] != "":
		return "", "", parts[0], true
	}
	return "", "", "", false
}

// ParseArea 解析面积，去掉前导 "+" 与常见单位
func ParseArea(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	for _, unit := range []string{"平方米", "㎡", "m²", "m2"} {
		s = strings.TrimSuffix(s, unit)
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsVotedCell 投票列取值为 1 或 "是" 时视为已投票，其余一律为未投票
func IsVotedCell(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || v == "是"
}

// ParseSweepCell 解析扫楼列，空值或无法识别时返回 false（保留原值）
func ParseSweepCell(v string) (models.SweepStatus, bool) {
	switch strings.TrimSpace(v) {
	case "":
		return "", false
	case string(models.SweepStatusCompleted), "已完成", "已扫楼", "已扫", "是", "1":
		return models.SweepStatusCompleted, true
	case string(models.SweepStatusInProgress), "扫楼中", "进行中":
		return models.SweepStatusInProgress, true
	case string(models.SweepStatusPending), "待扫楼", "未扫", "否", "0":
		return models.SweepStatusPending, true
	}
	return "", false
}

// CellAt 安全取值，越界返回空串
func CellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

func isHyphen(r rune) bool {
	switch r {
	case '-', '－', '‐', '‑', '–', '—', '_':
		return true
	}
	return false
}
