package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetSlot 正式表时段
type SheetSlot string

const (
	SlotAM    SheetSlot = "AM"
	SlotPM    SheetSlot = "PM"
	SlotNight SheetSlot = "NIGHT"
)

// OfficialSlots 正式表固定处理顺序
var OfficialSlots = []SheetSlot{SlotAM, SlotPM, SlotNight}

// SheetName 正式表工作表名称
func (s SheetSlot) SheetName() string {
	return string(s)
}

// Rank 时段先后（AM < PM < NIGHT）
func (s SheetSlot) Rank() int {
	switch s {
	case SlotAM:
		return 0
	case SlotPM:
		return 1
	case SlotNight:
		return 2
	default:
		return -1
	}
}

// InformalSheet 非正式按月日表（每月 AM/PM 各一张）
type InformalSheet struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Slot  SheetSlot  `json:"slot"`
}

// Name 日表工作表名称，如 "May AM"
func (s InformalSheet) Name() string {
	return fmt.Sprintf("%s %s", s.Month.String()[:3], s.Slot)
}

// LastDay 当月最后一天
func (s InformalSheet) LastDay() int {
	return DaysIn(s.Year, s.Month)
}

// DaysIn 某年某月天数
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// 名册固定偏移：表头在第 2 行（索引 1），正式表数据自第 3 行（索引 2）开始
const (
	HeaderRowIndex = 1
	DataRowIndex   = 2
)

// 正式表列名
const (
	ColPlatoon  = "Platoon"
	ColName     = "Name"
	ColStatus   = "Status"
	ColDate     = "Date"
	ColRemarks  = "Remarks"
	ColLocation = "Location"
)

// ErrMissingColumn 目标表缺少必需列
var ErrMissingColumn = errors.New("missing column")

// RosterGrid 名册二维快照（外部存储读取结果，只读）
type RosterGrid [][]string

// Cell 安全读取单元格，越界返回空串
func (g RosterGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return strings.TrimSpace(g[row][col])
}

// Header 表头行
func (g RosterGrid) Header() []string {
	if len(g) <= HeaderRowIndex {
		return nil
	}
	return g[HeaderRowIndex]
}

// Columns 按列名定位表头，缺列时返回包装了 ErrMissingColumn 的错误
func (g RosterGrid) Columns(names ...string) (map[string]int, error) {
	header := g.Header()
	out := make(map[string]int, len(names))
	var missing []string
	for _, name := range names {
		idx := headerIndex(header, name)
		if idx < 0 {
			missing = append(missing, name)
			continue
		}
		out[name] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return out, nil
}

func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// CellName 由 0 基列/行索引生成 A1 地址（列按 A..Z, AA.. 的 26 进制）
func CellName(col, row int) (string, error) {
	return excelize.CoordinatesToCellName(col+1, row+1)
}

// RosterRow 正式表中的一行人员记录
type RosterRow struct {
	Index    int    `json:"index"` // 网格行索引（0 基）
	Platoon  string `json:"platoon"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	DateText string `json:"dateText"`
}

// OfficialRows 从正式表网格提取人员行；排内合并单元格的 Platoon 向下填充
func OfficialRows(g RosterGrid, cols map[string]int) []RosterRow {
	var rows []RosterRow
	platoon := ""
	platoonCol, hasPlatoon := cols[ColPlatoon]
	for i := DataRowIndex; i < len(g); i++ {
		if p := g.Cell(i, platoonCol); hasPlatoon && p != "" {
			platoon = p
		}
		name := g.Cell(i, cols[ColName])
		if name == "" {
			continue
		}
		row := RosterRow{Index: i, Platoon: platoon, Name: name}
		if idx, ok := cols[ColStatus]; ok {
			row.Status = g.Cell(i, idx)
		}
		if idx, ok := cols[ColDate]; ok {
			row.DateText = g.Cell(i, idx)
		}
		rows = append(rows, row)
	}
	return rows
}

// InformalRows 从日表网格提取人员行；跳过表中重复出现的表头行
func InformalRows(g RosterGrid, nameCol int) []RosterRow {
	var rows []RosterRow
	for i := HeaderRowIndex + 1; i < len(g); i++ {
		name := g.Cell(i, nameCol)
		if name == "" || strings.EqualFold(name, ColName) {
			continue
		}
		rows = append(rows, RosterRow{Index: i, Name: name})
	}
	return rows
}

// DayColumns 日表表头中的日期列（日 -> 列索引）
func DayColumns(g RosterGrid) map[int]int {
	out := make(map[int]int)
	for i, h := range g.Header() {
		h = strings.TrimSpace(h)
		day, err := strconv.Atoi(h)
		if err != nil || day < 1 || day > 31 {
			continue
		}
		if _, ok := out[day]; !ok {
			out[day] = i
		}
	}
	return out
}
