package model

import (
	"strings"
	"time"
)

// InvalidStatus 未匹配任何关键词时的展示文本
const InvalidStatus = "Invalid"

// OfficialStatus 正式状态（Valid(code) | Invalid）
type OfficialStatus struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
}

// ValidStatus 构造有效状态
func ValidStatus(code string) OfficialStatus {
	return OfficialStatus{Code: code, Valid: true}
}

// Invalid 构造无效状态
func Invalid() OfficialStatus {
	return OfficialStatus{}
}

// String 展示文本，无效状态显示 Invalid
func (s OfficialStatus) String() string {
	if !s.Valid {
		return InvalidStatus
	}
	return s.Code
}

// Is 判断是否为指定的有效状态
func (s OfficialStatus) Is(code string) bool {
	return s.Valid && s.Code == code
}

// InformalCode 非正式日表代码；Present 表示写入中性数字标记 1
type InformalCode struct {
	Code    string `json:"code"`
	Present bool   `json:"present"`
}

// PresentMarker 日表中性标记
const PresentMarker = 1

// Defined 是否已定义（未匹配时为零值）
func (c InformalCode) Defined() bool {
	return c.Present || c.Code != ""
}

// Value 写入单元格的值
func (c InformalCode) Value() any {
	if c.Present {
		return PresentMarker
	}
	return c.Code
}

// String 展示文本
func (c InformalCode) String() string {
	if c.Present {
		return "1"
	}
	return c.Code
}

// Period 半天时段
type Period int

const (
	PeriodNone Period = iota
	PeriodAM
	PeriodPM
)

// String 时段文本
func (p Period) String() string {
	switch p {
	case PeriodAM:
		return "AM"
	case PeriodPM:
		return "PM"
	default:
		return ""
	}
}

// DateLayout 名册日期单元格格式 dd/mm/yy
const DateLayout = "02/01/06"

// DateRange 日期范围；单日时 Start == End 且 IsRange 为 false
type DateRange struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	StartPeriod Period    `json:"startPeriod"`
	EndPeriod   Period    `json:"endPeriod"`
	IsRange     bool      `json:"isRange"`
}

// Empty 是否未解析出任何日期
func (r DateRange) Empty() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Text 渲染为名册 Date 列文本，如 "15/05/25 (PM) - 17/05/25 (AM)"
func (r DateRange) Text() string {
	if r.Empty() {
		return ""
	}
	if !r.IsRange {
		return withPeriod(formatDate(r.Start), r.StartPeriod)
	}
	return withPeriod(formatDate(r.Start), r.StartPeriod) + " - " + withPeriod(formatDate(r.End), r.EndPeriod)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func withPeriod(date string, p Period) string {
	if date == "" || p == PeriodNone {
		return date
	}
	return date + " (" + p.String() + ")"
}

// NameList 人员列表（NamedList | AllUnresolvedMarker）
type NameList struct {
	Names []string `json:"names"`
	All   bool     `json:"all"`
}

// AllNames 构造 "all" 标记
func AllNames() NameList {
	return NameList{All: true}
}

// Len 姓名数量（All 时为 0）
func (l NameList) Len() int {
	return len(l.Names)
}

// String 展示文本
func (l NameList) String() string {
	if l.All {
		return "ALL"
	}
	if len(l.Names) == 0 {
		return "None"
	}
	return strings.Join(l.Names, ", ")
}

// StatusUpdate 一条消息解析出的结构化更新
type StatusUpdate struct {
	OfficialStatus  OfficialStatus  `json:"officialStatus"`
	InformalStatus  InformalCode    `json:"informalStatus"`
	Location        string          `json:"location"`
	Names           NameList        `json:"names"`
	DateRange       DateRange       `json:"dateRange"`
	DateText        string          `json:"dateText"`
	Reason          string          `json:"reason"`
	OfficialTargets []SheetSlot     `json:"officialTargets"`
	InformalTargets []InformalSheet `json:"informalTargets"`
}

// TargetsOfficial 是否包含某个正式表
func (u *StatusUpdate) TargetsOfficial(slot SheetSlot) bool {
	for _, s := range u.OfficialTargets {
		if s == slot {
			return true
		}
	}
	return false
}

// HasInformal 是否包含某张日表
func (u *StatusUpdate) HasInformal(sheet InformalSheet) bool {
	for _, s := range u.InformalTargets {
		if s == sheet {
			return true
		}
	}
	return false
}
