package parser

import (
	"errors"
	"fmt"
	"strings"

	"paradestate/internal/model"
)

// ErrNoStatusLine 消息中没有 Status 行（解析失败标记）
var ErrNoStatusLine = errors.New("no status line found")

// Field 单条抽取规则的结果：可选值 + 原始匹配片段
type Field struct {
	Value string `json:"value"`
	Raw   string `json:"raw"`
	Found bool   `json:"found"`
}

// Extraction 一条消息的完整抽取结果（结构化更新 + 供人工确认展示的中间值）
type Extraction struct {
	Update model.StatusUpdate `json:"update"`

	RawStatus   Field    `json:"rawStatus"`
	RawLocation Field    `json:"rawLocation"`
	RawNames    []string `json:"rawNames"`
	RawDate     Field    `json:"rawDate"`
	Reason      Field    `json:"reason"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Invalid 状态是否未命中分类表
func (e *Extraction) Invalid() bool {
	return !e.Update.OfficialStatus.Valid
}

func (e *Extraction) warn(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Summary 渲染确认消息
func (e *Extraction) Summary() string {
	u := e.Update
	var b strings.Builder
	if e.Invalid() {
		fmt.Fprintf(&b, "❌ Invalid status detected: '%s'\n", e.RawStatus.Value)
	}
	fmt.Fprintf(&b, "📌 Status: %s\n", u.OfficialStatus)
	fmt.Fprintf(&b, "📍 Location: %s\n", u.Location)
	fmt.Fprintf(&b, "👥 Names: %s\n", u.Names)
	fmt.Fprintf(&b, "📅 Dates: %s\n", u.DateText)
	fmt.Fprintf(&b, "📄 Reason: %s\n", u.Reason)
	fmt.Fprintf(&b, "🗂 Sheets: %s\n", sheetList(u))
	for _, w := range e.Warnings {
		fmt.Fprintf(&b, "⚠ %s\n", w)
	}
	b.WriteString("\nDo you want to update this status?")
	return b.String()
}

func sheetList(u model.StatusUpdate) string {
	var names []string
	for _, s := range u.OfficialTargets {
		names = append(names, s.SheetName())
	}
	for _, s := range u.InformalTargets {
		names = append(names, s.Name())
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}
