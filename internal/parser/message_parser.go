package parser

import (
	"log"
	"time"

	"paradestate/internal/model"
	"paradestate/internal/taxonomy"
)

// MessageParser 状态消息解析器
//
// 无词法/语法树：由若干独立的抽取规则（状态、姓名、日期、地点、原因）作用于同一段文本后组装结果。
type MessageParser struct{}

// NewMessageParser 创建解析器
func NewMessageParser() *MessageParser {
	return &MessageParser{}
}

// Parse 将一条原始消息解析为 StatusUpdate
//
// 没有 Status 行时返回 ErrNoStatusLine（其余字段仍会尽量抽取，便于回显）；
// 状态未命中分类表不算错误，由 OfficialStatus.Valid 体现。
func (p *MessageParser) Parse(text string) (*Extraction, error) {
	lines := SplitLines(text)
	ext := &Extraction{}

	// 1. 状态 + 行内地点
	ext.RawStatus, ext.RawLocation = statusRule(text)

	// 2. 状态规范化
	status, informal := taxonomy.Classify(ext.RawStatus.Value)
	if ext.RawStatus.Found && !status.Valid {
		log.Printf("[parser] 无效状态: %q", ext.RawStatus.Value)
	}

	// 3-4. 姓名段落 + 去军衔
	ext.RawNames = nameRule(lines)
	names := buildNameList(ext.RawNames)

	// 5. 日期
	ext.RawDate = dateRule(text)
	dates := parseDates(ext)

	// 6. Location / Reason 覆盖
	location := ext.RawLocation.Value
	locOverride, reason := overrideRule(lines)
	if locOverride.Found {
		location = locOverride.Value
	}
	ext.Reason = reason

	ext.Update = model.StatusUpdate{
		OfficialStatus: status,
		InformalStatus: informal,
		Location:       location,
		Names:          names,
		DateRange:      dates.rng,
		DateText:       dates.rng.Text(),
		Reason:         reason.Value,
	}
	planTargets(&ext.Update, dates)

	log.Printf("[parser] 状态=%s 地点=%q 姓名=%s 日期=%q 原因=%q 表=%v",
		ext.Update.OfficialStatus, ext.Update.Location, ext.Update.Names, ext.Update.DateText, ext.Update.Reason, ext.Update.OfficialTargets)

	if !ext.RawStatus.Found {
		return ext, ErrNoStatusLine
	}
	return ext, nil
}

// planTargets 计算需要更新的正式表与日表
func planTargets(u *model.StatusUpdate, d parsedDates) {
	if taxonomy.IsStayStatus(u.OfficialStatus) {
		// 留营/离营只占夜间时段，不写日表
		u.OfficialTargets = []model.SheetSlot{model.SlotNight}
		u.InformalTargets = nil
		return
	}

	var am, pm bool
	if d.rng.IsRange {
		am, pm = true, true
	} else {
		am, pm = d.am, d.pm
		if !am && !pm {
			am, pm = true, true
		}
	}

	var slots []model.SheetSlot
	if am {
		slots = append(slots, model.SlotAM)
	}
	if pm {
		slots = append(slots, model.SlotPM)
	}
	u.OfficialTargets = append([]model.SheetSlot(nil), slots...)
	if taxonomy.BlocksNight(u.OfficialStatus) && pm {
		// 全天或下午开始的状态同时占用夜间
		u.OfficialTargets = append(u.OfficialTargets, model.SlotNight)
	}

	if !u.OfficialStatus.Valid || d.rng.Empty() {
		return
	}
	for _, ym := range monthsBetween(d.rng.Start, d.rng.End) {
		for _, slot := range slots {
			u.InformalTargets = append(u.InformalTargets, model.InformalSheet{Year: ym.Year(), Month: ym.Month(), Slot: slot})
		}
	}
}

// monthsBetween 范围覆盖的每个月（取每月 1 号）
func monthsBetween(start, end time.Time) []time.Time {
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}
