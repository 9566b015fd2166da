package sweeper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"paradestate/internal/model"
	"paradestate/internal/parser"
	"paradestate/internal/service/resolver"
	"paradestate/internal/taxonomy"
)

// Roster 外部名册存储
type Roster interface {
	ReadSheet(ctx context.Context, sheet string) ([][]string, error)
	ApplyBatch(ctx context.Context, batch model.MutationBatch) error
}

// SameDayPolicy 结束日期等于参考日时的过期判定
type SameDayPolicy string

const (
	// SameDayForward 向前判定：记录的时段晚于当前表时视为已过期，同一或更早时段未过期；无时段不过期
	SameDayForward SameDayPolicy = "forward"
	// SameDayNeverExpire 参考日当天一律不过期
	SameDayNeverExpire SameDayPolicy = "never"
	// SameDayPeriodElapsed 记录的时段早于当前表时视为已过期；无时段不过期
	SameDayPeriodElapsed SameDayPolicy = "elapsed"
)

// ParseSameDayPolicy 解析配置值，未知值回退为 SameDayForward
func ParseSameDayPolicy(s string) SameDayPolicy {
	switch SameDayPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case SameDayNeverExpire:
		return SameDayNeverExpire
	case SameDayPeriodElapsed:
		return SameDayPeriodElapsed
	default:
		return SameDayForward
	}
}

// Config 过期清理配置
type Config struct {
	Platoon    string
	Location   *time.Location
	CutoffHour int // 超过该小时后参考日为次日
	Rotation   model.StayRotation
	SameDay    SameDayPolicy
	DryRun     bool
}

// Report 一次清理的汇总
type Report struct {
	Reference time.Time             `json:"reference"`
	Weekday   time.Weekday          `json:"weekday"`
	Sheets    []model.SheetSlot     `json:"sheets"`
	Batches   []model.MutationBatch `json:"batches"`
	Lines     []string              `json:"lines"`
	Success   bool                  `json:"success"`
	DryRun    bool                  `json:"dryRun"`
}

// Message 汇总报告文本
func (r Report) Message() string {
	return strings.Join(r.Lines, "\n")
}

// Reverted 计划或已写入的单元格总数
func (r Report) Reverted() int {
	n := 0
	for _, b := range r.Batches {
		n += b.Len()
	}
	return n
}

func (r *Report) note(format string, args ...any) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

func (r *Report) fail(format string, args ...any) {
	r.Success = false
	r.note(format, args...)
}

// Sweeper 过期状态清理
//
// Run 在一次调用内自上而下同步执行，不启动任何 goroutine；防重入由调度器负责。
type Sweeper struct {
	roster   Roster
	resolver *resolver.Resolver
	cfg      Config
}

// New 创建清理器
func New(roster Roster, cfg Config) *Sweeper {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.SameDay == "" {
		cfg.SameDay = SameDayForward
	}
	if cfg.Rotation.StayIn == "" {
		cfg.Rotation.StayIn = taxonomy.StayIn
	}
	if cfg.Rotation.StayOut == "" {
		cfg.Rotation.StayOut = taxonomy.StayOut
	}
	return &Sweeper{roster: roster, resolver: resolver.New(cfg.Platoon), cfg: cfg}
}

// DryRun 返回只计划、不写入的副本
func (s *Sweeper) DryRun() *Sweeper {
	c := *s
	c.cfg.DryRun = true
	return &c
}

// ReferenceDate 参考日：本地日期，达到截止小时后取次日
func ReferenceDate(now time.Time, loc *time.Location, cutoffHour int) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if local.Hour() >= cutoffHour {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// SheetsFor 按星期决定扫描的正式表：周末只扫 NIGHT
func SheetsFor(wd time.Weekday) []model.SheetSlot {
	if wd == time.Saturday || wd == time.Sunday {
		return []model.SheetSlot{model.SlotNight}
	}
	return append([]model.SheetSlot(nil), model.OfficialSlots...)
}

// Expired 结束日期（含可选时段）相对参考日与当前表是否已过期
func Expired(end time.Time, period model.Period, ref time.Time, slot model.SheetSlot, policy SameDayPolicy) bool {
	e := civil(end)
	r := civil(ref)
	if e.Before(r) {
		return true
	}
	if e.After(r) {
		return false
	}
	if period == model.PeriodNone {
		return false
	}
	rank := periodRank(period)
	switch policy {
	case SameDayNeverExpire:
		return false
	case SameDayPeriodElapsed:
		return rank < slot.Rank()
	default:
		return rank > slot.Rank()
	}
}

func periodRank(p model.Period) int {
	if p == model.PeriodPM {
		return model.SlotPM.Rank()
	}
	return model.SlotAM.Rank()
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sweepColumns 清理需要的列
var sweepColumns = []string{
	model.ColPlatoon, model.ColName, model.ColStatus, model.ColDate, model.ColRemarks, model.ColLocation,
}

// nightState NIGHT 表扫描后留给轮换批次的上下文
type nightState struct {
	cols   map[string]int
	queued []model.RosterRow
}

// Run 执行一次清理
func (s *Sweeper) Run(ctx context.Context, now time.Time) Report {
	ref := ReferenceDate(now, s.cfg.Location, s.cfg.CutoffHour)
	wd := ref.Weekday()
	rep := Report{
		Reference: ref,
		Weekday:   wd,
		Sheets:    SheetsFor(wd),
		Success:   true,
		DryRun:    s.cfg.DryRun,
	}

	rotation := s.cfg.Rotation
	if wd == time.Friday {
		// 周五本次运行清空轮换名单，所有人都可回到 STAY OUT
		rotation = rotation.Cleared()
	}
	log.Printf("[sweeper] 参考日 %s (%s)，扫描 %v，轮换成员 %d 人", ref.Format(model.DateLayout), wd, rep.Sheets, len(rotation.Members))

	var night *nightState
	for _, slot := range rep.Sheets {
		st := s.sweepSheet(ctx, slot, ref, rotation, &rep)
		if slot == model.SlotNight {
			night = st
		}
	}

	if night != nil && len(night.queued) > 0 {
		batch := model.MutationBatch{Sheet: model.SlotNight.SheetName()}
		if err := addRevert(&batch, night.cols, night.queued, rotation.StayIn); err != nil {
			rep.fail("❌ NIGHT rotation: %v", err)
		} else {
			s.apply(ctx, batch, "NIGHT rotation", night.queued, &rep)
		}
	}

	if rep.Reverted() == 0 && rep.Success {
		rep.note("✅ Nothing to revert for %s.", ref.Format(model.DateLayout))
	}
	return rep
}

func (s *Sweeper) sweepSheet(ctx context.Context, slot model.SheetSlot, ref time.Time, rotation model.StayRotation, rep *Report) *nightState {
	sheet := slot.SheetName()
	raw, err := s.roster.ReadSheet(ctx, sheet)
	if err != nil {
		log.Printf("[sweeper] 读取 %s 失败: %v", sheet, err)
		rep.fail("❌ %s: failed to read sheet: %v", sheet, err)
		return nil
	}
	grid := model.RosterGrid(raw)
	cols, err := grid.Columns(sweepColumns...)
	if err != nil {
		log.Printf("[sweeper] %s 缺少列: %v", sheet, err)
		rep.fail("❌ %s: %v", sheet, err)
		return nil
	}
	rows := s.resolver.InScope(model.OfficialRows(grid, cols), resolver.ScopeOfficial)
	members := s.members(rows, rotation)
	def := taxonomy.DefaultFor(slot)

	var revert, reactivate, queued []model.RosterRow
	for _, row := range rows {
		_, isMember := members[row.Index]

		if row.DateText == "" {
			if slot != model.SlotNight || !rotation.IsMarker(row.Status) {
				continue
			}
			switch {
			case ref.Weekday() == time.Friday && strings.EqualFold(row.Status, rotation.StayIn):
				revert = append(revert, row)
			case ref.Weekday() == time.Sunday && isMember && strings.EqualFold(row.Status, rotation.StayOut):
				reactivate = append(reactivate, row)
			}
			continue
		}

		end, period, err := parser.ParseEndDate(row.DateText)
		if err != nil {
			log.Printf("[sweeper] %s 行 %d (%s) 日期无法解析 %q，跳过", sheet, row.Index+1, row.Name, row.DateText)
			rep.note("⚠ %s: invalid date '%s' for %s, skipped.", sheet, row.DateText, row.Name)
			continue
		}
		if !Expired(end, period, ref, slot, s.cfg.SameDay) {
			continue
		}
		if slot == model.SlotNight && isMember {
			queued = append(queued, row)
			continue
		}
		revert = append(revert, row)
	}

	if len(revert) > 0 {
		batch := model.MutationBatch{Sheet: sheet}
		if err := addRevert(&batch, cols, revert, def); err != nil {
			rep.fail("❌ %s: %v", sheet, err)
		} else {
			s.apply(ctx, batch, sheet, revert, rep)
		}
	}
	if len(reactivate) > 0 {
		batch := model.MutationBatch{Sheet: sheet}
		if err := addStatus(&batch, cols, reactivate, rotation.StayIn); err != nil {
			rep.fail("❌ %s: %v", sheet, err)
		} else {
			s.apply(ctx, batch, sheet+" stay-in", reactivate, rep)
		}
	}
	return &nightState{cols: cols, queued: queued}
}

// members 在当前表中解析轮换成员
func (s *Sweeper) members(rows []model.RosterRow, rotation model.StayRotation) map[int]struct{} {
	out := make(map[int]struct{}, len(rotation.Members))
	for _, name := range rotation.Members {
		m := s.resolver.Resolve(name, rows, resolver.ScopeOfficial)
		if !m.Resolved() {
			log.Printf("[sweeper] 轮换成员 %q 无法定位 (%s)", name, m.Kind)
			continue
		}
		out[m.Row] = struct{}{}
	}
	return out
}

func (s *Sweeper) apply(ctx context.Context, batch model.MutationBatch, label string, rows []model.RosterRow, rep *Report) {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	if s.cfg.DryRun {
		rep.Batches = append(rep.Batches, batch)
		rep.note("📝 %s: would revert %s", label, strings.Join(names, ", "))
		return
	}
	if err := s.roster.ApplyBatch(ctx, batch); err != nil {
		log.Printf("[sweeper] %s 批量写入失败: %v", label, err)
		rep.fail("❌ Failed to update %s: %v", label, err)
		return
	}
	rep.Batches = append(rep.Batches, batch)
	rep.note("🔄 %s: reverted %s", label, strings.Join(names, ", "))
}

// addRevert 恢复为指定状态并清空 Date/Remarks/Location
func addRevert(batch *model.MutationBatch, cols map[string]int, rows []model.RosterRow, status string) error {
	for _, row := range rows {
		for _, w := range []struct {
			col   string
			value string
		}{
			{model.ColStatus, status},
			{model.ColDate, ""},
			{model.ColRemarks, ""},
			{model.ColLocation, ""},
		} {
			cell, err := model.CellName(cols[w.col], row.Index)
			if err != nil {
				return err
			}
			batch.Add(cell, w.value)
		}
	}
	return nil
}

// addStatus 只改写状态列
func addStatus(batch *model.MutationBatch, cols map[string]int, rows []model.RosterRow, status string) error {
	for _, row := range rows {
		cell, err := model.CellName(cols[model.ColStatus], row.Index)
		if err != nil {
			return err
		}
		batch.Add(cell, status)
	}
	return nil
}
