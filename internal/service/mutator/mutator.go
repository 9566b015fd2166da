package mutator

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

// Config 写入配置
type Config struct {
	Platoon    string
	RetryDelay time.Duration // 日表批量写入失败后的重试间隔（只重试一次）
}

// Outcome 一次更新的汇总结果；部分表失败是正常的可汇报结果
type Outcome struct {
	Success bool                  `json:"success"`
	Lines   []string              `json:"lines"`
	Batches []model.MutationBatch `json:"batches"`
}

// Message 汇总报告文本
func (o Outcome) Message() string {
	return strings.Join(o.Lines, "\n")
}

func (o *Outcome) fail(format string, args ...any) {
	o.Success = false
	o.Lines = append(o.Lines, fmt.Sprintf(format, args...))
}

func (o *Outcome) note(format string, args ...any) {
	o.Lines = append(o.Lines, fmt.Sprintf(format, args...))
}

// Mutator 将已确认的 StatusUpdate 写入正式表与日表
type Mutator struct {
	roster   Roster
	resolver *resolver.Resolver
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error
}

// New 创建写入器
func New(roster Roster, cfg Config) *Mutator {
	return &Mutator{
		roster:   roster,
		resolver: resolver.New(cfg.Platoon),
		cfg:      cfg,
		sleep:    sleepContext,
	}
}

// Apply 依次处理正式表（AM、PM、NIGHT）与日表；每张表一个批次，互不阻塞
func (m *Mutator) Apply(ctx context.Context, u model.StatusUpdate) Outcome {
	out := Outcome{Success: true}
	if !u.OfficialStatus.Valid {
		out.fail("❌ Invalid status, nothing was updated.")
		return out
	}

	for _, slot := range model.OfficialSlots {
		if u.TargetsOfficial(slot) {
			m.applyOfficial(ctx, u, slot, &out)
		}
	}
	if u.InformalStatus.Defined() {
		for _, sheet := range u.InformalTargets {
			m.applyInformal(ctx, u, sheet, &out)
		}
	}
	return out
}

// OfficialColumns 正式表必需列
var OfficialColumns = []string{
	model.ColPlatoon, model.ColName, model.ColStatus, model.ColDate, model.ColRemarks, model.ColLocation,
}

func (m *Mutator) applyOfficial(ctx context.Context, u model.StatusUpdate, slot model.SheetSlot, out *Outcome) {
	sheet := slot.SheetName()
	raw, err := m.roster.ReadSheet(ctx, sheet)
	if err != nil {
		log.Printf("[mutator] 读取 %s 失败: %v", sheet, err)
		out.fail("❌ %s: failed to read sheet: %v", sheet, err)
		return
	}
	grid := model.RosterGrid(raw)
	cols, err := grid.Columns(OfficialColumns...)
	if err != nil {
		log.Printf("[mutator] %s 缺少列: %v", sheet, err)
		out.fail("❌ %s: %v", sheet, err)
		return
	}
	rows := model.OfficialRows(grid, cols)

	var targets []model.RosterRow
	if u.Names.All {
		targets = defaultRows(m.resolver.InScope(rows, resolver.ScopeOfficial), taxonomy.DefaultFor(slot))
	} else {
		targets = m.resolveAll(u.Names.Names, rows, resolver.ScopeOfficial, sheet, out)
	}
	if len(targets) == 0 {
		out.note("⚠ %s: no matching rows, nothing updated.", sheet)
		return
	}

	batch := model.MutationBatch{Sheet: sheet}
	for _, row := range targets {
		for _, w := range []struct {
			col   string
			value string
		}{
			{model.ColStatus, u.OfficialStatus.Code},
			{model.ColDate, u.DateText},
			{model.ColRemarks, u.Reason},
			{model.ColLocation, u.Location},
		} {
			cell, err := model.CellName(cols[w.col], row.Index)
			if err != nil {
				out.fail("❌ %s: %v", sheet, err)
				return
			}
			batch.Add(cell, w.value)
		}
	}

	if err := m.roster.ApplyBatch(ctx, batch); err != nil {
		log.Printf("[mutator] %s 批量写入失败: %v", sheet, err)
		out.fail("❌ Failed to update %s sheet: %v", sheet, err)
		return
	}
	out.Batches = append(out.Batches, batch)
	out.note("✅ %s: updated %s", sheet, rowNames(targets))
}

func (m *Mutator) applyInformal(ctx context.Context, u model.StatusUpdate, sheet model.InformalSheet, out *Outcome) {
	name := sheet.Name()
	raw, err := m.roster.ReadSheet(ctx, name)
	if err != nil {
		log.Printf("[mutator] 读取日表 %s 失败: %v", name, err)
		out.fail("❌ %s: failed to read sheet: %v", name, err)
		return
	}
	grid := model.RosterGrid(raw)
	cols, err := grid.Columns(model.ColName)
	if err != nil {
		out.fail("❌ %s: %v", name, err)
		return
	}

	days := SelectDays(u, sheet)
	if len(days) == 0 {
		out.note("ℹ %s: no working days in range.", name)
		return
	}
	dayCols := model.DayColumns(grid)
	for _, d := range days {
		if _, ok := dayCols[d]; !ok {
			log.Printf("[mutator] 日表 %s 缺少日期列 %d", name, d)
			out.fail("❌ %s: %v: day %d", name, model.ErrMissingColumn, d)
			return
		}
	}

	rows := model.InformalRows(grid, cols[model.ColName])
	var targets []model.RosterRow
	if u.Names.All {
		targets = neutralRows(grid, rows, days, dayCols)
	} else {
		targets = m.resolveAll(u.Names.Names, rows, resolver.ScopeInformal, name, out)
	}
	if len(targets) == 0 {
		out.note("⚠ %s: no matching rows, nothing updated.", name)
		return
	}

	batch := model.MutationBatch{Sheet: name}
	value := u.InformalStatus.Value()
	for _, row := range targets {
		for _, d := range days {
			cell, err := model.CellName(dayCols[d], row.Index)
			if err != nil {
				out.fail("❌ %s: %v", name, err)
				return
			}
			batch.Add(cell, value)
		}
	}

	if err := m.applyWithRetry(ctx, batch); err != nil {
		out.fail("❌ Failed to update %s sheet: %v", name, err)
		return
	}
	out.Batches = append(out.Batches, batch)
	out.note("✅ %s: updated %s", name, rowNames(targets))
}

// applyWithRetry 日表批量写入，失败后等待 RetryDelay 再试一次
func (m *Mutator) applyWithRetry(ctx context.Context, batch model.MutationBatch) error {
	err := m.roster.ApplyBatch(ctx, batch)
	if err == nil {
		return nil
	}
	log.Printf("[mutator] 日表 %s 写入失败，%s 后重试: %v", batch.Sheet, m.cfg.RetryDelay, err)
	if serr := m.sleep(ctx, m.cfg.RetryDelay); serr != nil {
		return serr
	}
	if err := m.roster.ApplyBatch(ctx, batch); err != nil {
		log.Printf("[mutator] 日表 %s 重试仍失败: %v", batch.Sheet, err)
		return err
	}
	return nil
}

// resolveAll 逐个解析姓名；无法解析的姓名跳过并写入报告
func (m *Mutator) resolveAll(names []string, rows []model.RosterRow, scope resolver.Scope, sheet string, out *Outcome) []model.RosterRow {
	byIndex := make(map[int]model.RosterRow, len(rows))
	for _, row := range rows {
		byIndex[row.Index] = row
	}
	seen := make(map[int]struct{})
	var targets []model.RosterRow
	for _, name := range names {
		match := m.resolver.Resolve(name, rows, scope)
		switch match.Kind {
		case model.MatchUnique:
			if _, dup := seen[match.Row]; dup {
				continue
			}
			seen[match.Row] = struct{}{}
			targets = append(targets, byIndex[match.Row])
		case model.MatchAmbiguous:
			out.note("⚠ %s: '%s' matches %d people, skipped.", sheet, name, len(match.Candidates))
		default:
			out.note("⚠ %s: '%s' not found, skipped.", sheet, name)
		}
	}
	return targets
}

// SelectDays 日表需要写入的日期：去掉周末与半天排除日
//
// 跨 AM+PM 的日期范围：下午开始时 AM 表跳过首日，上午结束时 PM 表跳过末日。
func SelectDays(u model.StatusUpdate, sheet model.InformalSheet) []int {
	rng := u.DateRange
	var out []int
	for _, d := range parser.ExtractDays(u.DateText, sheet) {
		day := time.Date(sheet.Year, sheet.Month, d, 0, 0, 0, 0, time.UTC)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if rng.IsRange {
			if sheet.Slot == model.SlotAM && rng.StartPeriod == model.PeriodPM && sameDay(day, rng.Start) {
				continue
			}
			if sheet.Slot == model.SlotPM && rng.EndPeriod == model.PeriodAM && sameDay(day, rng.End) {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// defaultRows 当前处于默认状态的行（"all" 展开）
func defaultRows(rows []model.RosterRow, def string) []model.RosterRow {
	var out []model.RosterRow
	for _, row := range rows {
		if strings.EqualFold(row.Status, def) {
			out = append(out, row)
		}
	}
	return out
}

// neutralRows 所选日期全部为中性值（空或 1）的行
func neutralRows(grid model.RosterGrid, rows []model.RosterRow, days []int, dayCols map[int]int) []model.RosterRow {
	var out []model.RosterRow
	for _, row := range rows {
		neutral := true
		for _, d := range days {
			if v := grid.Cell(row.Index, dayCols[d]); v != "" && v != "1" {
				neutral = false
				break
			}
		}
		if neutral {
			out = append(out, row)
		}
	}
	return out
}

func rowNames(rows []model.RosterRow) string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return strings.Join(names, ", ")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
