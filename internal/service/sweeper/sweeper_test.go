package sweeper

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"paradestate/internal/model"
)

var sgt = time.FixedZone("SGT", 8*3600)

type fakeRoster struct {
	mu      sync.Mutex
	sheets  map[string][][]string
	reads   []string
	applied []model.MutationBatch
	fail    map[string]bool
}

func (f *fakeRoster) ReadSheet(_ context.Context, sheet string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, sheet)
	g, ok := f.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("unknown sheet %q", sheet)
	}
	return g, nil
}

func (f *fakeRoster) ApplyBatch(_ context.Context, batch model.MutationBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[batch.Sheet] {
		return errors.New("write rejected")
	}
	f.applied = append(f.applied, batch)
	return nil
}

func (f *fakeRoster) values() map[string]any {
	out := make(map[string]any)
	for _, b := range f.applied {
		for _, m := range b.Mutations {
			out[b.Sheet+"!"+m.Cell] = m.Value
		}
	}
	return out
}

// sheetGrid 每行为 platoon, name, status, date
func sheetGrid(rows ...[4]string) [][]string {
	g := [][]string{
		{"Parade State"},
		{"Platoon", "Name", "Status", "Date", "Remarks", "Location"},
	}
	for _, r := range rows {
		g = append(g, []string{r[0], r[1], r[2], r[3], "note", "somewhere"})
	}
	return g
}

func newTestSweeper(r Roster, mutate func(*Config)) *Sweeper {
	cfg := Config{
		Platoon:    "AE",
		Location:   sgt,
		CutoffHour: 20,
		Rotation:   model.StayRotation{Members: []string{"Isaac Lim", "Muthu"}},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(r, cfg)
}

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, sgt)
}

func TestReferenceDate_Cutoff(t *testing.T) {
	t.Parallel()

	if got := ReferenceDate(at(2025, 6, 1, 19), sgt, 20); got.Day() != 1 {
		t.Fatalf("before cutoff want day 1 got=%v", got)
	}
	if got := ReferenceDate(at(2025, 6, 1, 20), sgt, 20); got.Day() != 2 {
		t.Fatalf("at cutoff want day 2 got=%v", got)
	}
	// 13:00 UTC = 21:00 SGT
	utc := time.Date(2025, 6, 30, 13, 0, 0, 0, time.UTC)
	if got := ReferenceDate(utc, sgt, 20); got.Month() != time.July || got.Day() != 1 {
		t.Fatalf("timezone should be applied before cutoff, got=%v", got)
	}
}

func TestSheetsFor(t *testing.T) {
	t.Parallel()

	if got := SheetsFor(time.Saturday); !reflect.DeepEqual(got, []model.SheetSlot{model.SlotNight}) {
		t.Fatalf("saturday got=%v", got)
	}
	if got := SheetsFor(time.Sunday); !reflect.DeepEqual(got, []model.SheetSlot{model.SlotNight}) {
		t.Fatalf("sunday got=%v", got)
	}
	if got := SheetsFor(time.Wednesday); !reflect.DeepEqual(got, model.OfficialSlots) {
		t.Fatalf("weekday got=%v", got)
	}
}

func TestExpired_Policies(t *testing.T) {
	t.Parallel()

	ref := time.Date(2025, 6, 2, 0, 0, 0, 0, sgt)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	before := day.AddDate(0, 0, -1)
	after := day.AddDate(0, 0, 1)

	cases := []struct {
		name   string
		end    time.Time
		period model.Period
		slot   model.SheetSlot
		policy SameDayPolicy
		want   bool
	}{
		{"before always expired", before, model.PeriodNone, model.SlotAM, SameDayNeverExpire, true},
		{"after never expired", after, model.PeriodPM, model.SlotNight, SameDayPeriodElapsed, false},
		{"forward: same day AM on PM sheet", day, model.PeriodAM, model.SlotPM, SameDayForward, false},
		{"forward: same day AM on AM sheet", day, model.PeriodAM, model.SlotAM, SameDayForward, false},
		{"forward: same day PM on AM sheet", day, model.PeriodPM, model.SlotAM, SameDayForward, true},
		{"forward: same day no period", day, model.PeriodNone, model.SlotNight, SameDayForward, false},
		{"never: same day PM on AM sheet", day, model.PeriodPM, model.SlotAM, SameDayNeverExpire, false},
		{"elapsed: same day AM on PM sheet", day, model.PeriodAM, model.SlotPM, SameDayPeriodElapsed, true},
		{"elapsed: same day PM on PM sheet", day, model.PeriodPM, model.SlotPM, SameDayPeriodElapsed, false},
		{"elapsed: same day no period", day, model.PeriodNone, model.SlotNight, SameDayPeriodElapsed, false},
	}
	for _, tc := range cases {
		if got := Expired(tc.end, tc.period, ref, tc.slot, tc.policy); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestParseSameDayPolicy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]SameDayPolicy{
		"":        SameDayForward,
		"Forward": SameDayForward,
		"never":   SameDayNeverExpire,
		"ELAPSED": SameDayPeriodElapsed,
		"bogus":   SameDayForward,
	} {
		if got := ParseSameDayPolicy(in); got != want {
			t.Fatalf("%q want=%s got=%s", in, want, got)
		}
	}
}

func weekdayRoster() *fakeRoster {
	day := sheetGrid(
		[4]string{"AE", "Isaac Lim", "PRESENT", ""},
		[4]string{"", "Tan Ah Kow", "MC", "30/05/25 - 01/06/25"},
		[4]string{"", "John Tan", "LEAVE", "02/06/25 (AM)"},
		[4]string{"", "Muthu", "OFF", "03/06/25"},
		[4]string{"", "Bad Date", "MC", "32/13/25"},
		[4]string{"BE", "Isaac Ong", "MC", "01/01/25"},
	)
	night := sheetGrid(
		[4]string{"AE", "Isaac Lim", "STAY IN", ""},
		[4]string{"", "Tan Ah Kow", "MC", "30/05/25 - 01/06/25"},
		[4]string{"", "John Tan", "LEAVE", "02/06/25 (AM)"},
		[4]string{"", "Muthu", "STAY IN", "01/06/25"},
	)
	return &fakeRoster{sheets: map[string][][]string{"AM": day, "PM": day, "NIGHT": night}}
}

func TestRun_WeekdayRevertsExpiredRows(t *testing.T) {
	roster := weekdayRoster()
	// 周日 21:00 -> 参考日周一 02/06/25
	rep := newTestSweeper(roster, nil).Run(context.Background(), at(2025, 6, 1, 21))
	if rep.Weekday != time.Monday {
		t.Fatalf("want monday reference, got=%s", rep.Weekday)
	}
	if !reflect.DeepEqual(roster.reads, []string{"AM", "PM", "NIGHT"}) {
		t.Fatalf("reads got=%v", roster.reads)
	}

	v := roster.values()
	for _, sheet := range []string{"AM", "PM"} {
		if v[sheet+"!C4"] != "PRESENT" || v[sheet+"!D4"] != "" || v[sheet+"!E4"] != "" || v[sheet+"!F4"] != "" {
			t.Fatalf("%s: expired row should revert and clear, got=%v", sheet, v)
		}
		// 同日 AM 结束的记录向前判定不过期
		if _, ok := v[sheet+"!C5"]; ok {
			t.Fatalf("%s: same-day AM end must not expire", sheet)
		}
		if _, ok := v[sheet+"!C8"]; ok {
			t.Fatalf("%s: other platoon must be untouched", sheet)
		}
	}
	if v["NIGHT!C4"] != "STAY OUT" {
		t.Fatalf("non-member night row reverts to STAY OUT, got=%v", v["NIGHT!C4"])
	}
	// 轮换成员过期后单独一批恢复为 STAY IN
	if v["NIGHT!C6"] != "STAY IN" {
		t.Fatalf("rotation member reverts to STAY IN, got=%v", v["NIGHT!C6"])
	}
	last := roster.applied[len(roster.applied)-1]
	if last.Sheet != "NIGHT" || last.Mutations[0].Cell != "C6" {
		t.Fatalf("rotation batch should be applied last, got=%+v", last)
	}
	if _, ok := v["NIGHT!C3"]; ok {
		t.Fatalf("no-date STAY IN on a weekday is untouched")
	}
	if !strings.Contains(rep.Message(), "invalid date '32/13/25'") {
		t.Fatalf("invalid date should be reported:\n%s", rep.Message())
	}
	if !rep.Success {
		t.Fatalf("expected success:\n%s", rep.Message())
	}
}

func TestRun_SameDayExpiresOnNextDay(t *testing.T) {
	roster := weekdayRoster()
	// 参考日周二 03/06/25
	newTestSweeper(roster, nil).Run(context.Background(), at(2025, 6, 2, 21))
	v := roster.values()
	for _, sheet := range []string{"AM", "PM"} {
		if v[sheet+"!C5"] != "PRESENT" {
			t.Fatalf("%s: AM end on previous day should expire, got=%v", sheet, v[sheet+"!C5"])
		}
	}
}

func TestRun_SameDayPolicyIsConfigurable(t *testing.T) {
	roster := weekdayRoster()
	newTestSweeper(roster, func(c *Config) { c.SameDay = SameDayPeriodElapsed }).Run(context.Background(), at(2025, 6, 1, 21))
	v := roster.values()
	if _, ok := v["AM!C5"]; ok {
		t.Fatalf("elapsed policy: AM end on AM sheet not yet expired")
	}
	if v["PM!C5"] != "PRESENT" {
		t.Fatalf("elapsed policy: AM end expired on PM sheet, got=%v", v["PM!C5"])
	}
}

func TestRun_FridayClearsRotation(t *testing.T) {
	roster := &fakeRoster{sheets: map[string][][]string{
		"AM": sheetGrid([4]string{"AE", "Isaac Lim", "PRESENT", ""}),
		"PM": sheetGrid([4]string{"AE", "Isaac Lim", "PRESENT", ""}),
		"NIGHT": sheetGrid(
			[4]string{"AE", "Isaac Lim", "STAY IN", ""},
			[4]string{"", "Tan Ah Kow", "STAY IN", ""},
			[4]string{"", "John Tan", "STAY OUT", ""},
			[4]string{"", "Muthu", "STAY IN", "05/06/25"},
		),
	}}
	// 周四 21:00 -> 参考日周五 06/06/25
	rep := newTestSweeper(roster, nil).Run(context.Background(), at(2025, 6, 5, 21))
	if rep.Weekday != time.Friday {
		t.Fatalf("want friday got=%s", rep.Weekday)
	}
	v := roster.values()
	for _, cell := range []string{"NIGHT!C3", "NIGHT!C4", "NIGHT!C6"} {
		if v[cell] != "STAY OUT" {
			t.Fatalf("%s should flip to STAY OUT on friday, got=%v", cell, v[cell])
		}
	}
	if _, ok := v["NIGHT!C5"]; ok {
		t.Fatalf("STAY OUT row is already at default")
	}
	for _, b := range roster.applied {
		for _, m := range b.Mutations {
			if m.Value == "STAY IN" {
				t.Fatalf("nobody is protected on friday: %+v", b)
			}
		}
	}
}

func TestRun_SundayReactivatesRotation(t *testing.T) {
	roster := &fakeRoster{sheets: map[string][][]string{
		"NIGHT": sheetGrid(
			[4]string{"AE", "Isaac Lim", "STAY OUT", ""},
			[4]string{"", "Tan Ah Kow", "STAY OUT", ""},
			[4]string{"", "Muthu", "MC", "07/06/25"},
			[4]string{"", "John Tan", "LEAVE", "07/06/25"},
		),
	}}
	// 周六 21:00 -> 参考日周日 08/06/25
	rep := newTestSweeper(roster, nil).Run(context.Background(), at(2025, 6, 7, 21))
	if !reflect.DeepEqual(roster.reads, []string{"NIGHT"}) {
		t.Fatalf("sunday scans only NIGHT, reads=%v", roster.reads)
	}
	v := roster.values()
	if v["NIGHT!C3"] != "STAY IN" {
		t.Fatalf("rotation member should be re-activated, got=%v", v["NIGHT!C3"])
	}
	if _, ok := v["NIGHT!C4"]; ok {
		t.Fatalf("non-member STAY OUT is untouched")
	}
	if v["NIGHT!C5"] != "STAY IN" || v["NIGHT!D5"] != "" {
		t.Fatalf("expired member reverts to STAY IN, got=%v", v)
	}
	if v["NIGHT!C6"] != "STAY OUT" {
		t.Fatalf("expired non-member reverts to STAY OUT, got=%v", v["NIGHT!C6"])
	}
	if !rep.Success {
		t.Fatalf("expected success:\n%s", rep.Message())
	}
}

func TestRun_SaturdayLeavesRotationUntouched(t *testing.T) {
	roster := &fakeRoster{sheets: map[string][][]string{
		"NIGHT": sheetGrid(
			[4]string{"AE", "Isaac Lim", "STAY OUT", ""},
			[4]string{"", "Tan Ah Kow", "STAY IN", ""},
		),
	}}
	// 周五 21:00 -> 参考日周六 07/06/25
	rep := newTestSweeper(roster, nil).Run(context.Background(), at(2025, 6, 6, 21))
	if rep.Weekday != time.Saturday || !reflect.DeepEqual(roster.reads, []string{"NIGHT"}) {
		t.Fatalf("saturday scans only NIGHT, weekday=%s reads=%v", rep.Weekday, roster.reads)
	}
	if len(roster.applied) != 0 {
		t.Fatalf("no-date rotation rows stay as they are on saturday: %+v", roster.applied)
	}
}

func TestRun_DryRunDoesNotWrite(t *testing.T) {
	roster := weekdayRoster()
	rep := newTestSweeper(roster, func(c *Config) { c.DryRun = true }).Run(context.Background(), at(2025, 6, 1, 21))
	if len(roster.applied) != 0 {
		t.Fatalf("dry run must not write")
	}
	if !rep.DryRun || len(rep.Batches) == 0 || rep.Reverted() == 0 {
		t.Fatalf("dry run should still plan batches: %+v", rep)
	}
	if !strings.Contains(rep.Message(), "would revert") {
		t.Fatalf("dry run report:\n%s", rep.Message())
	}
}

func TestRun_MissingSheetIsReported(t *testing.T) {
	roster := weekdayRoster()
	delete(roster.sheets, "PM")
	roster.fail = map[string]bool{"NIGHT": true}
	rep := newTestSweeper(roster, nil).Run(context.Background(), at(2025, 6, 1, 21))
	if rep.Success {
		t.Fatalf("missing sheet and failed batch should flag failure")
	}
	msg := rep.Message()
	if !strings.Contains(msg, "PM: failed to read sheet") || !strings.Contains(msg, "Failed to update NIGHT") {
		t.Fatalf("report:\n%s", msg)
	}
	if _, ok := roster.values()["AM!C4"]; !ok {
		t.Fatalf("AM should still be processed")
	}
}
