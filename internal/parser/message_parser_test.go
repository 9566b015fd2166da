package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"paradestate/internal/model"
)

func TestParse_OutstationSingleDate(t *testing.T) {
	t.Parallel()

	ext, err := NewMessageParser().Parse("Status: Outstation @ KC3\nR/Name: PTE Isaac\nDate: 150525")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	u := ext.Update
	if got, want := u.OfficialStatus.String(), "OUTSTATION"; got != want {
		t.Fatalf("status want=%s got=%s", want, got)
	}
	if u.Location != "KC3" {
		t.Fatalf("location want=KC3 got=%q", u.Location)
	}
	if !reflect.DeepEqual(u.Names.Names, []string{"Isaac"}) {
		t.Fatalf("names want=[Isaac] got=%v", u.Names.Names)
	}
	if u.DateText != "15/05/25" {
		t.Fatalf("date want=15/05/25 got=%q", u.DateText)
	}
	if !reflect.DeepEqual(u.OfficialTargets, []model.SheetSlot{model.SlotAM, model.SlotPM}) {
		t.Fatalf("targets want=[AM PM] got=%v", u.OfficialTargets)
	}
	if got := u.InformalStatus.String(); got != "OS" {
		t.Fatalf("informal want=OS got=%q", got)
	}
	wantInformal := []model.InformalSheet{
		{Year: 2025, Month: 5, Slot: model.SlotAM},
		{Year: 2025, Month: 5, Slot: model.SlotPM},
	}
	if !reflect.DeepEqual(u.InformalTargets, wantInformal) {
		t.Fatalf("informal targets want=%v got=%v", wantInformal, u.InformalTargets)
	}
}

func TestParse_NoStatusLine(t *testing.T) {
	t.Parallel()

	ext, err := NewMessageParser().Parse("R/Name: PTE Isaac\nDate: 150525")
	if !errors.Is(err, ErrNoStatusLine) {
		t.Fatalf("want ErrNoStatusLine got=%v", err)
	}
	if ext == nil || ext.Update.DateText != "15/05/25" {
		t.Fatalf("other fields should still be extracted: %+v", ext)
	}
}

func TestParse_InvalidStatusKeepsOtherFields(t *testing.T) {
	t.Parallel()

	ext, err := NewMessageParser().Parse("Status: Sleeping\nR/Name: CPL Tan Ah Kow\nDate: 01/06/25\nReason: tired")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !ext.Invalid() {
		t.Fatalf("expected invalid status")
	}
	if ext.Update.OfficialStatus.String() != model.InvalidStatus {
		t.Fatalf("status text want=Invalid got=%s", ext.Update.OfficialStatus)
	}
	if ext.Update.InformalStatus.Defined() {
		t.Fatalf("informal status should be undefined")
	}
	if len(ext.Update.InformalTargets) != 0 {
		t.Fatalf("invalid status should not target informal sheets: %v", ext.Update.InformalTargets)
	}
	if ext.Update.Reason != "tired" || ext.Update.Names.String() != "Tan Ah Kow" {
		t.Fatalf("unexpected fields: %+v", ext.Update)
	}
	if !strings.Contains(ext.Summary(), "Invalid status detected") {
		t.Fatalf("summary should flag invalid status:\n%s", ext.Summary())
	}
}

func TestParse_NameBlockMultiLine(t *testing.T) {
	t.Parallel()

	msg := strings.Join([]string{
		"Status: MC",
		"R/Names:",
		"PTE Isaac Lim",
		"",
		"3SG John Tan",
		"Muhammad Ali",
		"Dates: 02/06/25 - 04/06/25",
		"PTE After Date",
	}, "\n")
	ext, err := NewMessageParser().Parse(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"Isaac Lim", "John Tan", "Muhammad Ali"}
	if !reflect.DeepEqual(ext.Update.Names.Names, want) {
		t.Fatalf("names want=%v got=%v", want, ext.Update.Names.Names)
	}
}

func TestParse_InlineCommaNames(t *testing.T) {
	t.Parallel()

	ext, _ := NewMessageParser().Parse("Status: WFH\nR/Name: PTE Isaac, LCP Ben Ong ,  CFC Chua\nDate: 020625")
	want := []string{"Isaac", "Ben Ong", "Chua"}
	if !reflect.DeepEqual(ext.Update.Names.Names, want) {
		t.Fatalf("names want=%v got=%v", want, ext.Update.Names.Names)
	}
}

func TestParse_NoNameSectionIsEmpty(t *testing.T) {
	t.Parallel()

	ext, err := NewMessageParser().Parse("Status: Duty\nPTE Isaac\nDate: 020625\nR/Name: PTE Late")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ext.Update.Names.Len() != 0 || ext.Update.Names.All {
		t.Fatalf("expected no names, got %v", ext.Update.Names)
	}
}

func TestParse_AllMarker(t *testing.T) {
	t.Parallel()

	ext, _ := NewMessageParser().Parse("Status: Off\nR/Name: ALL\nDate: 020625")
	if !ext.Update.Names.All {
		t.Fatalf("expected all marker, got %v", ext.Update.Names)
	}
}

func TestParse_RankOnlyAndNoRank(t *testing.T) {
	t.Parallel()

	ext, _ := NewMessageParser().Parse("Status: WFH\nR/Name: PTE, Isaac Lim, 2lt. Koh\nDate: 020625")
	want := []string{"Isaac Lim", "Koh"}
	if !reflect.DeepEqual(ext.Update.Names.Names, want) {
		t.Fatalf("names want=%v got=%v", want, ext.Update.Names.Names)
	}
}

func TestParse_RangeWithPeriods(t *testing.T) {
	t.Parallel()

	ext, _ := NewMessageParser().Parse("Status: Leave\nR/Name: PTE Isaac\nDate: 29/05/25 (PM) to 02/06/25 (am)")
	u := ext.Update
	if u.DateText != "29/05/25 (PM) - 02/06/25 (AM)" {
		t.Fatalf("date text got=%q", u.DateText)
	}
	if u.DateRange.StartPeriod != model.PeriodPM || u.DateRange.EndPeriod != model.PeriodAM {
		t.Fatalf("periods got start=%v end=%v", u.DateRange.StartPeriod, u.DateRange.EndPeriod)
	}
	wantSlots := []model.SheetSlot{model.SlotAM, model.SlotPM, model.SlotNight}
	if !reflect.DeepEqual(u.OfficialTargets, wantSlots) {
		t.Fatalf("targets want=%v got=%v", wantSlots, u.OfficialTargets)
	}
	wantInformal := []model.InformalSheet{
		{Year: 2025, Month: 5, Slot: model.SlotAM},
		{Year: 2025, Month: 5, Slot: model.SlotPM},
		{Year: 2025, Month: 6, Slot: model.SlotAM},
		{Year: 2025, Month: 6, Slot: model.SlotPM},
	}
	if !reflect.DeepEqual(u.InformalTargets, wantInformal) {
		t.Fatalf("informal want=%v got=%v", wantInformal, u.InformalTargets)
	}
}

func TestParse_SingleDatePeriodBroadNet(t *testing.T) {
	t.Parallel()

	cases := []struct {
		msg  string
		want []model.SheetSlot
	}{
		// AM 写在状态里
		{"Status: MA (AM)\nR/Name: PTE A\nDate: 020625", []model.SheetSlot{model.SlotAM}},
		// PM 写在地点里，MC 下午开始同时占用夜间
		{"Status: MC @ home PM\nR/Name: PTE A\nDate: 020625", []model.SheetSlot{model.SlotPM, model.SlotNight}},
		// PM 写在日期里
		{"Status: Off\nR/Name: PTE A\nDate: 02/06/25 (PM)", []model.SheetSlot{model.SlotPM, model.SlotNight}},
		// AM 不占夜间
		{"Status: Off\nR/Name: PTE A\nDate: 02/06/25 AM", []model.SheetSlot{model.SlotAM}},
		// 无时段：AM + PM，非夜间状态
		{"Status: WFH\nR/Name: PTE A\nDate: 020625", []model.SheetSlot{model.SlotAM, model.SlotPM}},
	}
	for _, tc := range cases {
		ext, err := NewMessageParser().Parse(tc.msg)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.msg, err)
		}
		if !reflect.DeepEqual(ext.Update.OfficialTargets, tc.want) {
			t.Fatalf("%q targets want=%v got=%v", tc.msg, tc.want, ext.Update.OfficialTargets)
		}
	}
}

func TestParse_LocationStripsPeriod(t *testing.T) {
	t.Parallel()

	ext, _ := NewMessageParser().Parse("Status: Outstation at Mandai Hill (PM)\nR/Name: PTE A\nDate: 020625")
	if ext.Update.Location != "Mandai Hill" {
		t.Fatalf("location got=%q", ext.Update.Location)
	}
	if !reflect.DeepEqual(ext.Update.OfficialTargets, []model.SheetSlot{model.SlotPM}) {
		t.Fatalf("targets got=%v", ext.Update.OfficialTargets)
	}
}

func TestParse_StayStatusNightOnly(t *testing.T) {
	t.Parallel()

	ext, _ := NewMessageParser().Parse("Status: Stay In\nR/Name: PTE A\nDate: 020625")
	if !reflect.DeepEqual(ext.Update.OfficialTargets, []model.SheetSlot{model.SlotNight}) {
		t.Fatalf("targets got=%v", ext.Update.OfficialTargets)
	}
	if len(ext.Update.InformalTargets) != 0 {
		t.Fatalf("stay status must not target informal sheets: %v", ext.Update.InformalTargets)
	}
}

func TestParse_LocationAndReasonOverride(t *testing.T) {
	t.Parallel()

	ext, _ := NewMessageParser().Parse("Status: Outstation @ KC3\nR/Name: PTE A\nDate: 020625\nLocation: Kranji Camp\nRemarks: course brief")
	if ext.Update.Location != "Kranji Camp" {
		t.Fatalf("location override got=%q", ext.Update.Location)
	}
	if ext.Update.Reason != "course brief" {
		t.Fatalf("reason got=%q", ext.Update.Reason)
	}
}

func TestParse_MCNumberPriority(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"MC No. 12345", "MC No: 12345", "MC Number: 12345", "MC No.: 12345"} {
		ext, _ := NewMessageParser().Parse("Status: MC\nR/Name: PTE A\nDate: 020625\nReason: fever\n" + line)
		if ext.Update.Reason != "MC No. 12345" {
			t.Fatalf("%q reason got=%q", line, ext.Update.Reason)
		}
	}
}

func TestParse_InvalidDateIsNotFatal(t *testing.T) {
	t.Parallel()

	ext, err := NewMessageParser().Parse("Status: Leave\nR/Name: PTE A\nDate: 310225")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ext.Update.DateText != "" {
		t.Fatalf("invalid date should normalize to empty, got %q", ext.Update.DateText)
	}
	if len(ext.Warnings) == 0 {
		t.Fatalf("expected a warning for the invalid date")
	}
}

func TestSummary_ContainsFields(t *testing.T) {
	t.Parallel()

	ext, _ := NewMessageParser().Parse("Status: Outstation @ KC3\nR/Name: PTE Isaac\nDate: 150525\nReason: exercise")
	s := ext.Summary()
	for _, want := range []string{"Status: OUTSTATION", "Location: KC3", "Names: Isaac", "Dates: 15/05/25", "Reason: exercise", "Sheets: AM, PM, May AM, May PM"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}
}
