package parser

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"paradestate/internal/model"
)

// ErrInvalidDate 无法解析或不是真实日历日期
var ErrInvalidDate = errors.New("invalid date")

var (
	toSeparatorRe  = regexp.MustCompile(`(?i)\s+to\s+`)
	compactDateRe  = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2}|\d{4})$`)
	slashDateRe    = regexp.MustCompile(`^(\d{1,2})[/.](\d{1,2})[/.](\d{2}|\d{4})$`)
	dayMonthYearRe = regexp.MustCompile(`^(\d{1,2})[/.](\d{1,2})(?:[/.](\d{2}|\d{4}))?`)
	digitsRe       = regexp.MustCompile(`\d+`)
)

// NormalizeDateSeparators 统一范围分隔符："to" 与各类长短横线都规范为 "-"
func NormalizeDateSeparators(text string) string {
	text = strings.NewReplacer("–", "-", "—", "-", "~", "-").Replace(text)
	return toSeparatorRe.ReplaceAllString(text, " - ")
}

// DetectPeriod 检测文本中的 AM/PM 标记（大小写不敏感，可带括号）
func DetectPeriod(text string) (am, pm bool) {
	for _, m := range periodRe.FindAllStringSubmatch(text, -1) {
		switch strings.ToUpper(m[1]) {
		case "AM":
			am = true
		case "PM":
			pm = true
		}
	}
	return am, pm
}

// periodOf 单段文本的时段（同时出现时以先出现者为准）
func periodOf(text string) model.Period {
	m := periodRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return model.PeriodNone
	}
	if strings.EqualFold(m[1], "AM") {
		return model.PeriodAM
	}
	return model.PeriodPM
}

// NormalizeDate 将 "150525"、"15/05/25"、"15.5.2025" 等规范为 dd/mm/yy 并校验是否为真实日期；
// 非法日期返回空串与 ErrInvalidDate
func NormalizeDate(token string) (string, time.Time, error) {
	token = strings.TrimSpace(StripPeriods(token))
	var m []string
	if m = compactDateRe.FindStringSubmatch(token); m == nil {
		m = slashDateRe.FindStringSubmatch(token)
	}
	if m == nil {
		return "", time.Time{}, ErrInvalidDate
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", time.Time{}, ErrInvalidDate
	}
	return t.Format(model.DateLayout), t, nil
}

// ParseEndDate 解析名册 Date 单元格的结束日期及其可选的尾部时段标记
func ParseEndDate(cell string) (time.Time, model.Period, error) {
	cell = NormalizeDateSeparators(strings.TrimSpace(cell))
	if cell == "" {
		return time.Time{}, model.PeriodNone, ErrInvalidDate
	}
	parts := strings.Split(cell, "-")
	last := strings.TrimSpace(parts[len(parts)-1])
	period := periodOf(last)
	_, t, err := NormalizeDate(last)
	if err != nil {
		return time.Time{}, model.PeriodNone, err
	}
	return t, period, nil
}

// endpoint 日期片段中的日/月/年数字；月份或年份无法识别时为 0
type endpoint struct {
	day, month, year int
}

// parseEndpoint 从日期片段中取日、月、年（紧凑格式按 ddmmyy 取位）
func parseEndpoint(token string) (endpoint, bool) {
	token = strings.TrimSpace(StripPeriods(token))
	var ep endpoint
	if m := dayMonthYearRe.FindStringSubmatch(token); m != nil {
		ep.day, _ = strconv.Atoi(m[1])
		ep.month, _ = strconv.Atoi(m[2])
		ep.year = fullYear(m[3])
		return ep, true
	}
	digits := digitsRe.FindString(token)
	if len(digits) < 2 {
		return ep, false
	}
	ep.day, _ = strconv.Atoi(digits[:2])
	if len(digits) >= 4 {
		ep.month, _ = strconv.Atoi(digits[2:4])
	}
	if len(digits) >= 6 {
		ep.year = fullYear(digits[4:])
	}
	return ep, true
}

func fullYear(s string) int {
	y, err := strconv.Atoi(s)
	if err != nil || s == "" {
		return 0
	}
	if len(s) == 2 {
		y += 2000
	}
	return y
}

// relation 端点月份相对日表月份的位置：-1 之前、0 同月（或月份未知）、1 之后
func (ep endpoint) relation(sheet model.InformalSheet) int {
	if ep.month < 1 || ep.month > 12 {
		return 0
	}
	year := ep.year
	if year == 0 {
		year = sheet.Year
	}
	a := year*12 + ep.month
	b := sheet.Year*12 + int(sheet.Month)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ExtractDays 枚举某张按月日表需要写入的日期
//
// 端点月份与日表月份不同时做边界截断：起点截到 1 号，终点截到当月最后一天；
// 整个范围落在日表月份之外时返回空。月份无法识别时按日数字原样使用，结果始终落在 [1, 当月天数] 内。
func ExtractDays(dateText string, sheet model.InformalSheet) []int {
	text := NormalizeDateSeparators(dateText)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	last := sheet.LastDay()
	parts := strings.SplitN(text, "-", 2)

	start, ok := parseEndpoint(parts[0])
	if !ok {
		return nil
	}
	if len(parts) == 1 {
		if start.relation(sheet) != 0 || start.day < 1 || start.day > last {
			return nil
		}
		return []int{start.day}
	}

	end, ok := parseEndpoint(parts[1])
	if !ok {
		return nil
	}

	startDay, endDay := start.day, end.day
	switch start.relation(sheet) {
	case -1:
		startDay = 1
	case 1:
		return nil
	}
	switch end.relation(sheet) {
	case 1:
		endDay = last
	case -1:
		return nil
	}
	startDay = clamp(startDay, 1, last)
	endDay = clamp(endDay, 1, last)

	var days []int
	for d := startDay; d <= endDay; d++ {
		days = append(days, d)
	}
	return days
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
