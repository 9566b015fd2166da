package parser

import (
	"log"
	"regexp"
	"strings"
	"time"

	"paradestate/internal/model"
	"paradestate/internal/taxonomy"
)

var (
	statusLineRe   = regexp.MustCompile(`(?im)^[ \t]*Status[ \t]*:?[ \t]*(.+?)(?:(?:[ \t]*@[ \t]*|[ \t]+(?:to|at)[ \t]+)(.*?))?[ \t]*$`)
	nameLineRe     = regexp.MustCompile(`(?i)^(?:R|Rank)/Names?[ \t]*:?[ \t]*(.*)$`)
	dateStartRe    = regexp.MustCompile(`(?i)^Dates?\b`)
	dateLineRe     = regexp.MustCompile(`(?im)^[ \t]*Dates?[ \t]*:?[ \t]*(.+?)[ \t]*$`)
	locationLineRe = regexp.MustCompile(`(?i)^Location[ \t]*:[ \t]*(.+)$`)
	reasonLineRe   = regexp.MustCompile(`(?i)^(?:Reason|Remarks?)[ \t]*:[ \t]*(.+)$`)
	mcNumberLineRe = regexp.MustCompile(`(?i)^MC[ \t]*(?:No\.?|Number)[ \t]*\.?[ \t]*:?[ \t]*(.+)$`)
)

// statusRule Status 行：状态短语 + 行尾可选的 "@ / to / at <地点>"
func statusRule(text string) (status, location Field) {
	m := statusLineRe.FindStringSubmatch(text)
	if m == nil {
		return Field{}, Field{}
	}
	status = Field{Value: strings.TrimSpace(m[1]), Raw: m[0], Found: true}
	if loc := strings.TrimSpace(m[2]); loc != "" {
		// AM/PM 属于日期信息，不计入地点
		location = Field{Value: StripPeriods(loc), Raw: loc, Found: true}
	}
	return status, location
}

// nameRule R/Name 段落：同行逗号分隔，后续行原样收集，遇到 Date 行即结束扫描
func nameRule(lines []string) []string {
	var names []string
	open := false
	for _, line := range lines {
		if m := nameLineRe.FindStringSubmatch(line); m != nil {
			open = true
			for _, n := range strings.Split(m[1], ",") {
				if n = strings.TrimSpace(n); n != "" {
					names = append(names, n)
				}
			}
			continue
		}
		if dateStartRe.MatchString(line) {
			break
		}
		if open && line != "" {
			names = append(names, line)
		}
	}
	return names
}

// StripRank 去掉首个 token 中的军衔；首 token 不是军衔时原样保留
func StripRank(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return ""
	}
	if taxonomy.IsRank(tokens[0]) {
		tokens = tokens[1:]
	}
	return strings.Join(tokens, " ")
}

// buildNameList 处理 "all" 标记与军衔
func buildNameList(raw []string) model.NameList {
	for _, n := range raw {
		if strings.EqualFold(strings.TrimSpace(n), "all") {
			return model.AllNames()
		}
	}
	var out model.NameList
	for _, n := range raw {
		if bare := StripRank(n); bare != "" {
			out.Names = append(out.Names, bare)
		}
	}
	return out
}

// dateRule Date 行原文
func dateRule(text string) Field {
	value, raw, ok := firstSubmatch(dateLineRe, text)
	if !ok {
		return Field{}
	}
	return Field{Value: value, Raw: raw, Found: true}
}

// parsedDates 日期解析结果
type parsedDates struct {
	rng    model.DateRange
	am, pm bool // 单日模式下检测到的时段
}

// parseDates 解析日期；范围按两段各自识别 AM/PM，单日在 状态+地点+日期 合并文本中识别
func parseDates(ext *Extraction) parsedDates {
	raw := NormalizeDateSeparators(ext.RawDate.Value)
	var out parsedDates

	if strings.Contains(raw, "-") {
		parts := strings.SplitN(raw, "-", 2)
		out.rng.IsRange = true
		out.rng.StartPeriod = periodOf(parts[0])
		out.rng.EndPeriod = periodOf(parts[1])
		out.rng.Start = normalizeLogged(ext, parts[0])
		out.rng.End = normalizeLogged(ext, parts[1])

		switch {
		case out.rng.Start.IsZero() && !out.rng.End.IsZero():
			out.rng.Start = out.rng.End
		case out.rng.End.IsZero() && !out.rng.Start.IsZero():
			out.rng.End = out.rng.Start
		}
		if out.rng.End.Before(out.rng.Start) {
			log.Printf("[parser] 日期范围倒置，已交换: %q", ext.RawDate.Value)
			out.rng.Start, out.rng.End = out.rng.End, out.rng.Start
			out.rng.StartPeriod, out.rng.EndPeriod = out.rng.EndPeriod, out.rng.StartPeriod
		}
		return out
	}

	out.am, out.pm = DetectPeriod(ext.RawStatus.Value + " " + ext.RawLocation.Raw + " " + raw)
	if raw == "" {
		return out
	}
	t := normalizeLogged(ext, raw)
	out.rng.Start, out.rng.End = t, t
	switch {
	case out.am && !out.pm:
		out.rng.StartPeriod, out.rng.EndPeriod = model.PeriodAM, model.PeriodAM
	case out.pm && !out.am:
		out.rng.StartPeriod, out.rng.EndPeriod = model.PeriodPM, model.PeriodPM
	}
	return out
}

func normalizeLogged(ext *Extraction, token string) time.Time {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}
	}
	_, parsed, err := NormalizeDate(token)
	if err != nil {
		log.Printf("[parser] 无效日期 %q: %v", token, err)
		ext.warn("Invalid date '%s' ignored", StripPeriods(token))
		return time.Time{}
	}
	return parsed
}

// overrideRule Location / Reason / Remark / MC No. 行；MC No. 优先于 Reason/Remark
func overrideRule(lines []string) (location, reason Field) {
	var mcNumber Field
	for _, line := range lines {
		if !location.Found {
			if m := locationLineRe.FindStringSubmatch(line); m != nil {
				location = Field{Value: strings.TrimSpace(m[1]), Raw: line, Found: true}
				continue
			}
		}
		if !mcNumber.Found {
			if m := mcNumberLineRe.FindStringSubmatch(line); m != nil {
				mcNumber = Field{Value: "MC No. " + strings.TrimSpace(m[1]), Raw: line, Found: true}
				continue
			}
		}
		if !reason.Found {
			if m := reasonLineRe.FindStringSubmatch(line); m != nil {
				reason = Field{Value: strings.TrimSpace(m[1]), Raw: line, Found: true}
			}
		}
	}
	if mcNumber.Found {
		reason = mcNumber
	}
	return location, reason
}
