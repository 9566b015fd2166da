package taxonomy

import (
	"strings"

	"paradestate/internal/model"
)

// Entry 关键词 -> 规范代码
type Entry struct {
	Keyword string
	Code    string
}

// Table 有序映射表
//
// 匹配规则：按声明顺序做大小写不敏感的子串包含判断，首个命中即返回（非最长匹配、非精确匹配）。
// 因此顺序本身是语义的一部分：更具体的关键词必须声明在与之子串兼容的更泛化关键词之前。
type Table []Entry

// Match 首个命中的条目
func (t Table) Match(raw string) (Entry, bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return Entry{}, false
	}
	for _, e := range t {
		if strings.Contains(upper, e.Keyword) {
			return e, true
		}
	}
	return Entry{}, false
}

// Shadowed 返回因更早的关键词是其子串而永远无法命中的条目
func (t Table) Shadowed() []Entry {
	var out []Entry
	for j := range t {
		for i := 0; i < j; i++ {
			if strings.Contains(t[j].Keyword, t[i].Keyword) {
				out = append(out, t[j])
				break
			}
		}
	}
	return out
}

// 正式状态代码
const (
	Present    = "PRESENT"
	AttachIn   = "ATTACH IN"
	Duty       = "DUTY"
	WFH        = "WFH"
	Outstation = "OUTSTATION"
	Course     = "CSE"
	AO         = "AO"
	Leave      = "LEAVE"
	Off        = "OFF"
	RSIRSO     = "RSI/RSO"
	MC         = "MC"
	MA         = "MA"
	StayIn     = "STAY IN"
	StayOut    = "STAY OUT"
)

// Official 正式状态映射
var Official = Table{
	{"PRESENT", Present},
	{"ATTACH IN", AttachIn},
	{"DUTY", Duty},
	{"UDO", Duty},
	{"CDOS", Duty},
	{"GUARD", Duty},
	{"WFH", WFH},
	{"OUTSTATION", Outstation},
	{"BLOOD DONATION", Outstation},
	{"OS", Outstation},
	{"CSE", Course},
	{"AO", AO},
	{"LEAVE", Leave},
	{"OFF", Off},
	{"RSI/RSO", RSIRSO},
	{"RSI", RSIRSO},
	{"RSO", RSIRSO},
	{"MC", MC},
	{"MA", MA},
	{"STAY IN", StayIn},
	{"STAY OUT", StayOut},
}

// PresentCode 非正式表中代表中性数字标记的代码
const PresentCode = "1"

// Informal 非正式日表映射（与正式表同一关键词顺序）
var Informal = Table{
	{"PRESENT", PresentCode},
	{"ATTACH IN", PresentCode},
	{"DUTY", "DUTY"},
	{"UDO", "DUTY"},
	{"CDOS", "DUTY"},
	{"GUARD", "DUTY"},
	{"WFH", "WFH"},
	{"OUTSTATION", "OS"},
	{"BLOOD DONATION", "OS"},
	{"OS", "OS"},
	{"CSE", "CSE"},
	{"AO", "AO"},
	{"LEAVE", "LL"},
	{"OFF", "OFF"},
	{"RSI/RSO", "RSO"},
	{"RSI", "RSI"},
	{"RSO", "RSO"},
	{"MC", "MC"},
	{"MA", "MA"},
	{"STAY IN", "STAY IN"},
	{"STAY OUT", "STAY OUT"},
}

// Classify 将原始状态短语映射为正式状态与非正式代码；无命中时正式状态为 Invalid，非正式代码未定义
func Classify(raw string) (model.OfficialStatus, model.InformalCode) {
	entry, ok := Official.Match(raw)
	if !ok {
		return model.Invalid(), model.InformalCode{}
	}
	status := model.ValidStatus(entry.Code)

	var code model.InformalCode
	if ie, ok := Informal.Match(raw); ok {
		if ie.Code == PresentCode {
			code = model.InformalCode{Present: true}
		} else {
			code = model.InformalCode{Code: ie.Code}
		}
	}
	return status, code
}

// NightStatuses 会同时占用夜间时段的状态
var NightStatuses = []string{Duty, Course, AO, Leave, Off, MC}

// BlocksNight 状态是否需要同步写入 NIGHT 表
func BlocksNight(status model.OfficialStatus) bool {
	if !status.Valid {
		return false
	}
	for _, s := range NightStatuses {
		if status.Code == s {
			return true
		}
	}
	return false
}

// IsStayStatus 是否为留营轮换专用状态
func IsStayStatus(status model.OfficialStatus) bool {
	return status.Is(StayIn) || status.Is(StayOut)
}

// DefaultFor 各正式表的默认状态：日间为 PRESENT，夜间为 STAY OUT
func DefaultFor(slot model.SheetSlot) string {
	if slot == model.SlotNight {
		return StayOut
	}
	return Present
}
