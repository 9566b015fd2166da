package resolver

import (
	"log"
	"sort"
	"strings"

	"paradestate/internal/model"
)

// Scope 搜索范围
type Scope int

const (
	// ScopeOfficial 正式表：只在目标排内搜索
	ScopeOfficial Scope = iota
	// ScopeInformal 日表：不按排过滤
	ScopeInformal
)

// String 范围文本
func (s Scope) String() string {
	if s == ScopeInformal {
		return "informal"
	}
	return "official"
}

// Resolver 三级回退的姓名解析器
//
// 只负责给出 {Unique | NotFound | Ambiguous}，跳过/记录/汇报等策略由调用方决定。
// 对同一份名册快照，相同输入总是得到相同结果。
type Resolver struct {
	Platoon string
}

// New 创建解析器，platoon 为正式表范围内的目标排
func New(platoon string) *Resolver {
	return &Resolver{Platoon: platoon}
}

// InScope 按范围过滤名册行
func (r *Resolver) InScope(rows []model.RosterRow, scope Scope) []model.RosterRow {
	if scope == ScopeInformal || r.Platoon == "" {
		return rows
	}
	out := make([]model.RosterRow, 0, len(rows))
	for _, row := range rows {
		if strings.EqualFold(row.Platoon, r.Platoon) {
			out = append(out, row)
		}
	}
	return out
}

// Resolve 将姓名片段解析到名册行（返回 RosterRow.Index）
func (r *Resolver) Resolve(name string, rows []model.RosterRow, scope Scope) model.NameMatch {
	needle := normalize(name)
	if needle == "" {
		return model.NotFound()
	}
	rows = r.InScope(rows, scope)

	// 1. 全名子串
	direct := matchRows(rows, func(row model.RosterRow) bool {
		return strings.Contains(normalize(row.Name), needle)
	})
	if len(direct) == 1 {
		return model.Unique(direct[0])
	}

	// 2. 逐 token 匹配去空白后的姓名，首个唯一命中即返回
	tally := make(map[int]int)
	for _, token := range strings.Fields(needle) {
		hits := matchRows(rows, func(row model.RosterRow) bool {
			return strings.Contains(squish(row.Name), token)
		})
		if len(hits) == 1 {
			return model.Unique(hits[0])
		}
		if len(hits) == 0 {
			log.Printf("[resolver] token %q 无匹配 (%s)", token, scope)
		} else {
			log.Printf("[resolver] token %q 有 %d 个候选 (%s)", token, len(hits), scope)
		}
		for _, idx := range hits {
			tally[idx]++
		}
	}

	// 3. 计票：唯一最高票胜出，并列视为无法判断
	if best, ok := strictMax(tally); ok {
		return model.Unique(best)
	}

	candidates := make(map[int]struct{}, len(direct)+len(tally))
	for _, idx := range direct {
		candidates[idx] = struct{}{}
	}
	for idx := range tally {
		candidates[idx] = struct{}{}
	}
	if len(candidates) == 0 {
		log.Printf("[resolver] %q 未找到 (%s)", name, scope)
		return model.NotFound()
	}
	out := make([]int, 0, len(candidates))
	for idx := range candidates {
		out = append(out, idx)
	}
	log.Printf("[resolver] %q 存在歧义，候选行 %v (%s)", name, out, scope)
	return model.Ambiguous(out)
}

func matchRows(rows []model.RosterRow, pred func(model.RosterRow) bool) []int {
	var out []int
	for _, row := range rows {
		if pred(row) {
			out = append(out, row.Index)
		}
	}
	return out
}

func strictMax(tally map[int]int) (int, bool) {
	if len(tally) == 0 {
		return 0, false
	}
	keys := make([]int, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	best, bestCount, tie := -1, 0, false
	for _, k := range keys {
		switch c := tally[k]; {
		case c > bestCount:
			best, bestCount, tie = k, c, false
		case c == bestCount:
			tie = true
		}
	}
	return best, !tie
}

func normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func squish(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
