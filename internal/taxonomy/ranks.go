package taxonomy

import "strings"

// Ranks 军衔缩写词表
var Ranks = []string{
	"REC", "PTE", "PFC", "LCP", "CPL", "CFC",
	"3SG", "2SG", "1SG", "SSG", "MSG",
	"3WO", "2WO", "1WO", "MWO", "SWO", "CWO",
	"OCT", "SCT",
	"2LT", "LTA", "LT", "CPT", "MAJ", "LTC", "SLTC", "COL", "BG", "MG", "LG",
	"ME1", "ME2", "ME3", "ME4", "ME5", "ME6", "ME7", "ME8",
	"DX", "MR", "MS", "MDM", "DR",
}

var rankSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Ranks))
	for _, r := range Ranks {
		m[r] = struct{}{}
	}
	return m
}()

// IsRank 判断 token 是否为军衔（忽略大小写与尾部句点）
func IsRank(token string) bool {
	t := strings.ToUpper(strings.TrimRight(strings.TrimSpace(token), "."))
	_, ok := rankSet[t]
	return ok
}
