package model

import (
	"sort"
	"strings"
)

// Mutation 单元格写入
type Mutation struct {
	Cell  string `json:"cell"`
	Value any    `json:"value"`
}

// MutationBatch 一张表的一次原子批量写入
type MutationBatch struct {
	Sheet     string     `json:"sheet"`
	Mutations []Mutation `json:"mutations"`
}

// Add 追加写入
func (b *MutationBatch) Add(cell string, value any) {
	b.Mutations = append(b.Mutations, Mutation{Cell: cell, Value: value})
}

// Len 写入数量
func (b MutationBatch) Len() int {
	return len(b.Mutations)
}

// MatchKind 姓名解析结果类型
type MatchKind int

const (
	MatchNotFound MatchKind = iota
	MatchUnique
	MatchAmbiguous
)

// String 结果类型文本
func (k MatchKind) String() string {
	switch k {
	case MatchUnique:
		return "unique"
	case MatchAmbiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// NameMatch 姓名解析结果 {Unique(row) | NotFound | Ambiguous(candidates)}
type NameMatch struct {
	Kind       MatchKind `json:"kind"`
	Row        int       `json:"row"`
	Candidates []int     `json:"candidates,omitempty"`
}

// Unique 唯一命中
func Unique(row int) NameMatch {
	return NameMatch{Kind: MatchUnique, Row: row}
}

// NotFound 未命中
func NotFound() NameMatch {
	return NameMatch{Kind: MatchNotFound, Row: -1}
}

// Ambiguous 多个候选
func Ambiguous(candidates []int) NameMatch {
	c := append([]int(nil), candidates...)
	sort.Ints(c)
	return NameMatch{Kind: MatchAmbiguous, Row: -1, Candidates: c}
}

// Resolved 是否唯一命中
func (m NameMatch) Resolved() bool {
	return m.Kind == MatchUnique
}

// StayRotation 留营/离营轮换名单
type StayRotation struct {
	Members []string `json:"members"`
	StayIn  string   `json:"stayIn"`
	StayOut string   `json:"stayOut"`
}

// IsMarker 是否为轮换状态之一
func (r StayRotation) IsMarker(status string) bool {
	return strings.EqualFold(status, r.StayIn) || strings.EqualFold(status, r.StayOut)
}

// Cleared 周五清空轮换名单，本次运行无人受保护
func (r StayRotation) Cleared() StayRotation {
	return StayRotation{StayIn: r.StayIn, StayOut: r.StayOut}
}
