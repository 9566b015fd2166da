package resolver

import (
	"reflect"
	"testing"

	"paradestate/internal/model"
)

func sampleRows() []model.RosterRow {
	return []model.RosterRow{
		{Index: 2, Platoon: "AE", Name: "Isaac Lim Jun Wei"},
		{Index: 3, Platoon: "AE", Name: "Tan Ah Kow"},
		{Index: 4, Platoon: "AE", Name: "Tan Wei Ming"},
		{Index: 5, Platoon: "AE", Name: "John Tan"},
		{Index: 7, Platoon: "BE", Name: "Isaac Ong"},
	}
}

func TestResolve_DirectSubstring(t *testing.T) {
	t.Parallel()

	got := New("AE").Resolve("isaac", sampleRows(), ScopeOfficial)
	if got.Kind != model.MatchUnique || got.Row != 2 {
		t.Fatalf("want unique row 2, got=%+v", got)
	}
}

func TestResolve_InformalScopeIgnoresPlatoon(t *testing.T) {
	t.Parallel()

	got := New("AE").Resolve("Isaac", sampleRows(), ScopeInformal)
	if got.Kind != model.MatchAmbiguous || !reflect.DeepEqual(got.Candidates, []int{2, 7}) {
		t.Fatalf("want ambiguous [2 7], got=%+v", got)
	}
}

func TestResolve_TokenFallback(t *testing.T) {
	t.Parallel()

	r := New("AE")
	if got := r.Resolve("Tan Ming", sampleRows(), ScopeOfficial); got.Row != 4 || !got.Resolved() {
		t.Fatalf("want unique row 4, got=%+v", got)
	}
	// 去空白后匹配
	if got := r.Resolve("AhKow", sampleRows(), ScopeOfficial); got.Row != 3 || !got.Resolved() {
		t.Fatalf("want unique row 3, got=%+v", got)
	}
}

func TestResolve_MajorityTally(t *testing.T) {
	t.Parallel()

	got := New("AE").Resolve("Wei Tan", sampleRows(), ScopeOfficial)
	if got.Kind != model.MatchUnique || got.Row != 4 {
		t.Fatalf("want unique row 4 by tally, got=%+v", got)
	}
}

func TestResolve_TieIsAmbiguous(t *testing.T) {
	t.Parallel()

	got := New("AE").Resolve("Tan", sampleRows(), ScopeOfficial)
	if got.Kind != model.MatchAmbiguous || !reflect.DeepEqual(got.Candidates, []int{3, 4, 5}) {
		t.Fatalf("want ambiguous [3 4 5], got=%+v", got)
	}
	if got.Resolved() {
		t.Fatalf("ambiguous result must not be resolved")
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()

	r := New("AE")
	for _, name := range []string{"Zulkifli", "", "   "} {
		if got := r.Resolve(name, sampleRows(), ScopeOfficial); got.Kind != model.MatchNotFound || got.Row != -1 {
			t.Fatalf("%q want not found, got=%+v", name, got)
		}
	}
	// BE 排的人不在正式范围内
	if got := r.Resolve("Ong", sampleRows(), ScopeOfficial); got.Kind != model.MatchNotFound {
		t.Fatalf("other platoon must be out of scope, got=%+v", got)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()

	r := New("AE")
	rows := sampleRows()
	for _, name := range []string{"Isaac", "Tan", "Wei Tan", "Nobody"} {
		for _, scope := range []Scope{ScopeOfficial, ScopeInformal} {
			first := r.Resolve(name, rows, scope)
			for i := 0; i < 5; i++ {
				if got := r.Resolve(name, rows, scope); !reflect.DeepEqual(got, first) {
					t.Fatalf("%q/%s not idempotent: first=%+v got=%+v", name, scope, first, got)
				}
			}
		}
	}
}
