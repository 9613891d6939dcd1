package services

import (
	"reflect"
	"strings"
	"testing"
)

func TestResolveInstructorSetLegacyOnly(t *testing.T) {
	refs := resolveInstructorSet(nil, "instr-1")
	want := []courseInstructorRef{{ID: "instr-1", IsPrimary: true}}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %#v, want %#v", refs, want)
	}
}

func TestResolveInstructorSetListOnly(t *testing.T) {
	refs := resolveInstructorSet([]string{"a", "b"}, "")
	want := []courseInstructorRef{
		{ID: "a", IsPrimary: true},
		{ID: "b", IsPrimary: false},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %#v, want %#v", refs, want)
	}
}

func TestResolveInstructorSetLegacyInsideList(t *testing.T) {
	refs := resolveInstructorSet([]string{"a", "b"}, "b")
	want := []courseInstructorRef{
		{ID: "a", IsPrimary: false},
		{ID: "b", IsPrimary: true},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %#v, want %#v", refs, want)
	}
}

func TestResolveInstructorSetLegacyOutsideListIsPrepended(t *testing.T) {
	refs := resolveInstructorSet([]string{"a"}, "z")
	want := []courseInstructorRef{
		{ID: "z", IsPrimary: true},
		{ID: "a", IsPrimary: false},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %#v, want %#v", refs, want)
	}
}

func TestResolveInstructorSetEmpty(t *testing.T) {
	refs := resolveInstructorSet(nil, "")
	if refs == nil || len(refs) != 0 {
		t.Fatalf("expected empty non-nil set, got %#v", refs)
	}
}

func TestResolveInstructorSetDeduplicates(t *testing.T) {
	refs := resolveInstructorSet([]string{"a", "a", " b "}, "")
	want := []courseInstructorRef{
		{ID: "a", IsPrimary: true},
		{ID: "b", IsPrimary: false},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %#v, want %#v", refs, want)
	}
}

func TestReplaceCourseRelationsLeavesOnlyNewSet(t *testing.T) {
	q := &scriptedQueryer{}
	if err := replaceCourseRelations(q, "course_categories", "category_id", "c1", []string{"cat-c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.execs) != 2 {
		t.Fatalf("expected delete + one insert, got %d exec(s)", len(q.execs))
	}
	if !strings.HasPrefix(q.execs[0].query, "DELETE FROM course_categories") {
		t.Errorf("replacement must start by clearing old rows, got %s", q.execs[0].query)
	}
	if !reflect.DeepEqual(q.execs[1].args, []interface{}{"c1", "cat-c"}) {
		t.Errorf("insert args = %#v, want [c1 cat-c]", q.execs[1].args)
	}
}

func TestReplaceCourseRelationsEmptySetClearsAll(t *testing.T) {
	q := &scriptedQueryer{}
	if err := replaceCourseRelations(q, "course_course_types", "course_type_id", "c1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.execs) != 1 || !strings.HasPrefix(q.execs[0].query, "DELETE FROM course_course_types") {
		t.Fatalf("empty set should issue only the delete, got %#v", q.execs)
	}
}

func TestReplaceCourseInstructorsWritesPrimaryFlag(t *testing.T) {
	q := &scriptedQueryer{}
	refs := resolveInstructorSet([]string{"a", "b"}, "")
	if err := replaceCourseInstructors(q, "c1", refs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.execs) != 3 {
		t.Fatalf("expected delete + two inserts, got %d exec(s)", len(q.execs))
	}
	if !reflect.DeepEqual(q.execs[1].args, []interface{}{"c1", "a", true}) {
		t.Errorf("first insert args = %#v, want primary a", q.execs[1].args)
	}
	if !reflect.DeepEqual(q.execs[2].args, []interface{}{"c1", "b", false}) {
		t.Errorf("second insert args = %#v, want non-primary b", q.execs[2].args)
	}
}

func TestNormalizeLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "BEGINNER", false},
		{"beginner", "BEGINNER", false},
		{" Advanced ", "ADVANCED", false},
		{"EXPERT", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeLevel(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeLevel(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeLevel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanIDList(t *testing.T) {
	got := CleanIDList([]string{" 01 ", "", "02", "01"})
	want := []string{"01", "02"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CleanIDList = %#v, want %#v", got, want)
	}
}

func TestTextListJSONNeverNull(t *testing.T) {
	if string(textListJSON(nil)) != "[]" {
		t.Fatalf("nil list should encode as [], got %s", textListJSON(nil))
	}
	if string(textListJSON([]string{"a"})) != `["a"]` {
		t.Fatalf("unexpected encoding: %s", textListJSON([]string{"a"}))
	}
}
