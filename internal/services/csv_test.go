package services

import (
	"testing"
)

func TestSplitIDColumn(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"  ", []string{}},
		{"a|b|c", []string{"a", "b", "c"}},
		{"a| |a|b", []string{"a", "b"}},
	}
	for _, tc := range cases {
		got := splitIDColumn(tc.raw)
		if len(got) != len(tc.want) {
			t.Errorf("splitIDColumn(%q) = %v, want %v", tc.raw, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitIDColumn(%q)[%d] = %q, want %q", tc.raw, i, got[i], tc.want[i])
			}
		}
	}
}

func TestJoinIDColumnRoundTrip(t *testing.T) {
	ids := []string{"cat-1", "cat-2", "cat-3"}
	joined := joinIDColumn(ids)
	back := splitIDColumn(joined)
	if len(back) != len(ids) {
		t.Fatalf("round trip lost ids: %v", back)
	}
	for i := range ids {
		if back[i] != ids[i] {
			t.Errorf("round trip[%d] = %q, want %q", i, back[i], ids[i])
		}
	}
}

func TestCourseCSVHeaderHasRequiredColumns(t *testing.T) {
	seen := map[string]bool{}
	for _, col := range courseCSVHeader {
		seen[col] = true
	}
	for _, required := range []string{"title_th", "title_en", "category_ids"} {
		if !seen[required] {
			t.Errorf("header missing %q", required)
		}
	}
}
