package services

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"thaimooc-backend-go/internal/ai"
)

func TestAnalysisIsFresh(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		age  time.Duration
		want bool
	}{
		{time.Hour, true},
		{6 * 24 * time.Hour, true},
		{8 * 24 * time.Hour, false},
		{7*24*time.Hour + time.Minute, false},
	}
	for _, tc := range cases {
		if got := analysisIsFresh(now.Add(-tc.age), now); got != tc.want {
			t.Errorf("analysisIsFresh(age=%v) = %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestLatestAnalysisRowTreatsMissingRowAsMiss(t *testing.T) {
	q := &scriptedQueryer{getErr: sql.ErrNoRows}
	_, found, err := latestAnalysisRow(q, "course-1")
	if err != nil {
		t.Fatalf("a plain miss must not error: %v", err)
	}
	if found {
		t.Fatal("missing row reported as found")
	}
}

func TestLatestAnalysisRowSurfacesQueryFailure(t *testing.T) {
	q := &scriptedQueryer{getErr: errors.New("connection refused")}
	_, found, err := latestAnalysisRow(q, "course-1")
	if err == nil {
		t.Fatal("a failed lookup must not pass for a cache miss")
	}
	if found {
		t.Fatal("failed lookup reported as found")
	}
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		t.Fatalf("driver failure must not carry a client status, got %v", err)
	}
}

func TestClampScores(t *testing.T) {
	clamped := clampScores([]ai.SkillScore{
		{Name: "a", Score: -5},
		{Name: "b", Score: 42},
		{Name: "c", Score: 150},
	})
	want := []int{0, 42, 100}
	for i, score := range clamped {
		if score.Score != want[i] {
			t.Errorf("score[%d] = %d, want %d", i, score.Score, want[i])
		}
	}
}

func TestFallbackAnalysisIsWellFormed(t *testing.T) {
	result := fallbackAnalysis()
	if len(result.HardSkills) == 0 || len(result.SoftSkills) == 0 {
		t.Fatalf("fallback must carry both score vectors")
	}
	for _, s := range append(result.HardSkills, result.SoftSkills...) {
		if s.Score < 0 || s.Score > 100 {
			t.Errorf("fallback score %q=%d outside [0,100]", s.Name, s.Score)
		}
	}
	if result.Reasoning == "" {
		t.Errorf("fallback must explain itself")
	}
	again := fallbackAnalysis()
	if len(again.HardSkills) != len(result.HardSkills) || again.Reasoning != result.Reasoning {
		t.Errorf("fallback must be deterministic")
	}
}
