package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func analysisBody(t *testing.T, result AnalysisResult) []byte {
	t.Helper()
	content, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": string(content)}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestAnalyzeCourseParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write(analysisBody(t, AnalysisResult{
			HardSkills: []SkillScore{{Name: "SQL", Score: 80}},
			SoftSkills: []SkillScore{{Name: "Communication", Score: 60}},
			Reasoning:  "ok",
		}))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", Model: "test-model"})
	result, err := client.AnalyzeCourse(context.Background(), CourseProfile{TitleEn: "Databases"})
	if err != nil {
		t.Fatalf("AnalyzeCourse: %v", err)
	}
	if len(result.HardSkills) != 1 || result.HardSkills[0].Name != "SQL" {
		t.Fatalf("unexpected hard skills: %#v", result.HardSkills)
	}
	if result.Reasoning != "ok" {
		t.Fatalf("unexpected reasoning: %q", result.Reasoning)
	}
}

func TestAnalyzeCourseRetriesOnceThenSucceeds(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(analysisBody(t, AnalysisResult{
			HardSkills: []SkillScore{{Name: "Go", Score: 70}},
			Reasoning:  "second try",
		}))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", Model: "test-model"})
	result, err := client.AnalyzeCourse(context.Background(), CourseProfile{TitleEn: "Go"})
	if err != nil {
		t.Fatalf("AnalyzeCourse: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if result.Reasoning != "second try" {
		t.Fatalf("unexpected reasoning: %q", result.Reasoning)
	}
}

func TestAnalyzeCourseGivesUpAfterRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", Model: "test-model", Timeout: 2 * time.Second})
	if _, err := client.AnalyzeCourse(context.Background(), CourseProfile{}); err == nil {
		t.Fatalf("expected error after exhausted retries")
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestAnalyzeCourseWithoutKeyFails(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:0", Model: "m"})
	if _, err := client.AnalyzeCourse(context.Background(), CourseProfile{}); err == nil {
		t.Fatalf("expected error when provider is not configured")
	}
}
