package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// SkillScore is one scored skill dimension, 0-100.
type SkillScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type AnalysisResult struct {
	HardSkills []SkillScore `json:"hardSkills"`
	SoftSkills []SkillScore `json:"softSkills"`
	Reasoning  string       `json:"reasoning"`
}

// CourseProfile is the descriptive material sent to the provider.
type CourseProfile struct {
	TitleTh        string
	TitleEn        string
	Description    string
	Outcomes       []string
	Prerequisites  []string
	TargetAudience []string
	Categories     []string
	CourseTypes    []string
}

// Provider analyzes a course into skill score vectors.
type Provider interface {
	AnalyzeCourse(ctx context.Context, profile CourseProfile) (AnalysisResult, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat-completions endpoint and asks for
// a strict JSON object. One retry on failure; callers fall back to a
// deterministic placeholder beyond that.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

const analysisSystemPrompt = `You are a curriculum analyst. Given a course description, score the hard skills and soft skills a learner gains from it.
Respond with a single JSON object: {"hardSkills":[{"name":string,"score":int}],"softSkills":[{"name":string,"score":int}],"reasoning":string}.
Scores are integers from 0 to 100. Provide 3-6 hard skills and 3-5 soft skills. Reasoning is one short paragraph.`

func (c *Client) AnalyzeCourse(ctx context.Context, profile CourseProfile) (AnalysisResult, error) {
	if c.apiKey == "" {
		return AnalysisResult{}, errors.New("analysis provider not configured")
	}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return AnalysisResult{}, ctx.Err()
			}
		}
		result, err := c.analyzeOnce(ctx, profile)
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Printf("skill analysis attempt %d failed: %v", attempt+1, err)
		if ctx.Err() != nil {
			break
		}
	}
	return AnalysisResult{}, lastErr
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat formatSpec    `json:"response_format"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) analyzeOnce(ctx context.Context, profile CourseProfile) (AnalysisResult, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: buildUserPrompt(profile)},
		},
		ResponseFormat: formatSpec{Type: "json_object"},
		Temperature:    0.2,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return AnalysisResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return AnalysisResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AnalysisResult{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return AnalysisResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return AnalysisResult{}, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return AnalysisResult{}, fmt.Errorf("decode provider response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return AnalysisResult{}, errors.New("provider returned no choices")
	}
	var result AnalysisResult
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &result); err != nil {
		return AnalysisResult{}, fmt.Errorf("decode analysis content: %w", err)
	}
	if len(result.HardSkills) == 0 && len(result.SoftSkills) == 0 {
		return AnalysisResult{}, errors.New("provider returned empty analysis")
	}
	return result, nil
}

func buildUserPrompt(profile CourseProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course title (TH): %s\n", profile.TitleTh)
	fmt.Fprintf(&b, "Course title (EN): %s\n", profile.TitleEn)
	if profile.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", profile.Description)
	}
	writeList(&b, "Learning outcomes", profile.Outcomes)
	writeList(&b, "Prerequisites", profile.Prerequisites)
	writeList(&b, "Target audience", profile.TargetAudience)
	writeList(&b, "Categories", profile.Categories)
	writeList(&b, "Course types", profile.CourseTypes)
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, "; "))
}
