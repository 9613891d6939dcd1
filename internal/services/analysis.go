package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"thaimooc-backend-go/internal/ai"
	"thaimooc-backend-go/internal/db"
)

// A stored analysis stays fresh for seven days; after that the next read
// recomputes it.
const analysisFreshness = 7 * 24 * time.Hour

type SkillAnalysisDTO struct {
	CourseID   string          `json:"courseId"`
	HardSkills []ai.SkillScore `json:"hardSkills"`
	SoftSkills []ai.SkillScore `json:"softSkills"`
	Reasoning  string          `json:"reasoning"`
	Cached     bool            `json:"cached"`
	AgeDays    *int            `json:"ageDays,omitempty"`
}

func analysisIsFresh(createdAt, now time.Time) bool {
	return now.Sub(createdAt) < analysisFreshness
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clampScores(scores []ai.SkillScore) []ai.SkillScore {
	clamped := make([]ai.SkillScore, 0, len(scores))
	for _, s := range scores {
		clamped = append(clamped, ai.SkillScore{Name: s.Name, Score: clampScore(s.Score)})
	}
	return clamped
}

// fallbackAnalysis is the deterministic placeholder served when the provider
// is unavailable; the caller always gets a well-formed score structure.
func fallbackAnalysis() ai.AnalysisResult {
	return ai.AnalysisResult{
		HardSkills: []ai.SkillScore{
			{Name: "Domain Knowledge", Score: 60},
			{Name: "Applied Practice", Score: 55},
			{Name: "Tools & Techniques", Score: 50},
		},
		SoftSkills: []ai.SkillScore{
			{Name: "Self-Directed Learning", Score: 65},
			{Name: "Critical Thinking", Score: 55},
			{Name: "Communication", Score: 50},
		},
		Reasoning: "Automatic estimate: the analysis provider was unavailable, so baseline scores are shown.",
	}
}

// GetOrComputeAnalysis returns the stored analysis for the course when it is
// younger than the freshness window, otherwise recomputes and persists a new
// one.
func GetOrComputeAnalysis(ctx context.Context, database *sqlx.DB, provider ai.Provider, courseID string) (*SkillAnalysisDTO, error) {
	course, err := GetCourse(database, courseID, true)
	if err != nil {
		return nil, err
	}

	stored, found, err := latestAnalysisRow(database, courseID)
	if err != nil {
		return nil, err
	}
	if found && analysisIsFresh(stored.CreatedAt, time.Now().UTC()) {
		dto := &SkillAnalysisDTO{CourseID: courseID, Reasoning: stored.Reasoning, Cached: true}
		_ = json.Unmarshal(stored.HardSkills, &dto.HardSkills)
		_ = json.Unmarshal(stored.SoftSkills, &dto.SoftSkills)
		age := int(time.Now().UTC().Sub(stored.CreatedAt).Hours() / 24)
		dto.AgeDays = &age
		return dto, nil
	}

	return computeAndStore(ctx, database, provider, course)
}

type analysisRow struct {
	HardSkills []byte    `db:"hard_skills"`
	SoftSkills []byte    `db:"soft_skills"`
	Reasoning  string    `db:"reasoning"`
	CreatedAt  time.Time `db:"created_at"`
}

// latestAnalysisRow loads the newest stored analysis. A missing row is a
// normal miss; any other failure is surfaced so a broken database never
// triggers a provider call.
func latestAnalysisRow(q db.Queryer, courseID string) (analysisRow, bool, error) {
	row := analysisRow{}
	err := q.Get(&row, `
SELECT hard_skills, soft_skills, reasoning, created_at
FROM course_skill_analysis
WHERE course_id = $1
ORDER BY created_at DESC
LIMIT 1`, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return analysisRow{}, false, nil
	}
	if err != nil {
		return analysisRow{}, false, WrapError(err, "load skill analysis")
	}
	return row, true, nil
}

// ForceReanalyze drops every stored analysis for the course and recomputes
// immediately.
func ForceReanalyze(ctx context.Context, database *sqlx.DB, provider ai.Provider, courseID string) (*SkillAnalysisDTO, error) {
	course, err := GetCourse(database, courseID, true)
	if err != nil {
		return nil, err
	}
	if _, err := database.Exec(`DELETE FROM course_skill_analysis WHERE course_id = $1`, courseID); err != nil {
		return nil, WrapError(err, "clear skill analysis")
	}
	return computeAndStore(ctx, database, provider, course)
}

func computeAndStore(ctx context.Context, database *sqlx.DB, provider ai.Provider, course *CourseDTO) (*SkillAnalysisDTO, error) {
	profile := ai.CourseProfile{
		TitleTh:        course.TitleTh,
		TitleEn:        course.TitleEn,
		Description:    derefOr(course.Description, ""),
		Outcomes:       course.LearningOutcomes,
		Prerequisites:  course.Prerequisites,
		TargetAudience: course.TargetAudience,
	}
	for _, category := range course.Categories {
		profile.Categories = append(profile.Categories, category.NameEn)
	}
	for _, courseType := range course.CourseTypes {
		profile.CourseTypes = append(profile.CourseTypes, courseType.NameEn)
	}

	result, err := provider.AnalyzeCourse(ctx, profile)
	if err != nil {
		log.Printf("skill analysis for course %s fell back to placeholder: %v", course.ID, err)
		result = fallbackAnalysis()
	}
	result.HardSkills = clampScores(result.HardSkills)
	result.SoftSkills = clampScores(result.SoftSkills)

	hardJSON, _ := json.Marshal(result.HardSkills)
	softJSON, _ := json.Marshal(result.SoftSkills)
	_, err = database.Exec(`
INSERT INTO course_skill_analysis (id, course_id, hard_skills, soft_skills, reasoning, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), course.ID, hardJSON, softJSON, result.Reasoning, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "store skill analysis")
	}
	return &SkillAnalysisDTO{
		CourseID:   course.ID,
		HardSkills: result.HardSkills,
		SoftSkills: result.SoftSkills,
		Reasoning:  result.Reasoning,
		Cached:     false,
	}, nil
}
