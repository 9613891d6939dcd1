package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"thaimooc-backend-go/internal/db"
)

type InstitutionRefDTO struct {
	ID           string  `json:"id"`
	NameTh       string  `json:"nameTh"`
	NameEn       string  `json:"nameEn"`
	Abbreviation string  `json:"abbreviation"`
	LogoURL      *string `json:"logoUrl"`
}

type CourseDTO struct {
	ID               string             `json:"id"`
	TitleTh          string             `json:"titleTh"`
	TitleEn          string             `json:"titleEn"`
	Description      *string            `json:"description"`
	LearningOutcomes []string           `json:"learningOutcomes"`
	Prerequisites    []string           `json:"prerequisites"`
	TargetAudience   []string           `json:"targetAudience"`
	Institution      *InstitutionRefDTO `json:"institution"`
	ThumbnailURL     *string            `json:"thumbnailUrl"`
	BannerURL        *string            `json:"bannerUrl"`
	VideoURL         *string            `json:"videoUrl"`
	EnrollURL        *string            `json:"enrollUrl"`
	DurationHours    int                `json:"durationHours"`
	EnrollmentCount  int                `json:"enrollmentCount"`
	HasCertificate   bool               `json:"hasCertificate"`
	Level            string             `json:"level"`
	IsActive         bool               `json:"isActive"`
	Categories       []CategoryDTO      `json:"categories"`
	CourseTypes      []CourseTypeDTO    `json:"courseTypes"`
	Instructors      []InstructorDTO    `json:"instructors"`
	CreatedAt        string             `json:"createdAt"`
	UpdatedAt        string             `json:"updatedAt"`
}

type courseRow struct {
	ID              string    `db:"id"`
	TitleTh         string    `db:"title_th"`
	TitleEn         string    `db:"title_en"`
	Description     *string   `db:"description"`
	Outcomes        []byte    `db:"learning_outcomes"`
	Prerequisites   []byte    `db:"prerequisites"`
	TargetAudience  []byte    `db:"target_audience"`
	InstitutionID   *string   `db:"institution_id"`
	ThumbnailID     *string   `db:"thumbnail_media_id"`
	BannerID        *string   `db:"banner_media_id"`
	VideoURL        *string   `db:"video_url"`
	EnrollURL       *string   `db:"enroll_url"`
	DurationHours   int       `db:"duration_hours"`
	EnrollmentCount int       `db:"enrollment_count"`
	HasCertificate  bool      `db:"has_certificate"`
	Level           string    `db:"level"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
	InstNameTh      *string   `db:"inst_name_th"`
	InstNameEn      *string   `db:"inst_name_en"`
	InstAbbrev      *string   `db:"inst_abbreviation"`
	InstLogoID      *string   `db:"inst_logo_media_id"`
}

const courseSelect = `
SELECT c.id, c.title_th, c.title_en, c.description, c.learning_outcomes, c.prerequisites,
       c.target_audience, c.institution_id, c.thumbnail_media_id, c.banner_media_id,
       c.video_url, c.enroll_url, c.duration_hours, c.enrollment_count, c.has_certificate,
       c.level, c.is_active, c.created_at, c.updated_at,
       i.name_th AS inst_name_th, i.name_en AS inst_name_en,
       i.abbreviation AS inst_abbreviation, i.logo_media_id AS inst_logo_media_id
FROM courses c
LEFT JOIN institutions i ON i.id = c.institution_id
`

func (row courseRow) toDTO() *CourseDTO {
	dto := &CourseDTO{
		ID:               row.ID,
		TitleTh:          row.TitleTh,
		TitleEn:          row.TitleEn,
		Description:      row.Description,
		LearningOutcomes: decodeTextList(row.Outcomes),
		Prerequisites:    decodeTextList(row.Prerequisites),
		TargetAudience:   decodeTextList(row.TargetAudience),
		ThumbnailURL:     assetURLOrNil(row.ThumbnailID),
		BannerURL:        assetURLOrNil(row.BannerID),
		VideoURL:         row.VideoURL,
		EnrollURL:        row.EnrollURL,
		DurationHours:    row.DurationHours,
		EnrollmentCount:  row.EnrollmentCount,
		HasCertificate:   row.HasCertificate,
		Level:            row.Level,
		IsActive:         row.IsActive,
		Categories:       []CategoryDTO{},
		CourseTypes:      []CourseTypeDTO{},
		Instructors:      []InstructorDTO{},
		CreatedAt:        row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        row.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if row.InstitutionID != nil && row.InstNameTh != nil {
		dto.Institution = &InstitutionRefDTO{
			ID:           *row.InstitutionID,
			NameTh:       *row.InstNameTh,
			NameEn:       derefOr(row.InstNameEn, ""),
			Abbreviation: derefOr(row.InstAbbrev, ""),
			LogoURL:      assetURLOrNil(row.InstLogoID),
		}
	}
	return dto
}

type CourseFilter struct {
	CategoryID      string
	CourseTypeID    string
	InstitutionID   string
	Level           string
	Search          string
	Page            int
	Limit           int
	IncludeInactive bool
}

// ListCourses fetches one page of courses plus the total match count, then
// attaches all relations for the page in a constant number of extra queries.
func ListCourses(database *sqlx.DB, filter CourseFilter) ([]*CourseDTO, int, error) {
	if filter.Limit < 1 {
		filter.Limit = 12
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	conditions := []string{}
	args := []interface{}{}
	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if !filter.IncludeInactive {
		conditions = append(conditions, "c.is_active = TRUE")
	}
	if filter.CategoryID != "" {
		addCondition("EXISTS(SELECT 1 FROM course_categories cc WHERE cc.course_id = c.id AND cc.category_id = $%d)", filter.CategoryID)
	}
	if filter.CourseTypeID != "" {
		addCondition("EXISTS(SELECT 1 FROM course_course_types cct WHERE cct.course_id = c.id AND cct.course_type_id = $%d)", filter.CourseTypeID)
	}
	if filter.InstitutionID != "" {
		addCondition("c.institution_id = $%d", filter.InstitutionID)
	}
	if filter.Level != "" {
		addCondition("c.level = $%d", strings.ToUpper(filter.Level))
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		addCondition("(lower(c.title_th) LIKE $%[1]d OR lower(c.title_en) LIKE $%[1]d OR lower(coalesce(c.description, '')) LIKE $%[1]d)", like)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := database.Get(&total, "SELECT count(*) FROM courses c "+where, args...); err != nil {
		return nil, 0, WrapError(err, "count courses")
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf("%s %s ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d",
		courseSelect, where, len(args)-1, len(args))
	rows := []courseRow{}
	if err := database.Select(&rows, query, args...); err != nil {
		return nil, 0, WrapError(err, "list courses")
	}
	courses := make([]*CourseDTO, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toDTO())
	}
	if err := AttachCourseRelations(database, courses); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func GetCourse(database *sqlx.DB, id string, includeInactive bool) (*CourseDTO, error) {
	row := courseRow{}
	if err := database.Get(&row, courseSelect+"WHERE c.id = $1", id); err != nil {
		return nil, NotFoundOr(err, "course not found", "load course")
	}
	if !includeInactive && !row.IsActive {
		return nil, ErrNotFound("course not found")
	}
	course := row.toDTO()
	if err := AttachCourseRelations(database, []*CourseDTO{course}); err != nil {
		return nil, err
	}
	return course, nil
}

type CourseCreateInput struct {
	ID               string   `json:"id"`
	TitleTh          string   `json:"titleTh" validate:"required"`
	TitleEn          string   `json:"titleEn" validate:"required"`
	Description      *string  `json:"description"`
	LearningOutcomes []string `json:"learningOutcomes"`
	Prerequisites    []string `json:"prerequisites"`
	TargetAudience   []string `json:"targetAudience"`
	InstitutionID    *string  `json:"institutionId"`
	ThumbnailID      *string  `json:"thumbnailAssetId"`
	BannerID         *string  `json:"bannerAssetId"`
	VideoURL         *string  `json:"videoUrl"`
	EnrollURL        *string  `json:"enrollUrl"`
	DurationHours    int      `json:"durationHours"`
	EnrollmentCount  int      `json:"enrollmentCount"`
	HasCertificate   bool     `json:"hasCertificate"`
	Level            string   `json:"level"`
	IsActive         *bool    `json:"isActive"`
	CategoryIDs      []string `json:"categoryIds" validate:"required,min=1"`
	CourseTypeIDs    []string `json:"courseTypeIds"`
	InstructorIDs    []string `json:"instructorIds"`
	InstructorID     string   `json:"instructorId"`
}

type courseInstructorRef struct {
	ID        string
	IsPrimary bool
}

// resolveInstructorSet collapses the legacy single-instructor field and the
// instructor list into one ordered set with exactly one primary entry when
// any instructor is supplied. The list wins; the legacy id marks the primary
// when it appears in the list and is prepended as primary when it does not.
func resolveInstructorSet(ids []string, legacy string) []courseInstructorRef {
	legacy = strings.TrimSpace(legacy)
	cleaned := CleanIDList(ids)
	if len(cleaned) == 0 {
		if legacy == "" {
			return []courseInstructorRef{}
		}
		return []courseInstructorRef{{ID: legacy, IsPrimary: true}}
	}
	primary := cleaned[0]
	if legacy != "" {
		found := false
		for _, id := range cleaned {
			if id == legacy {
				found = true
				break
			}
		}
		if found {
			primary = legacy
		} else {
			cleaned = append([]string{legacy}, cleaned...)
			primary = legacy
		}
	}
	refs := make([]courseInstructorRef, 0, len(cleaned))
	for _, id := range cleaned {
		refs = append(refs, courseInstructorRef{ID: id, IsPrimary: id == primary})
	}
	return refs
}

// replaceCourseRelations swaps a course's rows in one join table for exactly
// the supplied set: everything old goes, only childIDs remain.
func replaceCourseRelations(q db.Queryer, table, childColumn, courseID string, childIDs []string) error {
	if _, err := q.Exec(fmt.Sprintf("DELETE FROM %s WHERE course_id = $1", table), courseID); err != nil {
		return err
	}
	for _, childID := range childIDs {
		query := fmt.Sprintf("INSERT INTO %s (course_id, %s) VALUES ($1, $2)", table, childColumn)
		if _, err := q.Exec(query, courseID, childID); err != nil {
			return err
		}
	}
	return nil
}

func replaceCourseInstructors(q db.Queryer, courseID string, refs []courseInstructorRef) error {
	if _, err := q.Exec(`DELETE FROM course_instructors WHERE course_id = $1`, courseID); err != nil {
		return err
	}
	for _, ref := range refs {
		_, err := q.Exec(`
INSERT INTO course_instructors (course_id, instructor_id, is_primary)
VALUES ($1, $2, $3)`, courseID, ref.ID, ref.IsPrimary)
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateCourse inserts the course row and all of its relation rows as one
// transaction; any failure rolls everything back.
func CreateCourse(database *sqlx.DB, input CourseCreateInput) (*CourseDTO, error) {
	titleTh, err := NormalizeRequired(input.TitleTh, "titleTh is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	titleEn, err := NormalizeRequired(input.TitleEn, "titleEn is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	categoryIDs := CleanIDList(input.CategoryIDs)
	if len(categoryIDs) == 0 {
		return nil, ErrBadRequest("categoryIds must contain at least one category")
	}
	level, err := NormalizeLevel(input.Level)
	if err != nil {
		return nil, err
	}
	courseID := strings.TrimSpace(input.ID)
	if courseID == "" {
		courseID = uuid.NewString()
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	instructors := resolveInstructorSet(input.InstructorIDs, input.InstructorID)
	now := time.Now().UTC()

	err = db.WithTx(database, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`
INSERT INTO courses (
  id, title_th, title_en, description, learning_outcomes, prerequisites, target_audience,
  institution_id, thumbnail_media_id, banner_media_id, video_url, enroll_url,
  duration_hours, enrollment_count, has_certificate, level, is_active, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)
`, courseID, titleTh, titleEn, input.Description,
			textListJSON(input.LearningOutcomes), textListJSON(input.Prerequisites), textListJSON(input.TargetAudience),
			input.InstitutionID, input.ThumbnailID, input.BannerID, input.VideoURL, input.EnrollURL,
			input.DurationHours, input.EnrollmentCount, input.HasCertificate, level, isActive, now)
		if err != nil {
			return WrapError(err, "insert course")
		}
		if err := replaceCourseRelations(tx, "course_categories", "category_id", courseID, categoryIDs); err != nil {
			return WrapError(err, "insert course categories")
		}
		if err := replaceCourseRelations(tx, "course_course_types", "course_type_id", courseID, CleanIDList(input.CourseTypeIDs)); err != nil {
			return WrapError(err, "insert course types")
		}
		if err := replaceCourseInstructors(tx, courseID, instructors); err != nil {
			return WrapError(err, "insert course instructors")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetCourse(database, courseID, true)
}

type CourseUpdateInput struct {
	TitleTh          *string   `json:"titleTh"`
	TitleEn          *string   `json:"titleEn"`
	Description      *string   `json:"description"`
	LearningOutcomes *[]string `json:"learningOutcomes"`
	Prerequisites    *[]string `json:"prerequisites"`
	TargetAudience   *[]string `json:"targetAudience"`
	InstitutionID    *string   `json:"institutionId"`
	ThumbnailID      *string   `json:"thumbnailAssetId"`
	BannerID         *string   `json:"bannerAssetId"`
	VideoURL         *string   `json:"videoUrl"`
	EnrollURL        *string   `json:"enrollUrl"`
	DurationHours    *int      `json:"durationHours"`
	EnrollmentCount  *int      `json:"enrollmentCount"`
	HasCertificate   *bool     `json:"hasCertificate"`
	Level            *string   `json:"level"`
	IsActive         *bool     `json:"isActive"`
	CategoryIDs      *[]string `json:"categoryIds"`
	CourseTypeIDs    *[]string `json:"courseTypeIds"`
	InstructorIDs    *[]string `json:"instructorIds"`
	InstructorID     *string   `json:"instructorId"`
}

// UpdateCourse applies a partial update: only fields present in the payload
// change, and only relation sets present in the payload are replaced. An
// explicit empty array clears a relation; an absent field leaves it alone.
func UpdateCourse(database *sqlx.DB, courseID string, input CourseUpdateInput) (*CourseDTO, error) {
	builder := NewUpdate()
	builder.SetString("title_th", input.TitleTh)
	builder.SetString("title_en", input.TitleEn)
	builder.SetString("description", input.Description)
	builder.SetString("video_url", input.VideoURL)
	builder.SetString("enroll_url", input.EnrollURL)
	builder.SetString("institution_id", input.InstitutionID)
	builder.SetString("thumbnail_media_id", input.ThumbnailID)
	builder.SetString("banner_media_id", input.BannerID)
	builder.SetInt("duration_hours", input.DurationHours)
	builder.SetInt("enrollment_count", input.EnrollmentCount)
	builder.SetBool("has_certificate", input.HasCertificate)
	builder.SetBool("is_active", input.IsActive)
	if input.Level != nil {
		level, err := NormalizeLevel(*input.Level)
		if err != nil {
			return nil, err
		}
		builder.Set("level", level)
	}
	if input.LearningOutcomes != nil {
		builder.Set("learning_outcomes", textListJSON(*input.LearningOutcomes))
	}
	if input.Prerequisites != nil {
		builder.Set("prerequisites", textListJSON(*input.Prerequisites))
	}
	if input.TargetAudience != nil {
		builder.Set("target_audience", textListJSON(*input.TargetAudience))
	}

	err := db.WithTx(database, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, courseID); err != nil {
			return WrapError(err, "check course")
		}
		if !exists {
			return ErrNotFound("course not found")
		}
		if !builder.Empty() {
			builder.Set("updated_at", time.Now().UTC())
			query, args := builder.Build("courses", "id", courseID)
			if _, err := tx.Exec(query, args...); err != nil {
				return WrapError(err, "update course")
			}
		} else {
			if _, err := tx.Exec(`UPDATE courses SET updated_at = $2 WHERE id = $1`, courseID, time.Now().UTC()); err != nil {
				return WrapError(err, "touch course")
			}
		}
		if input.CategoryIDs != nil {
			if err := replaceCourseRelations(tx, "course_categories", "category_id", courseID, CleanIDList(*input.CategoryIDs)); err != nil {
				return WrapError(err, "replace course categories")
			}
		}
		if input.CourseTypeIDs != nil {
			if err := replaceCourseRelations(tx, "course_course_types", "course_type_id", courseID, CleanIDList(*input.CourseTypeIDs)); err != nil {
				return WrapError(err, "replace course types")
			}
		}
		if input.InstructorIDs != nil || input.InstructorID != nil {
			ids := []string{}
			if input.InstructorIDs != nil {
				ids = *input.InstructorIDs
			}
			legacy := ""
			if input.InstructorID != nil {
				legacy = *input.InstructorID
			}
			if err := replaceCourseInstructors(tx, courseID, resolveInstructorSet(ids, legacy)); err != nil {
				return WrapError(err, "replace course instructors")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetCourse(database, courseID, true)
}

// DeleteCourse removes the course; join rows go with it via cascade, skill
// analyses included.
func DeleteCourse(database *sqlx.DB, courseID string) error {
	return db.WithTx(database, func(tx *sqlx.Tx) error {
		result, err := tx.Exec(`DELETE FROM courses WHERE id = $1`, courseID)
		if err != nil {
			return WrapError(err, "delete course")
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return ErrNotFound("course not found")
		}
		return nil
	})
}

func derefOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
