package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

var courseCSVHeader = []string{
	"id", "title_th", "title_en", "description", "level",
	"duration_hours", "enrollment_count", "has_certificate", "is_active",
	"institution_id", "category_ids", "course_type_ids", "instructor_ids",
	"video_url", "enroll_url",
}

// ExportCoursesCSV streams the full course list, relations flattened into
// pipe-separated id columns.
func ExportCoursesCSV(database *sqlx.DB, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(courseCSVHeader); err != nil {
		return err
	}
	page := 1
	for {
		courses, total, err := ListCourses(database, CourseFilter{
			Page:            page,
			Limit:           200,
			IncludeInactive: true,
		})
		if err != nil {
			return err
		}
		for _, course := range courses {
			record := []string{
				course.ID,
				course.TitleTh,
				course.TitleEn,
				derefOr(course.Description, ""),
				course.Level,
				strconv.Itoa(course.DurationHours),
				strconv.Itoa(course.EnrollmentCount),
				strconv.FormatBool(course.HasCertificate),
				strconv.FormatBool(course.IsActive),
				institutionIDOrEmpty(course),
				joinIDColumn(categoryIDs(course.Categories)),
				joinIDColumn(courseTypeIDs(course.CourseTypes)),
				joinIDColumn(instructorIDs(course.Instructors)),
				derefOr(course.VideoURL, ""),
				derefOr(course.EnrollURL, ""),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		if page*200 >= total || len(courses) == 0 {
			break
		}
		page++
	}
	writer.Flush()
	return writer.Error()
}

type CSVImportReport struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

// ImportCoursesCSV upserts courses from an export-shaped CSV. Rows with an id
// matching an existing course update it; all other rows create courses. Bad
// rows are reported, not fatal.
func ImportCoursesCSV(database *sqlx.DB, r io.Reader) (CSVImportReport, error) {
	report := CSVImportReport{Errors: []string{}}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(courseCSVHeader)

	header, err := reader.Read()
	if err != nil {
		return report, ErrBadRequest("csv file is empty")
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"title_th", "title_en", "category_ids"} {
		if _, ok := index[required]; !ok {
			return report, ErrBadRequest("csv is missing required column " + required)
		}
	}
	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		input := CourseCreateInput{
			ID:            field(record, "id"),
			TitleTh:       field(record, "title_th"),
			TitleEn:       field(record, "title_en"),
			Level:         field(record, "level"),
			CategoryIDs:   splitIDColumn(field(record, "category_ids")),
			CourseTypeIDs: splitIDColumn(field(record, "course_type_ids")),
			InstructorIDs: splitIDColumn(field(record, "instructor_ids")),
		}
		if v := field(record, "description"); v != "" {
			input.Description = &v
		}
		if v := field(record, "institution_id"); v != "" {
			input.InstitutionID = &v
		}
		if v := field(record, "video_url"); v != "" {
			input.VideoURL = &v
		}
		if v := field(record, "enroll_url"); v != "" {
			input.EnrollURL = &v
		}
		input.DurationHours, _ = strconv.Atoi(field(record, "duration_hours"))
		input.EnrollmentCount, _ = strconv.Atoi(field(record, "enrollment_count"))
		hasCert, _ := strconv.ParseBool(field(record, "has_certificate"))
		input.HasCertificate = hasCert
		if v := field(record, "is_active"); v != "" {
			active, parseErr := strconv.ParseBool(v)
			if parseErr == nil {
				input.IsActive = &active
			}
		}

		if input.ID != "" && courseExists(database, input.ID) {
			if err := updateFromImport(database, input); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
				continue
			}
			report.Updated++
		} else {
			if _, err := CreateCourse(database, input); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
				continue
			}
			report.Created++
		}
	}
	return report, nil
}

func updateFromImport(database *sqlx.DB, input CourseCreateInput) error {
	update := CourseUpdateInput{
		TitleTh:         &input.TitleTh,
		TitleEn:         &input.TitleEn,
		Description:     input.Description,
		InstitutionID:   input.InstitutionID,
		VideoURL:        input.VideoURL,
		EnrollURL:       input.EnrollURL,
		DurationHours:   &input.DurationHours,
		EnrollmentCount: &input.EnrollmentCount,
		HasCertificate:  &input.HasCertificate,
		IsActive:        input.IsActive,
		CategoryIDs:     &input.CategoryIDs,
		CourseTypeIDs:   &input.CourseTypeIDs,
		InstructorIDs:   &input.InstructorIDs,
	}
	if input.Level != "" {
		update.Level = &input.Level
	}
	_, err := UpdateCourse(database, input.ID, update)
	return err
}

func courseExists(database *sqlx.DB, id string) bool {
	var exists bool
	if err := database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, id); err != nil {
		return false
	}
	return exists
}

func institutionIDOrEmpty(course *CourseDTO) string {
	if course.Institution == nil {
		return ""
	}
	return course.Institution.ID
}

func categoryIDs(items []CategoryDTO) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func courseTypeIDs(items []CourseTypeDTO) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func instructorIDs(items []InstructorDTO) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func joinIDColumn(ids []string) string {
	return strings.Join(ids, "|")
}

func splitIDColumn(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return CleanIDList(strings.Split(raw, "|"))
}
