package services

import (
	"github.com/jmoiron/sqlx"

	"thaimooc-backend-go/internal/db"
)

// The catalog read path attaches many-to-many relations to a whole batch of
// courses in one query per relation type: collect the course ids, run a
// single WHERE course_id IN (...) select per join table, then group the rows
// back onto their courses. Query count stays constant no matter how many
// courses the page holds.

type CategoryDTO struct {
	ID        string  `json:"id" db:"id"`
	NameTh    string  `json:"nameTh" db:"name_th"`
	NameEn    string  `json:"nameEn" db:"name_en"`
	Icon      *string `json:"icon" db:"icon"`
	SortOrder int     `json:"sortOrder" db:"sort_order"`
}

type CourseTypeDTO struct {
	ID          string  `json:"id" db:"id"`
	NameTh      string  `json:"nameTh" db:"name_th"`
	NameEn      string  `json:"nameEn" db:"name_en"`
	Icon        *string `json:"icon" db:"icon"`
	Description *string `json:"description" db:"description"`
}

type InstructorDTO struct {
	ID            string  `json:"id" db:"id"`
	NameTh        string  `json:"nameTh" db:"name_th"`
	NameEn        string  `json:"nameEn" db:"name_en"`
	Title         *string `json:"title" db:"title"`
	InstitutionID *string `json:"institutionId" db:"institution_id"`
	ImageURL      *string `json:"imageUrl"`
	IsPrimary     bool    `json:"isPrimary"`
}

type courseCategoryRow struct {
	CourseID  string  `db:"course_id"`
	ID        string  `db:"id"`
	NameTh    string  `db:"name_th"`
	NameEn    string  `db:"name_en"`
	Icon      *string `db:"icon"`
	SortOrder int     `db:"sort_order"`
}

type courseTypeRow struct {
	CourseID    string  `db:"course_id"`
	ID          string  `db:"id"`
	NameTh      string  `db:"name_th"`
	NameEn      string  `db:"name_en"`
	Icon        *string `db:"icon"`
	Description *string `db:"description"`
}

type courseInstructorRow struct {
	CourseID      string  `db:"course_id"`
	ID            string  `db:"id"`
	NameTh        string  `db:"name_th"`
	NameEn        string  `db:"name_en"`
	Title         *string `db:"title"`
	InstitutionID *string `db:"institution_id"`
	ImageID       *string `db:"image_media_id"`
	IsPrimary     bool    `db:"is_primary"`
}

const courseCategoriesQuery = `
SELECT cc.course_id, c.id, c.name_th, c.name_en, c.icon, c.sort_order
FROM course_categories cc
JOIN categories c ON c.id = cc.category_id
WHERE cc.course_id IN (?)
ORDER BY c.sort_order ASC, c.id ASC`

const courseTypesQuery = `
SELECT cct.course_id, t.id, t.name_th, t.name_en, t.icon, t.description
FROM course_course_types cct
JOIN course_types t ON t.id = cct.course_type_id
WHERE cct.course_id IN (?)
ORDER BY t.id ASC`

const courseInstructorsQuery = `
SELECT ci.course_id, i.id, i.name_th, i.name_en, i.title, i.institution_id, i.image_media_id, ci.is_primary
FROM course_instructors ci
JOIN instructors i ON i.id = ci.instructor_id
WHERE ci.course_id IN (?)
ORDER BY ci.is_primary DESC, i.id ASC`

// groupByCourse runs one IN-expanded select and buckets the rows by course id.
func groupByCourse[T any](q db.Queryer, query string, courseIDs []string, key func(T) string) (map[string][]T, error) {
	grouped := map[string][]T{}
	if len(courseIDs) == 0 {
		return grouped, nil
	}
	expanded, args, err := sqlx.In(query, courseIDs)
	if err != nil {
		return nil, err
	}
	rows := []T{}
	if err := q.Select(&rows, q.Rebind(expanded), args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		id := key(row)
		grouped[id] = append(grouped[id], row)
	}
	return grouped, nil
}

// AttachCourseRelations fills Categories, CourseTypes and Instructors on each
// course. Every course gets a slice, empty when nothing matches. An empty
// batch issues no queries.
func AttachCourseRelations(q db.Queryer, courses []*CourseDTO) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}

	categories, err := groupByCourse(q, courseCategoriesQuery, ids,
		func(r courseCategoryRow) string { return r.CourseID })
	if err != nil {
		return WrapError(err, "fetch course categories")
	}
	types, err := groupByCourse(q, courseTypesQuery, ids,
		func(r courseTypeRow) string { return r.CourseID })
	if err != nil {
		return WrapError(err, "fetch course types")
	}
	instructors, err := groupByCourse(q, courseInstructorsQuery, ids,
		func(r courseInstructorRow) string { return r.CourseID })
	if err != nil {
		return WrapError(err, "fetch course instructors")
	}

	for _, course := range courses {
		course.Categories = make([]CategoryDTO, 0, len(categories[course.ID]))
		for _, row := range categories[course.ID] {
			course.Categories = append(course.Categories, CategoryDTO{
				ID:        row.ID,
				NameTh:    row.NameTh,
				NameEn:    row.NameEn,
				Icon:      row.Icon,
				SortOrder: row.SortOrder,
			})
		}
		course.CourseTypes = make([]CourseTypeDTO, 0, len(types[course.ID]))
		for _, row := range types[course.ID] {
			course.CourseTypes = append(course.CourseTypes, CourseTypeDTO{
				ID:          row.ID,
				NameTh:      row.NameTh,
				NameEn:      row.NameEn,
				Icon:        row.Icon,
				Description: row.Description,
			})
		}
		course.Instructors = make([]InstructorDTO, 0, len(instructors[course.ID]))
		for _, row := range instructors[course.ID] {
			course.Instructors = append(course.Instructors, InstructorDTO{
				ID:            row.ID,
				NameTh:        row.NameTh,
				NameEn:        row.NameEn,
				Title:         row.Title,
				InstitutionID: row.InstitutionID,
				ImageURL:      assetURLOrNil(row.ImageID),
				IsPrimary:     row.IsPrimary,
			})
		}
	}
	return nil
}
