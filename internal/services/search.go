package services

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

type SearchResult struct {
	Courses []*CourseDTO `json:"courses"`
	News    []NewsDTO    `json:"news"`
}

// SearchPublic runs one case-insensitive substring search across active
// courses and published news.
func SearchPublic(database *sqlx.DB, query string, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrBadRequest("q is required")
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	result := &SearchResult{Courses: []*CourseDTO{}, News: []NewsDTO{}}

	courses, _, err := ListCourses(database, CourseFilter{Search: query, Page: 1, Limit: limit})
	if err != nil {
		return nil, err
	}
	result.Courses = courses

	like := "%" + strings.ToLower(query) + "%"
	rows := []newsRow{}
	err = database.Select(&rows, `
SELECT id, title_th, title_en, content_th, content_en, image_media_id, published_at
FROM news
WHERE published_at IS NOT NULL AND published_at <= now()
  AND (lower(title_th) LIKE $1 OR lower(title_en) LIKE $1)
ORDER BY published_at DESC
LIMIT $2`, like, limit)
	if err != nil {
		return nil, WrapError(err, "search news")
	}
	for _, row := range rows {
		result.News = append(result.News, row.toDTO())
	}
	return result, nil
}
