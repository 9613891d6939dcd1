package services

import (
	"database/sql"
	"fmt"
	"testing"
)

// countingQueryer satisfies db.Queryer and records every relation query
// without touching a database.
type countingQueryer struct {
	selects int
}

func (c *countingQueryer) Get(dest interface{}, query string, args ...interface{}) error {
	return sql.ErrNoRows
}

func (c *countingQueryer) Select(dest interface{}, query string, args ...interface{}) error {
	c.selects++
	return nil
}

func (c *countingQueryer) Exec(query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (c *countingQueryer) Rebind(query string) string {
	return query
}

func makeCourses(n int) []*CourseDTO {
	courses := make([]*CourseDTO, 0, n)
	for i := 0; i < n; i++ {
		courses = append(courses, &CourseDTO{ID: fmt.Sprintf("course-%03d", i)})
	}
	return courses
}

func TestAttachCourseRelationsQueryCountIsConstant(t *testing.T) {
	const relationTypes = 3
	for _, n := range []int{1, 50} {
		q := &countingQueryer{}
		if err := AttachCourseRelations(q, makeCourses(n)); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if q.selects != relationTypes {
			t.Errorf("n=%d: issued %d queries, want %d", n, q.selects, relationTypes)
		}
	}
}

func TestAttachCourseRelationsEmptyBatchIssuesNoQueries(t *testing.T) {
	q := &countingQueryer{}
	if err := AttachCourseRelations(q, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.selects != 0 {
		t.Fatalf("empty batch issued %d queries, want 0", q.selects)
	}
}

func TestAttachCourseRelationsAlwaysSetsEmptySlices(t *testing.T) {
	courses := makeCourses(2)
	if err := AttachCourseRelations(&countingQueryer{}, courses); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, course := range courses {
		if course.Categories == nil || course.CourseTypes == nil || course.Instructors == nil {
			t.Errorf("course %s has nil relation slice", course.ID)
		}
		if len(course.Categories) != 0 || len(course.CourseTypes) != 0 || len(course.Instructors) != 0 {
			t.Errorf("course %s has unexpected relation rows", course.ID)
		}
	}
}

func TestGroupByCourseBucketsRows(t *testing.T) {
	rows := []courseCategoryRow{
		{CourseID: "a", ID: "01"},
		{CourseID: "b", ID: "02"},
		{CourseID: "a", ID: "03"},
	}
	grouped := map[string][]courseCategoryRow{}
	for _, row := range rows {
		grouped[row.CourseID] = append(grouped[row.CourseID], row)
	}
	if len(grouped["a"]) != 2 || len(grouped["b"]) != 1 {
		t.Fatalf("unexpected grouping: %#v", grouped)
	}
	if _, ok := grouped["c"]; ok {
		t.Fatalf("course without rows should be absent from the map")
	}
}
