//go:build integration

package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"thaimooc-backend-go/internal/db"
	"thaimooc-backend-go/internal/migrations"
)

// These tests run against a real Postgres via TEST_DATABASE_URL; they cover
// the transactional paths the fake-backed tests cannot reach.

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	database, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := migrations.Apply(database, filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func mustCreateCategory(t *testing.T, database *sqlx.DB) string {
	t.Helper()
	id := "cat-" + uuid.NewString()
	if _, err := CreateCategory(database, CategoryInput{ID: id, NameTh: "หมวด", NameEn: "Category"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	t.Cleanup(func() {
		database.Exec(`DELETE FROM categories WHERE id = $1`, id)
	})
	return id
}

func TestUpdateCourseReplacesCategorySet(t *testing.T) {
	database := openTestDB(t)
	catA := mustCreateCategory(t, database)
	catB := mustCreateCategory(t, database)
	catC := mustCreateCategory(t, database)

	course, err := CreateCourse(database, CourseCreateInput{
		TitleTh:     "คอร์สทดสอบ",
		TitleEn:     "Relation Test Course",
		CategoryIDs: []string{catA, catB},
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	t.Cleanup(func() {
		database.Exec(`DELETE FROM courses WHERE id = $1`, course.ID)
	})

	newSet := []string{catC}
	if _, err := UpdateCourse(database, course.ID, CourseUpdateInput{CategoryIDs: &newSet}); err != nil {
		t.Fatalf("update course: %v", err)
	}

	var remaining []string
	if err := database.Select(&remaining, `SELECT category_id FROM course_categories WHERE course_id = $1`, course.ID); err != nil {
		t.Fatalf("read join rows: %v", err)
	}
	if len(remaining) != 1 || remaining[0] != catC {
		t.Fatalf("join rows after replace = %v, want exactly [%s]", remaining, catC)
	}
}

func TestDeleteInstitutionBlockedByCourses(t *testing.T) {
	database := openTestDB(t)
	cat := mustCreateCategory(t, database)

	institution, err := CreateInstitution(database, InstitutionInput{NameTh: "สถาบัน", NameEn: "Guarded Institution"})
	if err != nil {
		t.Fatalf("create institution: %v", err)
	}
	t.Cleanup(func() {
		database.Exec(`DELETE FROM institutions WHERE id = $1`, institution.ID)
	})

	course, err := CreateCourse(database, CourseCreateInput{
		TitleTh:       "คอร์ส",
		TitleEn:       "Dependent Course",
		CategoryIDs:   []string{cat},
		InstitutionID: &institution.ID,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	t.Cleanup(func() {
		database.Exec(`DELETE FROM courses WHERE id = $1`, course.ID)
	})

	err = DeleteInstitution(database, institution.ID)
	var svcErr ServiceError
	if !errors.As(err, &svcErr) || svcErr.Status != 400 {
		t.Fatalf("expected a 400 conflict, got %v", err)
	}

	var exists bool
	if err := database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM institutions WHERE id = $1)`, institution.ID); err != nil {
		t.Fatalf("check institution: %v", err)
	}
	if !exists {
		t.Fatal("blocked delete must leave the institution in place")
	}
}

func TestCreateCourseRollsBackOnRelationFailure(t *testing.T) {
	database := openTestDB(t)
	courseID := "course-" + uuid.NewString()

	_, err := CreateCourse(database, CourseCreateInput{
		ID:          courseID,
		TitleTh:     "คอร์ส",
		TitleEn:     "Orphan Check Course",
		CategoryIDs: []string{"missing-" + uuid.NewString()},
	})
	if err == nil {
		t.Fatal("expected the relation insert to fail")
	}

	var exists bool
	if err := database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, courseID); err != nil {
		t.Fatalf("check course: %v", err)
	}
	if exists {
		t.Fatal("failed relation insert left an orphan course row")
	}
}
