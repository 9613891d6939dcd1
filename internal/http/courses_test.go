package httpapi

import (
	"strings"
	"testing"

	"thaimooc-backend-go/internal/services"
)

func TestCourseListCacheKeyIsStable(t *testing.T) {
	filter := services.CourseFilter{CategoryID: "cat-1", Search: "python", Page: 2, Limit: 24}
	if courseListCacheKey(filter) != courseListCacheKey(filter) {
		t.Fatalf("identical filters must share a cache key")
	}
}

func TestCourseListCacheKeyDistinguishesFilters(t *testing.T) {
	base := services.CourseFilter{CategoryID: "cat-1", Page: 1, Limit: 12}
	other := base
	other.CategoryID = "cat-2"
	if courseListCacheKey(base) == courseListCacheKey(other) {
		t.Fatalf("different filters must not collide")
	}
}

func TestCourseListCacheKeySharesFamilyPrefix(t *testing.T) {
	keys := []string{
		courseListCacheKey(services.CourseFilter{Page: 1, Limit: 12}),
		courseListCacheKey(services.CourseFilter{Search: "data", Page: 3, Limit: 48}),
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, "courses:") {
			t.Errorf("key %q outside the courses family; pattern invalidation would miss it", key)
		}
	}
}

func TestDefaultPageAndLimitShareKey(t *testing.T) {
	a := courseListCacheKey(services.CourseFilter{Page: 1, Limit: 12})
	b := courseListCacheKey(services.CourseFilter{Page: 1, Limit: 12, IncludeInactive: false})
	if a != b {
		t.Fatalf("defaults must normalize to one key: %q vs %q", a, b)
	}
}
