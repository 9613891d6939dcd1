package httpapi

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"thaimooc-backend-go/internal/cache"
	"thaimooc-backend-go/internal/services"
)

type coursePage struct {
	Courses []*services.CourseDTO
	Total   int
}

func courseFilterFromQuery(r *http.Request, includeInactive bool) services.CourseFilter {
	query := r.URL.Query()
	return services.CourseFilter{
		CategoryID:      query.Get("categoryId"),
		CourseTypeID:    query.Get("courseTypeId"),
		InstitutionID:   query.Get("institutionId"),
		Level:           query.Get("level"),
		Search:          query.Get("search"),
		Page:            parseInt(query.Get("page"), 1),
		Limit:           parseInt(query.Get("limit"), 12),
		IncludeInactive: includeInactive,
	}
}

func courseListCacheKey(filter services.CourseFilter) string {
	params := map[string]string{
		"categoryId":    filter.CategoryID,
		"courseTypeId":  filter.CourseTypeID,
		"institutionId": filter.InstitutionID,
		"level":         filter.Level,
		"search":        filter.Search,
	}
	if filter.Page > 1 {
		params["page"] = strconv.Itoa(filter.Page)
	}
	if filter.Limit != 12 {
		params["limit"] = strconv.Itoa(filter.Limit)
	}
	return cache.ListKey("courses", params)
}

// PublicCourses serves the filtered catalog page, read through the response
// cache. Only active courses are visible here.
func (s *Server) PublicCourses(w http.ResponseWriter, r *http.Request) {
	filter := courseFilterFromQuery(r, false)
	key := courseListCacheKey(filter)
	if cached, ok := s.Cache.Get(key); ok {
		if page, ok := cached.(coursePage); ok {
			WriteList(w, page.Courses, page.Total)
			return
		}
	}
	courses, total, err := services.ListCourses(s.DB, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.Set(key, coursePage{Courses: courses, Total: total}, s.Config.CourseCacheTTL)
	WriteList(w, courses, total)
}

func (s *Server) PublicCourseDetail(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	key := cache.ItemKey("courses", courseID)
	if cached, ok := s.Cache.Get(key); ok {
		if course, ok := cached.(*services.CourseDTO); ok {
			WriteData(w, http.StatusOK, course)
			return
		}
	}
	course, err := services.GetCourse(s.DB, courseID, false)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.Set(key, course, s.Config.CourseCacheTTL)
	WriteData(w, http.StatusOK, course)
}

// AdminListCourses bypasses the cache so the back office always sees current
// rows, inactive ones included.
func (s *Server) AdminListCourses(w http.ResponseWriter, r *http.Request) {
	courses, total, err := services.ListCourses(s.DB, courseFilterFromQuery(r, true))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteList(w, courses, total)
}

func (s *Server) AdminGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := services.GetCourse(s.DB, chi.URLParam(r, "courseId"), true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, course)
}

func (s *Server) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var input services.CourseCreateInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	course, err := services.CreateCourse(s.DB, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateCourses("")
	WriteData(w, http.StatusCreated, course)
}

func (s *Server) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	var input services.CourseUpdateInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	course, err := services.UpdateCourse(s.DB, courseID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateCourses(courseID)
	WriteData(w, http.StatusOK, course)
}

func (s *Server) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	if err := services.DeleteCourse(s.DB, courseID); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateCourses(courseID)
	WriteMessage(w, "Course deleted")
}

// invalidateCourses drops every cached course list plus, when known, the
// single-course entry the mutation touched.
func (s *Server) invalidateCourses(courseID string) {
	s.Cache.ClearPattern("courses:*")
	s.Cache.ClearPattern("search:*")
	if courseID != "" {
		s.Cache.Delete(cache.ItemKey("courses", courseID))
	}
}

// PublicSearch looks for the query string across active courses and published
// news in one response.
func (s *Server) PublicSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	key := cache.ListKey("search", map[string]string{"q": query})
	if cached, ok := s.Cache.Get(key); ok {
		if result, ok := cached.(*services.SearchResult); ok {
			WriteData(w, http.StatusOK, result)
			return
		}
	}
	result, err := services.SearchPublic(s.DB, query, parseInt(r.URL.Query().Get("limit"), 10))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.Set(key, result, s.Config.CourseCacheTTL)
	WriteData(w, http.StatusOK, result)
}

// CourseSkillAnalysis returns the stored analysis when it is younger than a
// week and recomputes it otherwise.
func (s *Server) CourseSkillAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := services.GetOrComputeAnalysis(r.Context(), s.DB, s.AI, chi.URLParam(r, "courseId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, analysis)
}

// ReanalyzeCourseSkills discards any stored analysis and runs a fresh one.
func (s *Server) ReanalyzeCourseSkills(w http.ResponseWriter, r *http.Request) {
	analysis, err := services.ForceReanalyze(r.Context(), s.DB, s.AI, chi.URLParam(r, "courseId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, analysis)
}

func (s *Server) ExportCoursesCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="courses.csv"`)
	if err := services.ExportCoursesCSV(s.DB, w); err != nil {
		// Headers are already out, so a log line is all that is left.
		log.Printf("csv export failed: %v", err)
	}
}

func (s *Server) ImportCoursesCSV(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()
	report, err := services.ImportCoursesCSV(s.DB, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateCourses("")
	WriteData(w, http.StatusOK, report)
}
