package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"thaimooc-backend-go/internal/cache"
	"thaimooc-backend-go/internal/services"
)

// cachedList reads a catalog list through the response cache. load runs on a
// miss and its result is stored under key for ttl.
func cachedList[T any](s *Server, key string, ttl time.Duration, load func() ([]T, error)) ([]T, error) {
	if cached, ok := s.Cache.Get(key); ok {
		if items, ok := cached.([]T); ok {
			return items, nil
		}
	}
	items, err := load()
	if err != nil {
		return nil, err
	}
	s.Cache.Set(key, items, ttl)
	return items, nil
}

func writeCachedList[T any](s *Server, w http.ResponseWriter, key string, load func() ([]T, error)) {
	items, err := cachedList(s, key, s.Config.CatalogCacheTTL, load)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteList(w, items, len(items))
}

func (s *Server) PublicCategories(w http.ResponseWriter, r *http.Request) {
	writeCachedList(s, w, cache.ListKey("categories", nil), func() ([]services.CategoryDTO, error) {
		return services.ListCategories(s.DB)
	})
}

func (s *Server) PublicCourseTypes(w http.ResponseWriter, r *http.Request) {
	writeCachedList(s, w, cache.ListKey("course-types", nil), func() ([]services.CourseTypeDTO, error) {
		return services.ListCourseTypes(s.DB)
	})
}

func (s *Server) PublicInstitutions(w http.ResponseWriter, r *http.Request) {
	writeCachedList(s, w, cache.ListKey("institutions", nil), func() ([]services.InstitutionDTO, error) {
		return services.ListInstitutions(s.DB)
	})
}

func (s *Server) PublicInstructors(w http.ResponseWriter, r *http.Request) {
	institutionID := r.URL.Query().Get("institutionId")
	key := cache.ListKey("instructors", map[string]string{"institutionId": institutionID})
	writeCachedList(s, w, key, func() ([]services.InstructorDetailDTO, error) {
		return services.ListInstructors(s.DB, institutionID)
	})
}

func (s *Server) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListCategories(s.DB)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteList(w, items, len(items))
}

func (s *Server) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input services.CategoryInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.CreateCategory(s.DB, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("categories:*")
	WriteData(w, http.StatusCreated, item)
}

func (s *Server) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var input services.CategoryUpdateInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.UpdateCategory(s.DB, chi.URLParam(r, "categoryId"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Category names ride along on cached course payloads too.
	s.Cache.ClearPattern("categories:*")
	s.Cache.ClearPattern("courses:*")
	WriteData(w, http.StatusOK, item)
}

func (s *Server) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteCategory(s.DB, chi.URLParam(r, "categoryId")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("categories:*")
	WriteMessage(w, "Category deleted")
}

func (s *Server) AdminListCourseTypes(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListCourseTypes(s.DB)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteList(w, items, len(items))
}

func (s *Server) CreateCourseType(w http.ResponseWriter, r *http.Request) {
	var input services.CourseTypeInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.CreateCourseType(s.DB, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("course-types:*")
	WriteData(w, http.StatusCreated, item)
}

func (s *Server) UpdateCourseType(w http.ResponseWriter, r *http.Request) {
	var input services.CourseTypeUpdateInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.UpdateCourseType(s.DB, chi.URLParam(r, "courseTypeId"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("course-types:*")
	s.Cache.ClearPattern("courses:*")
	WriteData(w, http.StatusOK, item)
}

func (s *Server) DeleteCourseType(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteCourseType(s.DB, chi.URLParam(r, "courseTypeId")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("course-types:*")
	WriteMessage(w, "Course type deleted")
}

func (s *Server) AdminListInstitutions(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListInstitutions(s.DB)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteList(w, items, len(items))
}

func (s *Server) CreateInstitution(w http.ResponseWriter, r *http.Request) {
	var input services.InstitutionInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.CreateInstitution(s.DB, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("institutions:*")
	WriteData(w, http.StatusCreated, item)
}

func (s *Server) UpdateInstitution(w http.ResponseWriter, r *http.Request) {
	var input services.InstitutionUpdateInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.UpdateInstitution(s.DB, chi.URLParam(r, "institutionId"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("institutions:*")
	s.Cache.ClearPattern("courses:*")
	WriteData(w, http.StatusOK, item)
}

func (s *Server) DeleteInstitution(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteInstitution(s.DB, chi.URLParam(r, "institutionId")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("institutions:*")
	WriteMessage(w, "Institution deleted")
}

func (s *Server) AdminListInstructors(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListInstructors(s.DB, r.URL.Query().Get("institutionId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteList(w, items, len(items))
}

func (s *Server) CreateInstructor(w http.ResponseWriter, r *http.Request) {
	var input services.InstructorInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.CreateInstructor(s.DB, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("instructors:*")
	WriteData(w, http.StatusCreated, item)
}

func (s *Server) UpdateInstructor(w http.ResponseWriter, r *http.Request) {
	var input services.InstructorUpdateInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.UpdateInstructor(s.DB, chi.URLParam(r, "instructorId"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("instructors:*")
	s.Cache.ClearPattern("courses:*")
	WriteData(w, http.StatusOK, item)
}

func (s *Server) DeleteInstructor(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteInstructor(s.DB, chi.URLParam(r, "instructorId")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("instructors:*")
	WriteMessage(w, "Instructor deleted")
}
