package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"thaimooc-backend-go/internal/ai"
	"thaimooc-backend-go/internal/cache"
	"thaimooc-backend-go/internal/config"
	"thaimooc-backend-go/internal/services"
)

type Server struct {
	DB         *sqlx.DB
	Config     config.Config
	Tokens     services.TokenService
	Cache      *cache.Cache
	Validate   *validator.Validate
	AI         ai.Provider
	MetricsHub *services.MetricsHub
}

func NewServer(db *sqlx.DB, cfg config.Config, responseCache *cache.Cache, provider ai.Provider, hub *services.MetricsHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	return &Server{
		DB:         db,
		Config:     cfg,
		Tokens:     tokens,
		Cache:      responseCache,
		Validate:   validator.New(),
		AI:         provider,
		MetricsHub: hub,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", s.Login)
		api.Post("/auth/refresh", s.Refresh)
		api.Post("/auth/logout", s.Logout)

		api.Route("/public", func(pub chi.Router) {
			pub.Get("/search", s.PublicSearch)
			pub.Get("/courses", s.PublicCourses)
			pub.Get("/courses/{courseId}", s.PublicCourseDetail)
			pub.Get("/courses/{courseId}/analyze-skills", s.CourseSkillAnalysis)
			pub.Get("/categories", s.PublicCategories)
			pub.Get("/course-types", s.PublicCourseTypes)
			pub.Get("/institutions", s.PublicInstitutions)
			pub.Get("/instructors", s.PublicInstructors)
			pub.Get("/news", s.PublicNews)
			pub.Get("/news/{newsId}", s.PublicNewsDetail)
			pub.Get("/banners", s.PublicBanners)
			pub.Get("/popups", s.PublicPopups)
			pub.Get("/settings", s.PublicSettings)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))
			admin.Use(RequireAnyRole(services.RoleAdmin, services.RoleSuperAdmin))

			admin.Route("/courses", func(courses chi.Router) {
				courses.Get("/", s.AdminListCourses)
				courses.Post("/", s.CreateCourse)
				courses.Get("/export", s.ExportCoursesCSV)
				courses.Post("/import", s.ImportCoursesCSV)
				courses.Get("/{courseId}", s.AdminGetCourse)
				courses.Put("/{courseId}", s.UpdateCourse)
				courses.Delete("/{courseId}", s.DeleteCourse)
				courses.Post("/{courseId}/analyze-skills", s.ReanalyzeCourseSkills)
			})

			admin.Route("/categories", func(categories chi.Router) {
				categories.Get("/", s.AdminListCategories)
				categories.Post("/", s.CreateCategory)
				categories.Put("/{categoryId}", s.UpdateCategory)
				categories.Delete("/{categoryId}", s.DeleteCategory)
			})
			admin.Route("/course-types", func(courseTypes chi.Router) {
				courseTypes.Get("/", s.AdminListCourseTypes)
				courseTypes.Post("/", s.CreateCourseType)
				courseTypes.Put("/{courseTypeId}", s.UpdateCourseType)
				courseTypes.Delete("/{courseTypeId}", s.DeleteCourseType)
			})
			admin.Route("/institutions", func(institutions chi.Router) {
				institutions.Get("/", s.AdminListInstitutions)
				institutions.Post("/", s.CreateInstitution)
				institutions.Put("/{institutionId}", s.UpdateInstitution)
				institutions.Delete("/{institutionId}", s.DeleteInstitution)
			})
			admin.Route("/instructors", func(instructors chi.Router) {
				instructors.Get("/", s.AdminListInstructors)
				instructors.Post("/", s.CreateInstructor)
				instructors.Put("/{instructorId}", s.UpdateInstructor)
				instructors.Delete("/{instructorId}", s.DeleteInstructor)
			})

			admin.Route("/news", func(news chi.Router) {
				news.Get("/", s.AdminListNews)
				news.Post("/", s.CreateNews)
				news.Put("/{newsId}", s.UpdateNews)
				news.Delete("/{newsId}", s.DeleteNews)
			})
			admin.Route("/banners", func(banners chi.Router) {
				banners.Get("/", s.AdminListBanners)
				banners.Post("/", s.CreateBanner)
				banners.Put("/{bannerId}", s.UpdateBanner)
				banners.Delete("/{bannerId}", s.DeleteBanner)
			})
			admin.Route("/popups", func(popups chi.Router) {
				popups.Get("/", s.AdminListPopups)
				popups.Post("/", s.CreatePopup)
				popups.Put("/{popupId}", s.UpdatePopup)
				popups.Delete("/{popupId}", s.DeletePopup)
			})

			admin.Get("/settings", s.AdminGetSettings)
			admin.With(RequireRole(services.RoleSuperAdmin)).Put("/settings", s.SaveSettings)

			admin.Route("/users", func(users chi.Router) {
				users.Use(RequireRole(services.RoleSuperAdmin))
				users.Get("/", s.ListAdminUsers)
				users.Post("/", s.CreateAdminUser)
				users.Put("/{userId}", s.UpdateAdminUser)
				users.Delete("/{userId}", s.DeleteAdminUser)
			})

			admin.Get("/metrics/history", s.MetricsHistory)
			admin.Get("/cache/stats", s.CacheStats)
			admin.Delete("/cache", s.ClearCache)
		})

		api.Route("/media", func(media chi.Router) {
			media.With(WithAuth(s.Tokens), RequireAnyRole(services.RoleAdmin, services.RoleSuperAdmin)).
				Post("/uploads/{bucket}", s.UploadMedia)
			media.Get("/assets/{assetId}/content", s.MediaContent)
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}
