package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"thaimooc-backend-go/internal/cache"
	"thaimooc-backend-go/internal/services"
)

// newsListCacheKey is built from the clamped limit so every request that maps
// to the same page shares one cache entry.
func newsListCacheKey(limit int) string {
	return cache.ListKey("news", map[string]string{"limit": strconv.Itoa(limit)})
}

func (s *Server) PublicNews(w http.ResponseWriter, r *http.Request) {
	limit := services.ClampNewsLimit(parseInt(r.URL.Query().Get("limit"), 20))
	key := newsListCacheKey(limit)
	if cached, ok := s.Cache.Get(key); ok {
		if items, ok := cached.([]services.NewsDTO); ok {
			WriteList(w, items, len(items))
			return
		}
	}
	items, err := services.ListNews(s.DB, true, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.Set(key, items, s.Config.ContentCacheTTL)
	WriteList(w, items, len(items))
}

func (s *Server) PublicNewsDetail(w http.ResponseWriter, r *http.Request) {
	item, err := services.GetNews(s.DB, chi.URLParam(r, "newsId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, item)
}

func (s *Server) AdminListNews(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListNews(s.DB, false, parseInt(r.URL.Query().Get("limit"), 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteList(w, items, len(items))
}

func (s *Server) CreateNews(w http.ResponseWriter, r *http.Request) {
	var input services.NewsInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.CreateNews(s.DB, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("news:*")
	s.Cache.ClearPattern("search:*")
	WriteData(w, http.StatusCreated, item)
}

func (s *Server) UpdateNews(w http.ResponseWriter, r *http.Request) {
	var input services.NewsUpdateInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.UpdateNews(s.DB, chi.URLParam(r, "newsId"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("news:*")
	s.Cache.ClearPattern("search:*")
	WriteData(w, http.StatusOK, item)
}

func (s *Server) DeleteNews(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteNews(s.DB, chi.URLParam(r, "newsId")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("news:*")
	s.Cache.ClearPattern("search:*")
	WriteMessage(w, "News deleted")
}

func (s *Server) PublicBanners(w http.ResponseWriter, r *http.Request) {
	writeCachedList(s, w, cache.ListKey("banners", nil), func() ([]services.BannerDTO, error) {
		return services.ListBanners(s.DB, true)
	})
}

func (s *Server) AdminListBanners(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListBanners(s.DB, false)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteList(w, items, len(items))
}

func (s *Server) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var input services.BannerInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.CreateBanner(s.DB, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("banners:*")
	WriteData(w, http.StatusCreated, item)
}

func (s *Server) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	var input services.BannerUpdateInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.UpdateBanner(s.DB, chi.URLParam(r, "bannerId"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("banners:*")
	WriteData(w, http.StatusOK, item)
}

func (s *Server) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteBanner(s.DB, chi.URLParam(r, "bannerId")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("banners:*")
	WriteMessage(w, "Banner deleted")
}

func (s *Server) PublicPopups(w http.ResponseWriter, r *http.Request) {
	writeCachedList(s, w, cache.ListKey("popups", nil), func() ([]services.PopupDTO, error) {
		return services.ListPopups(s.DB, true)
	})
}

func (s *Server) AdminListPopups(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListPopups(s.DB, false)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteList(w, items, len(items))
}

func (s *Server) CreatePopup(w http.ResponseWriter, r *http.Request) {
	var input services.PopupInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.CreatePopup(s.DB, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("popups:*")
	WriteData(w, http.StatusCreated, item)
}

func (s *Server) UpdatePopup(w http.ResponseWriter, r *http.Request) {
	var input services.PopupUpdateInput
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.UpdatePopup(s.DB, chi.URLParam(r, "popupId"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("popups:*")
	WriteData(w, http.StatusOK, item)
}

func (s *Server) DeletePopup(w http.ResponseWriter, r *http.Request) {
	if err := services.DeletePopup(s.DB, chi.URLParam(r, "popupId")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("popups:*")
	WriteMessage(w, "Popup deleted")
}

func (s *Server) PublicSettings(w http.ResponseWriter, r *http.Request) {
	key := cache.ItemKey("settings", "public")
	if cached, ok := s.Cache.Get(key); ok {
		if item, ok := cached.(*services.SettingsDTO); ok {
			WriteData(w, http.StatusOK, item)
			return
		}
	}
	item, err := services.GetSettings(s.DB)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.Set(key, item, s.Config.ContentCacheTTL)
	WriteData(w, http.StatusOK, item)
}

func (s *Server) AdminGetSettings(w http.ResponseWriter, r *http.Request) {
	item, err := services.GetSettings(s.DB)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, item)
}

func (s *Server) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var input services.SettingsDTO
	if !s.decodeBody(w, r, &input) {
		return
	}
	item, err := services.SaveSettings(s.DB, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.Cache.ClearPattern("settings:*")
	WriteData(w, http.StatusOK, item)
}
