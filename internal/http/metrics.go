package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"thaimooc-backend-go/internal/services"
)

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 120)
	if limit > 500 {
		limit = 500
	}
	items, err := services.LatestMetrics(s.DB, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteList(w, items, len(items))
}

// MetricsSocket streams live samples to the admin dashboard. Browsers cannot
// set Authorization on websocket upgrades, so the access token rides in the
// query string.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	token, claims, err := s.Tokens.ParseToken(raw)
	if err != nil || !token.Valid || claims["typ"] != "access" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	role, _ := claims["role"].(string)
	role = strings.ToUpper(role)
	if role != services.RoleAdmin && role != services.RoleSuperAdmin {
		WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.MetricsHub.Add(conn)
	defer func() {
		s.MetricsHub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

type CacheStatsResponse struct {
	Entries int `json:"entries"`
}

func (s *Server) CacheStats(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, CacheStatsResponse{Entries: s.Cache.Len()})
}

type ClearCacheResponse struct {
	Removed int `json:"removed"`
}

// ClearCache drops cached responses matching ?pattern=, or everything when no
// pattern is given.
func (s *Server) ClearCache(w http.ResponseWriter, r *http.Request) {
	pattern := strings.TrimSpace(r.URL.Query().Get("pattern"))
	if pattern == "" {
		pattern = "*"
	}
	removed := s.Cache.ClearPattern(pattern)
	WriteData(w, http.StatusOK, ClearCacheResponse{Removed: removed})
}
