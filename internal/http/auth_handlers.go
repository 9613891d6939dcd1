package httpapi

import (
	"net/http"
	"strings"

	"thaimooc-backend-go/internal/services"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresAt    int64         `json:"expiresAt"`
	User         *AdminUserDTO `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || strings.TrimSpace(req.Password) == "" {
		WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	row := struct {
		ID           string `db:"id"`
		Username     string `db:"username"`
		PasswordHash string `db:"password_hash"`
		Role         string `db:"role"`
		Status       string `db:"status"`
	}{}
	err := s.DB.Get(&row, `
SELECT id, username, password_hash, role, status
FROM admin_users WHERE lower(username) = $1`, username)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if row.Status != "ACTIVE" {
		WriteError(w, http.StatusForbidden, "Account is disabled")
		return
	}
	if !s.Tokens.VerifyPassword(req.Password, row.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	access, exp, err := s.Tokens.CreateAccessToken(row.ID, row.Username, row.Role)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	refresh, err := s.Tokens.CreateRefreshToken(row.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	_ = services.SetAdminLastLogin(s.DB, row.ID)
	user, err := loadAdminUser(s.DB, row.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteData(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
		User:         user,
	})
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	token, claims, err := s.Tokens.ParseToken(req.RefreshToken)
	if err != nil || !token.Valid || claims["typ"] != "refresh" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	adminID, _ := claims["sub"].(string)
	if adminID == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	user, err := loadAdminUser(s.DB, adminID)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if user.Status != "ACTIVE" {
		WriteError(w, http.StatusForbidden, "Account is disabled")
		return
	}
	access, exp, err := s.Tokens.CreateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	refresh, err := s.Tokens.CreateRefreshToken(user.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteData(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
		User:         user,
	})
}

// Logout is stateless: tokens simply expire, the client drops its copy.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteMessage(w, "Logged out")
}
