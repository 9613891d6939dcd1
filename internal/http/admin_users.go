package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"thaimooc-backend-go/internal/services"
)

type AdminUserDTO struct {
	ID          string  `json:"id" db:"id"`
	Username    string  `json:"username" db:"username"`
	DisplayName *string `json:"displayName" db:"display_name"`
	Role        string  `json:"role" db:"role"`
	Status      string  `json:"status" db:"status"`
	LastLoginAt *string `json:"lastLoginAt"`
}

type adminUserRow struct {
	ID          string     `db:"id"`
	Username    string     `db:"username"`
	DisplayName *string    `db:"display_name"`
	Role        string     `db:"role"`
	Status      string     `db:"status"`
	LastLoginAt *time.Time `db:"last_login_at"`
}

func (row adminUserRow) toDTO() *AdminUserDTO {
	dto := &AdminUserDTO{
		ID:          row.ID,
		Username:    row.Username,
		DisplayName: row.DisplayName,
		Role:        row.Role,
		Status:      row.Status,
	}
	if row.LastLoginAt != nil {
		formatted := row.LastLoginAt.UTC().Format(time.RFC3339)
		dto.LastLoginAt = &formatted
	}
	return dto
}

func loadAdminUser(database *sqlx.DB, id string) (*AdminUserDTO, error) {
	row := adminUserRow{}
	err := database.Get(&row, `
SELECT id, username, display_name, role, status, last_login_at
FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return row.toDTO(), nil
}

func (s *Server) ListAdminUsers(w http.ResponseWriter, r *http.Request) {
	rows := []adminUserRow{}
	err := s.DB.Select(&rows, `
SELECT id, username, display_name, role, status, last_login_at
FROM admin_users ORDER BY username ASC`)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]*AdminUserDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDTO())
	}
	WriteList(w, items, len(items))
}

type AdminUserCreateRequest struct {
	Username    string  `json:"username" validate:"required,min=3"`
	Password    string  `json:"password" validate:"required,min=8"`
	DisplayName *string `json:"displayName"`
	Role        string  `json:"role"`
}

func (s *Server) CreateAdminUser(w http.ResponseWriter, r *http.Request) {
	var req AdminUserCreateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = services.RoleAdmin
	}
	if role != services.RoleAdmin && role != services.RoleSuperAdmin {
		WriteError(w, http.StatusBadRequest, "Unknown role")
		return
	}
	var exists bool
	if err := s.DB.Get(&exists, `SELECT EXISTS(SELECT 1 FROM admin_users WHERE lower(username) = $1)`, username); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if exists {
		WriteError(w, http.StatusBadRequest, "Username is taken")
		return
	}
	hash, err := s.Tokens.HashPassword(req.Password)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	userID := uuid.NewString()
	_, err = s.DB.Exec(`
INSERT INTO admin_users (id, username, password_hash, display_name, role, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,'ACTIVE',$6,$6)`,
		userID, username, hash, req.DisplayName, role, time.Now().UTC())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	user, err := loadAdminUser(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteData(w, http.StatusCreated, user)
}

type AdminUserUpdateRequest struct {
	DisplayName *string `json:"displayName"`
	Password    *string `json:"password"`
	Role        *string `json:"role"`
	Status      *string `json:"status"`
}

func (s *Server) UpdateAdminUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	var req AdminUserUpdateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	builder := services.NewUpdate()
	builder.SetString("display_name", req.DisplayName)
	if req.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*req.Role))
		if role != services.RoleAdmin && role != services.RoleSuperAdmin {
			WriteError(w, http.StatusBadRequest, "Unknown role")
			return
		}
		if userID == CurrentAdminID(r) && role != services.RoleSuperAdmin {
			WriteError(w, http.StatusBadRequest, "Cannot demote your own account")
			return
		}
		builder.Set("role", role)
	}
	if req.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.Status))
		if status != "ACTIVE" && status != "DISABLED" {
			WriteError(w, http.StatusBadRequest, "Unknown status")
			return
		}
		if userID == CurrentAdminID(r) && status != "ACTIVE" {
			WriteError(w, http.StatusBadRequest, "Cannot disable your own account")
			return
		}
		builder.Set("status", status)
	}
	if req.Password != nil && strings.TrimSpace(*req.Password) != "" {
		if len(*req.Password) < 8 {
			WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		}
		hash, err := s.Tokens.HashPassword(*req.Password)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		builder.Set("password_hash", hash)
	}
	if builder.Empty() {
		WriteError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	builder.Set("updated_at", time.Now().UTC())
	query, args := builder.Build("admin_users", "id", userID)
	result, err := s.DB.Exec(query, args...)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	user, err := loadAdminUser(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteData(w, http.StatusOK, user)
}

func (s *Server) DeleteAdminUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == CurrentAdminID(r) {
		WriteError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}
	result, err := s.DB.Exec(`DELETE FROM admin_users WHERE id = $1`, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	WriteMessage(w, "User deleted")
}
