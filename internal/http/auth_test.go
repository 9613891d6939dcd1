package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thaimooc-backend-go/internal/services"
)

func testTokens() services.TokenService {
	return services.TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "thaimooc-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func protectedEcho(tokens services.TokenService, extra ...func(http.Handler) http.Handler) http.Handler {
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	for i := len(extra) - 1; i >= 0; i-- {
		handler = extra[i](handler)
	}
	return WithAuth(tokens)(handler)
}

func TestWithAuthRejectsMissingHeader(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/", nil)
	protectedEcho(testTokens()).ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}

func TestWithAuthRejectsRefreshToken(t *testing.T) {
	tokens := testTokens()
	refresh, err := tokens.CreateRefreshToken("admin-1")
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("Authorization", "Bearer "+refresh)
	protectedEcho(tokens).ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token must not pass auth, status = %d", recorder.Code)
	}
}

func TestWithAuthAcceptsAccessToken(t *testing.T) {
	tokens := testTokens()
	access, _, err := tokens.CreateAccessToken("admin-1", "admin", services.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("Authorization", "Bearer "+access)
	protectedEcho(tokens).ServeHTTP(recorder, request)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", recorder.Code)
	}
}

func TestRequireRoleBlocksLowerRole(t *testing.T) {
	tokens := testTokens()
	access, _, err := tokens.CreateAccessToken("admin-1", "admin", services.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("PUT", "/settings", nil)
	request.Header.Set("Authorization", "Bearer "+access)
	protectedEcho(tokens, RequireRole(services.RoleSuperAdmin)).ServeHTTP(recorder, request)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("ADMIN must not pass a SUPER_ADMIN gate, status = %d", recorder.Code)
	}
}

func TestRequireAnyRolePassesEitherRole(t *testing.T) {
	tokens := testTokens()
	for _, role := range []string{services.RoleAdmin, services.RoleSuperAdmin} {
		access, _, err := tokens.CreateAccessToken("admin-1", "admin", role)
		if err != nil {
			t.Fatalf("CreateAccessToken: %v", err)
		}
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("GET", "/", nil)
		request.Header.Set("Authorization", "Bearer "+access)
		protectedEcho(tokens, RequireAnyRole(services.RoleAdmin, services.RoleSuperAdmin)).ServeHTTP(recorder, request)
		if recorder.Code != http.StatusNoContent {
			t.Errorf("role %s: status = %d, want 204", role, recorder.Code)
		}
	}
}
