package services

import (
	"testing"
	"time"
)

func testTokenService() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "thaimooc-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens := testTokenService()
	signed, _, err := tokens.CreateAccessToken("user-1", "admin", RoleSuperAdmin)
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	token, claims, err := tokens.ParseToken(signed)
	if err != nil || !token.Valid {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims["sub"] != "user-1" || claims["role"] != RoleSuperAdmin || claims["typ"] != "access" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestParseTokenRejectsWrongIssuer(t *testing.T) {
	tokens := testTokenService()
	other := tokens
	other.Issuer = "someone-else"
	signed, _, err := other.CreateAccessToken("user-1", "admin", RoleAdmin)
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	if _, _, err := tokens.ParseToken(signed); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}

func TestSeedAdminPasswordPrefersConfiguredValue(t *testing.T) {
	t.Setenv("ADMIN_INITIAL_PASSWORD", " s3cret ")
	password, generated, err := seedAdminPassword()
	if err != nil {
		t.Fatalf("seedAdminPassword: %v", err)
	}
	if generated {
		t.Fatal("configured password reported as generated")
	}
	if password != "s3cret" {
		t.Fatalf("password = %q, want trimmed env value", password)
	}
}

func TestSeedAdminPasswordGeneratesWhenUnset(t *testing.T) {
	t.Setenv("ADMIN_INITIAL_PASSWORD", "")
	password, generated, err := seedAdminPassword()
	if err != nil {
		t.Fatalf("seedAdminPassword: %v", err)
	}
	if !generated {
		t.Fatal("expected a generated password")
	}
	if len(password) < 16 {
		t.Fatalf("generated password too short: %q", password)
	}
	again, _, _ := seedAdminPassword()
	if again == password {
		t.Fatal("generated passwords must not repeat")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	tokens := testTokenService()
	hash, err := tokens.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !tokens.VerifyPassword("s3cret", hash) {
		t.Fatalf("correct password rejected")
	}
	if tokens.VerifyPassword("wrong", hash) {
		t.Fatalf("wrong password accepted")
	}
}
