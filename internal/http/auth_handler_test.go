package http

import (
	"net/http"
	"strings"
	"testing"

	"overseas-housing/internal/domain"
	"overseas-housing/internal/service"
)

type authBody struct {
	User         domain.User `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Deniz",
		"email":    "deniz@rep.com",
		"password": "secret",
		"role":     "representative",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	reg := decodeBody[authBody](t, rec)
	if reg.User.Role != domain.RoleRepresentative || reg.Token == "" || reg.RefreshToken == "" {
		t.Fatalf("unexpected register response: %+v", reg)
	}
	if reg.ExpiresIn != 3600 {
		t.Fatalf("expected one hour expiry, got %d", reg.ExpiresIn)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password hash must not be serialized: %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "DENIZ@rep.com",
		"password": "secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	login := decodeBody[authBody](t, rec)
	if login.User.ID != reg.User.ID {
		t.Fatalf("expected same user, got %s vs %s", login.User.ID, reg.User.ID)
	}

	env.tokens["deniz"] = login.Token
	rec = env.do(t, http.MethodGet, "/api/auth/me", "deniz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /me, got %d", rec.Code)
	}
}

func TestAuthHandler_RegisterErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "x"})
	expectError(t, rec, http.StatusBadRequest, "Missing required fields")

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "x", "email": "x@y.com", "password": "p", "role": "admin",
	})
	expectError(t, rec, http.StatusBadRequest, "Invalid role")

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Berna", "email": "berna@student.com", "password": "p", "role": "student",
	})
	expectError(t, rec, http.StatusBadRequest, "Email is already registered")
}

func TestAuthHandler_LoginErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "berna@student.com"})
	expectError(t, rec, http.StatusBadRequest, "Missing credentials")

	for i := 0; i < 3; i++ {
		rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "berna@student.com", "password": "wrong",
		})
		expectError(t, rec, http.StatusUnauthorized, "Invalid credentials")
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "berna@student.com", "password": testPassword,
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}
}

func TestAuthHandler_RefreshRotationAndLogout(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		testRefreshRotationAndLogout(t, newTestEnv(t))
	})
	t.Run("redis", func(t *testing.T) {
		rdb := newSessionRedis()
		env := newTestEnvWithStore(t, service.NewRedisRefreshTokenStore(rdb))
		seeded := rdb.sessionCount()
		testRefreshRotationAndLogout(t, env)
		if n := rdb.sessionCount(); n != seeded {
			t.Fatalf("expected logout to leave %d seeded sessions, got %d", seeded, n)
		}
	})
}

func testRefreshRotationAndLogout(t *testing.T, env *testEnv) {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "sinem@consultant.com", "password": testPassword,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	first := decodeBody[authBody](t, rec)

	rec = env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": first.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}
	rotated := decodeBody[authBody](t, rec)
	if rotated.RefreshToken == "" || rotated.RefreshToken == first.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}

	rec = env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": first.RefreshToken})
	expectError(t, rec, http.StatusUnauthorized, msgInvalidToken)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", "", map[string]string{"refreshToken": rotated.RefreshToken})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": rotated.RefreshToken})
	expectError(t, rec, http.StatusUnauthorized, msgInvalidToken)
}

func TestAuthHandler_LogoutAll(t *testing.T) {
	rdb := newSessionRedis()
	env := newTestEnvWithStore(t, service.NewRedisRefreshTokenStore(rdb))

	var refresh []string
	for range 2 {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "berna@student.com", "password": testPassword,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
		}
		refresh = append(refresh, decodeBody[authBody](t, rec).RefreshToken)
	}
	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "sinem@consultant.com", "password": testPassword,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	other := decodeBody[authBody](t, rec).RefreshToken

	rec = env.do(t, http.MethodPost, "/api/auth/logout-all", "", nil)
	expectError(t, rec, http.StatusUnauthorized, msgUnauthorized)

	rec = env.do(t, http.MethodPost, "/api/auth/logout-all", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[struct {
		Revoked int `json:"revoked"`
	}](t, rec); got.Revoked < 2 {
		t.Fatalf("expected both logins revoked, got %d", got.Revoked)
	}

	for _, token := range refresh {
		rec = env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": token})
		expectError(t, rec, http.StatusUnauthorized, msgInvalidToken)
	}
	rec = env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": other})
	if rec.Code != http.StatusOK {
		t.Fatalf("other user session should survive, got %d", rec.Code)
	}
}

func TestUserHandler_Directory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/users/consultants", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	consultants := decodeBody[[]domain.User](t, rec)
	if len(consultants) != 1 || consultants[0].ID != "u2" {
		t.Fatalf("unexpected consultants: %+v", consultants)
	}

	rec = env.do(t, http.MethodGet, "/api/users/representatives", "u1", nil)
	if got := decodeBody[[]domain.User](t, rec); len(got) != 0 {
		t.Fatalf("expected no representatives, got %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/users?role=owner", "u1", nil)
	if got := decodeBody[[]domain.User](t, rec); len(got) != 1 || got[0].ID != "u3" {
		t.Fatalf("unexpected owners: %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/users?role=admin", "u1", nil)
	expectError(t, rec, http.StatusBadRequest, "Invalid role")

	rec = env.do(t, http.MethodGet, "/api/users/consultants", "", nil)
	expectError(t, rec, http.StatusUnauthorized, msgUnauthorized)
}
