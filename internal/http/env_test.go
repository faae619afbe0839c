package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"overseas-housing/internal/db"
	"overseas-housing/internal/domain"
	"overseas-housing/internal/realtime"
	"overseas-housing/internal/repository"
	"overseas-housing/internal/service"
)

const testPassword = "123456"

type testEnv struct {
	router  *gin.Engine
	store   repository.Store
	jwtSvc  *service.JWTService
	convSrv *service.ConversationService
	hub     *realtime.Hub
	tokens  map[string]string
}

// newTestEnv monta la API completa sobre SQLite en memoria con u1, u2, u3 y la conversación c1 = [u1, u2].
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, service.NewMemoryRefreshTokenStore())
}

func newTestEnvWithStore(t *testing.T, refreshStore service.RefreshTokenStore) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := repository.NewSqliteStore(conn)

	logger := zap.NewNop()
	jwtSvc := service.NewJWTServiceWithStore("test-secret", time.Hour, 24*time.Hour, refreshStore)
	hub := realtime.NewHub(logger)
	t.Cleanup(hub.Close)
	convSrv := service.NewConversationService(logger, store.Conversations, store.Messages, hub)
	userSrv := service.NewUserService(logger, store.Users, service.NewLoginRateLimiter(time.Minute, 3))

	env := &testEnv{
		store:   store,
		jwtSvc:  jwtSvc,
		convSrv: convSrv,
		hub:     hub,
		tokens:  make(map[string]string),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seed := []domain.User{
		{ID: "u1", Name: "Berna", Email: "berna@student.com", Role: domain.RoleStudent},
		{ID: "u2", Name: "Sinem", Email: "sinem@consultant.com", Role: domain.RoleConsultant},
		{ID: "u3", Name: "Ahmet", Email: "ahmet@owner.com", Role: domain.RoleOwner},
	}
	for i, u := range seed {
		u.PasswordHash = string(hash)
		u.CreatedAt = now.Add(time.Duration(i) * time.Second)
		if err := store.Users.Create(ctx, u); err != nil {
			t.Fatalf("seed user %s: %v", u.ID, err)
		}
		pair, err := jwtSvc.GeneratePair(ctx, u)
		if err != nil {
			t.Fatalf("token for %s: %v", u.ID, err)
		}
		env.tokens[u.ID] = pair.AccessToken
	}
	if err := store.Conversations.Create(ctx, domain.Conversation{
		ID:             "c1",
		ParticipantIDs: []string{"u1", "u2"},
		CreatedAt:      now,
	}); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	env.router = NewRouter(
		logger,
		jwtSvc,
		NewAuthHandler(logger, userSrv, jwtSvc),
		NewUserHandler(logger, userSrv),
		NewConversationHandler(logger, convSrv),
		NewSocketHandler(logger, jwtSvc, convSrv, hub, nil),
		func(ctx context.Context) error { return conn.PingContext(ctx) },
	)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[userID])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	body := decodeBody[errorBody](t, rec)
	if body.Message != message {
		t.Fatalf("expected message %q, got %q", message, body.Message)
	}
	if body.Error == "" {
		t.Fatalf("expected error code in body")
	}
}
