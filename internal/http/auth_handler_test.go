package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"recipe-blog/internal/config"
	"recipe-blog/internal/domain"
	"recipe-blog/internal/service"
)

type mockUserRepo struct {
	nextID       int64
	usersByID    map[int64]domain.User
	usersByEmail map[string]int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[int64]domain.User),
		usersByEmail: make(map[string]int64),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	if _, exists := m.usersByEmail[user.Email]; exists {
		return domain.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return user, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) ListRecent(_ context.Context, limit int) ([]domain.User, error) {
	users := make([]domain.User, 0, len(m.usersByID))
	for _, u := range m.usersByID {
		if len(users) >= limit {
			break
		}
		users = append(users, u)
	}
	return users, nil
}

type mockHistoryRepo struct {
	events []domain.LoginEvent
}

func (m *mockHistoryRepo) Create(_ context.Context, event domain.LoginEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockHistoryRepo) ListRecent(_ context.Context, limit int) ([]domain.LoginEvent, error) {
	if len(m.events) > limit {
		return m.events[:limit], nil
	}
	return m.events, nil
}

type mockRatingRepo struct {
	nextID  int64
	ratings []domain.Rating
}

func (m *mockRatingRepo) Create(_ context.Context, rating domain.Rating) (domain.Rating, error) {
	m.nextID++
	rating.ID = m.nextID
	rating.CreatedAt = time.Now().UTC()
	m.ratings = append(m.ratings, rating)
	return rating, nil
}

func (m *mockRatingRepo) ListByRecipe(_ context.Context, recipeName string) ([]domain.Rating, error) {
	out := make([]domain.Rating, 0)
	for _, r := range m.ratings {
		if r.RecipeName == recipeName {
			out = append(out, r)
		}
	}
	return out, nil
}

type testEnv struct {
	router  *gin.Engine
	users   *mockUserRepo
	history *mockHistoryRepo
	ratings *mockRatingRepo
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	cfg := &config.Config{HTTPPort: "5200", CORSOrigin: "*", AppEnv: "development"}

	users := newMockUserRepo()
	history := &mockHistoryRepo{}
	ratings := &mockRatingRepo{}

	tokenSvc := service.NewTokenService("test-secret", time.Hour)
	authSvc := service.NewAuthService(logger, users, history)
	ratingSvc := service.NewRatingService(logger, ratings, nil)

	authH := NewAuthHandler(logger, authSvc, tokenSvc)
	ratingH := NewRatingHandler(logger, ratingSvc)

	return &testEnv{
		router:  NewRouter(logger, cfg, tokenSvc, authH, ratingH),
		users:   users,
		history: history,
		ratings: ratings,
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestRegisterLoginMeFlow(t *testing.T) {
	env := setupTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/register", "", gin.H{
		"name":     "Ana",
		"email":    "Ana@Test.com",
		"password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	registerBody := decodeBody(t, rec)
	registerToken, _ := registerBody["token"].(string)
	if registerToken == "" {
		t.Fatalf("register: expected token")
	}
	registerUser, _ := registerBody["user"].(map[string]any)
	if registerUser["email"] != "ana@test.com" {
		t.Fatalf("register: expected normalized email, got %v", registerUser["email"])
	}

	rec = doJSON(t, env.router, http.MethodPost, "/api/login", "", gin.H{
		"email":    "ana@test.com",
		"password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	loginBody := decodeBody(t, rec)
	loginToken, _ := loginBody["token"].(string)
	if loginToken == "" || loginToken == registerToken {
		t.Fatalf("login: expected a fresh token")
	}
	loginUser, _ := loginBody["user"].(map[string]any)
	if loginUser["id"] != registerUser["id"] {
		t.Fatalf("login: expected same user id, got %v and %v", loginUser["id"], registerUser["id"])
	}

	rec = doJSON(t, env.router, http.MethodGet, "/api/me", loginToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	meBody := decodeBody(t, rec)
	meUser, _ := meBody["user"].(map[string]any)
	if meUser["name"] != "Ana" || meUser["email"] != "ana@test.com" || meUser["id"] != registerUser["id"] {
		t.Fatalf("me: unexpected user %v", meUser)
	}
}

func TestRegisterValidationAndConflict(t *testing.T) {
	env := setupTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/register", "", gin.H{"email": "a@b.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, env.router, http.MethodPost, "/api/register", "", gin.H{"email": "a@b.com", "password": "short"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, env.router, http.MethodPost, "/api/register", "", gin.H{"email": "A@B.com", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, env.router, http.MethodPost, "/api/register", "", gin.H{"email": "a@b.com", "password": "secret2"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := setupTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/register", "", gin.H{"email": "a@b.com", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, env.router, http.MethodPost, "/api/login", "", gin.H{"email": "a@b.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", rec.Code)
	}

	wrongPass := doJSON(t, env.router, http.MethodPost, "/api/login", "", gin.H{"email": "a@b.com", "password": "wrongpass"})
	unknownEmail := doJSON(t, env.router, http.MethodPost, "/api/login", "", gin.H{"email": "nobody@b.com", "password": "secret1"})
	if wrongPass.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both failures, got %d and %d", wrongPass.Code, unknownEmail.Code)
	}
	// La respuesta no debe permitir enumerar emails registrados.
	if wrongPass.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("expected identical bodies, got %q and %q", wrongPass.Body.String(), unknownEmail.Body.String())
	}
}

func TestLoginRecordsHistory(t *testing.T) {
	env := setupTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/register", "", gin.H{"email": "a@b.com", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}
	token := decodeBody(t, rec)["token"].(string)

	rec = doJSON(t, env.router, http.MethodPost, "/api/login", "", gin.H{"email": "a@b.com", "password": "secret1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}

	// La escritura del historial es asíncrona respecto a la respuesta.
	deadline := time.Now().Add(time.Second)
	for len(env.history.events) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if len(env.history.events) != 1 || env.history.events[0].Email != "a@b.com" {
		t.Fatalf("expected one login event, got %+v", env.history.events)
	}

	rec = doJSON(t, env.router, http.MethodGet, "/api/login-history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login-history: expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	events, _ := body["loginHistory"].([]any)
	if len(events) != 1 {
		t.Fatalf("expected one event in response, got %v", body)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	rec := doJSON(t, env.router, http.MethodGet, "/api/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMeUserGone(t *testing.T) {
	env := setupTestEnv(t)

	tokenSvc := service.NewTokenService("test-secret", time.Hour)
	token, err := tokenSvc.Issue(domain.User{ID: 999, Email: "gone@b.com"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rec := doJSON(t, env.router, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	rec := doJSON(t, env.router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["ok"] != true {
		t.Fatalf("expected ok true, got %v", body)
	}
}

func TestDebugUsersBlockedInProduction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	cfg := &config.Config{HTTPPort: "5200", CORSOrigin: "*", AppEnv: "production"}

	tokenSvc := service.NewTokenService("test-secret", time.Hour)
	authSvc := service.NewAuthService(logger, newMockUserRepo(), &mockHistoryRepo{})
	ratingSvc := service.NewRatingService(logger, &mockRatingRepo{}, nil)
	router := NewRouter(logger, cfg, tokenSvc,
		NewAuthHandler(logger, authSvc, tokenSvc),
		NewRatingHandler(logger, ratingSvc))

	rec := doJSON(t, router, http.MethodGet, "/api/debug-users", "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
