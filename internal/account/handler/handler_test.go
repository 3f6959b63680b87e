package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"accountd/internal/account/registry"
	"accountd/internal/account/repository"
	"accountd/internal/account/service"
	"accountd/internal/docstore/memory"
	"accountd/internal/identity"
	"accountd/platform/logger"
	"accountd/platform/validator"

	"github.com/gin-gonic/gin"
)

// stubProvider is a minimal in-memory identity.Provider. ID tokens are the
// transparent string "id:<uid>".
type stubProvider struct {
	users   map[string]identity.Record
	nextUID int
}

func newStubProvider() *stubProvider {
	return &stubProvider{users: map[string]identity.Record{}}
}

func (s *stubProvider) CreateUser(_ context.Context, email, _, displayName string) (identity.Record, error) {
	s.nextUID++
	rec := identity.Record{UID: "uid-" + strconv.Itoa(s.nextUID), Email: email, DisplayName: displayName}
	s.users[rec.UID] = rec
	return rec, nil
}

func (s *stubProvider) GetUserByEmail(_ context.Context, email string) (identity.Record, error) {
	for _, rec := range s.users {
		if rec.Email == email {
			return rec, nil
		}
	}
	return identity.Record{}, identity.ErrNotFound
}

func (s *stubProvider) GetUserByUID(_ context.Context, uid string) (identity.Record, error) {
	rec, ok := s.users[uid]
	if !ok {
		return identity.Record{}, identity.ErrNotFound
	}
	return rec, nil
}

func (s *stubProvider) VerifyIDToken(ctx context.Context, token string) (identity.Claims, error) {
	uid, ok := strings.CutPrefix(token, "id:")
	if !ok {
		return identity.Claims{}, fmt.Errorf("malformed token")
	}
	rec, err := s.GetUserByUID(ctx, uid)
	if err != nil {
		return identity.Claims{}, err
	}
	return identity.Claims{UID: rec.UID, Email: rec.Email, EmailVerified: rec.EmailVerified}, nil
}

func (s *stubProvider) CreateExchangeToken(_ context.Context, uid string) (string, error) {
	return "exchange:" + uid, nil
}

func (s *stubProvider) GenerateEmailVerificationLink(_ context.Context, email, _ string) (string, error) {
	return "http://localhost/verify?email=" + email, nil
}

func (s *stubProvider) DeleteUser(_ context.Context, uid string) error {
	delete(s.users, uid)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	provider := newStubProvider()
	profiles := repository.New(store)
	usernames := registry.New(store)
	engine := service.New(provider, store, profiles, usernames, logger.New("test"))
	h := New(engine, validator.New())

	router := gin.New()
	v1 := router.Group("/api/v1")
	h.RegisterAuthRoutes(v1.Group("/auth"))
	h.RegisterUserRoutes(v1)

	return router, provider
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
		`{"email":"a@x.com","username":"Bob","password":"pw123456","displayName":"Bob B"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var profile struct {
		UID      string `json:"uid"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if profile.Username != "bob" {
		t.Fatalf("expected normalized username bob, got %q", profile.Username)
	}
	if profile.UID == "" {
		t.Fatal("expected a uid in the response")
	}
}

func TestRegisterDuplicateUsernameReturnsConflictCode(t *testing.T) {
	router, _ := newTestRouter(t)

	first := doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
		`{"email":"a@x.com","username":"bob","password":"pw123456","displayName":"Bob"}`, "")
	if first.Code != http.StatusCreated {
		t.Fatalf("setup register failed: %d", first.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
		`{"email":"b@x.com","username":"BOB","password":"pw123456","displayName":"Other"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.Code != "USERNAME_ALREADY_EXISTS" {
		t.Fatalf("expected code USERNAME_ALREADY_EXISTS, got %q", body.Code)
	}
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
		`{"email":"not-an-email","username":"bob","password":"pw123456","displayName":"Bob"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginEndpointReturnsTokenAndProfile(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
		`{"email":"a@x.com","username":"bob","password":"pw123456","displayName":"Bob"}`, "")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", `{"email":"a@x.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Token   string `json:"token"`
		Profile struct {
			Username string `json:"username"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !strings.HasPrefix(body.Token, "exchange:") {
		t.Fatalf("expected exchange token, got %q", body.Token)
	}
	if body.Profile.Username != "bob" {
		t.Fatalf("expected profile in login response, got %q", body.Profile.Username)
	}
}

func TestLoginUnknownEmailReturnsUniform401(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", `{"email":"ghost@x.com"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected code INVALID_CREDENTIALS, got %q", body.Code)
	}
}

func TestVerifyEndpointRejectsGarbageToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/verify", "", "garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestVerifyEndpointSelfHealsProfile(t *testing.T) {
	router, provider := newTestRouter(t)

	rec, err := provider.CreateUser(context.Background(), "c@x.com", "pw123456", "Carol")
	if err != nil {
		t.Fatalf("seed identity failed: %v", err)
	}

	resp := doJSON(t, router, http.MethodGet, "/api/v1/auth/verify", "", "id:"+rec.UID)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var profile struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &profile); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if profile.Username != "c" {
		t.Fatalf("expected healed username c, got %q", profile.Username)
	}
}

func TestVerifyEndpointAcceptsLowercaseBearerScheme(t *testing.T) {
	router, provider := newTestRouter(t)

	rec, err := provider.CreateUser(context.Background(), "a@x.com", "pw123456", "Alice")
	if err != nil {
		t.Fatalf("seed identity failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/verify", nil)
	req.Header.Set("Authorization", "bearer id:"+rec.UID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for lowercase bearer scheme, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGetByUsernameEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
		`{"email":"a@x.com","username":"bob","password":"pw123456","displayName":"Bob"}`, "")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/by-username/BOB", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	missing := doJSON(t, router, http.MethodGet, "/api/v1/users/by-username/nobody", "", "")
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
}

func TestDeleteAccountEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	reg := doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
		`{"email":"a@x.com","username":"bob","password":"pw123456","displayName":"Bob"}`, "")
	var profile struct {
		UID string `json:"uid"`
	}
	if err := json.Unmarshal(reg.Body.Bytes(), &profile); err != nil {
		t.Fatalf("bad register body: %v", err)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/users/delete-account",
		`{"uid":"`+profile.UID+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success=true")
	}

	gone := doJSON(t, router, http.MethodGet, "/api/v1/users/by-username/bob", "", "")
	if gone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.Code)
	}
}
