package devidp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"accountd/platform/validator"

	"github.com/gin-gonic/gin"
)

func newTestHandler(t *testing.T) (*gin.Engine, *Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := New(nil, Options{
		Secret:           "test-secret",
		IDTokenTTL:       time.Hour,
		ExchangeTokenTTL: 5 * time.Minute,
		VerifyLinkTTL:    24 * time.Hour,
	})
	h := NewHandler(provider, validator.New())

	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1/idp"))
	return router, provider
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSignInRejectsInvalidPayload(t *testing.T) {
	router, _ := newTestHandler(t)

	rec := postJSON(t, router, "/api/v1/idp/sign-in", `{"email":"not-an-email","password":"pw"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExchangeRejectsGarbageToken(t *testing.T) {
	router, _ := newTestHandler(t)

	rec := postJSON(t, router, "/api/v1/idp/exchange", `{"token":"garbage"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExchangeRejectsIDToken(t *testing.T) {
	router, provider := newTestHandler(t)

	idToken, err := provider.signToken("uid-1", "a@x.com", true, typeIDToken, time.Hour)
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}

	rec := postJSON(t, router, "/api/v1/idp/exchange", `{"token":"`+idToken+`"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token type, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyEmailRejectsNonVerifyToken(t *testing.T) {
	router, provider := newTestHandler(t)

	exchangeToken, err := provider.signToken("uid-1", "a@x.com", false, typeExchangeToken, time.Hour)
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}

	rec := postJSON(t, router, "/api/v1/idp/verify-email", `{"token":"`+exchangeToken+`"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token type, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestConfirmEmailWithTokenRejectsExpiredToken(t *testing.T) {
	_, provider := newTestHandler(t)

	expired, err := provider.signToken("uid-1", "a@x.com", false, typeVerifyToken, -time.Minute)
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}

	if err := provider.ConfirmEmailWithToken(t.Context(), expired); err == nil {
		t.Fatal("expected an error for an expired verification token")
	}
}
