package devidp

import (
	"net/http"

	"accountd/internal/http/response"
	"accountd/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the provider's own endpoints: password sign-in,
// exchange-token redemption, and email confirmation. These sit next to the
// application routes because the provider runs in-process; a hosted provider
// would serve them itself.
type Handler struct {
	provider *Provider
	val      *validator.Validator
}

func NewHandler(provider *Provider, val *validator.Validator) *Handler {
	return &Handler{provider: provider, val: val}
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type exchangeRequest struct {
	Token string `json:"token" validate:"required"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type tokenResponse struct {
	IDToken string `json:"idToken"`
}

type statusResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sign-in", h.SignIn)
	rg.POST("/exchange", h.Exchange)
	rg.POST("/verify-email", h.VerifyEmail)
}

// SignIn trades email+password for an ID token. Every failure is the uniform
// invalid-credentials response.
func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request")
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed")
		return
	}

	token, err := h.provider.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
		return
	}

	response.OK(c, tokenResponse{IDToken: token})
}

// Exchange redeems the short-lived token issued by Login for a fresh ID token.
func (h *Handler) Exchange(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request")
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed")
		return
	}

	token, err := h.provider.ExchangeForIDToken(c.Request.Context(), req.Token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
		return
	}

	response.OK(c, tokenResponse{IDToken: token})
}

// VerifyEmail consumes the token carried by a verification link.
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request")
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed")
		return
	}

	if err := h.provider.ConfirmEmailWithToken(c.Request.Context(), req.Token); err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
		return
	}

	response.OK(c, statusResponse{Success: true})
}
