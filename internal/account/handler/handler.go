package handler

import (
	"net/http"

	"accountd/internal/account/service"
	"accountd/internal/account/transport"
	apphttp "accountd/internal/http"
	"accountd/internal/http/response"
	"accountd/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	engine *service.Engine
	val    *validator.Validator
}

func New(engine *service.Engine, val *validator.Validator) *Handler {
	return &Handler{engine: engine, val: val}
}

// RegisterAuthRoutes mounts the public auth endpoints.
func (h *Handler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.GET("/verify", h.Verify)
}

// RegisterUserRoutes mounts the authenticated user endpoints.
func (h *Handler) RegisterUserRoutes(rg *gin.RouterGroup) {
	rg.POST("/users/update-username", h.UpdateUsername)
	rg.POST("/users/delete-account", h.DeleteAccount)
	rg.GET("/users/by-username/:username", h.GetByUsername)
	rg.GET("/users/:uid", h.GetByUID)
}

func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", msgValidationFailed)
		return
	}

	profile, err := h.engine.Register(c.Request.Context(), req.Email, req.Username, req.Password, req.DisplayName)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Created(c, transport.NewProfileResponse(profile))
}

func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", msgValidationFailed)
		return
	}

	token, profile, err := h.engine.Login(c.Request.Context(), req.Email)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.OK(c, transport.LoginResponse{
		Token:   token,
		Profile: transport.NewProfileResponse(profile),
	})
}

// Verify authenticates the Bearer token and returns the owning profile,
// creating it first when the uid only exists at the identity provider.
func (h *Handler) Verify(c *gin.Context) {
	token := apphttp.ExtractBearerToken(c.GetHeader("Authorization"))
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "no token provided")
		return
	}

	profile, err := h.engine.VerifyToken(c.Request.Context(), token)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.OK(c, transport.NewProfileResponse(profile))
}

func (h *Handler) UpdateUsername(c *gin.Context) {
	var req transport.UpdateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", msgValidationFailed)
		return
	}

	profile, err := h.engine.UpdateUsername(c.Request.Context(), req.UID, req.Username, req.DisplayName)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.OK(c, transport.NewProfileResponse(profile))
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	var req transport.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", msgValidationFailed)
		return
	}

	success, err := h.engine.DeleteAccount(c.Request.Context(), req.UID)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.OK(c, transport.DeleteAccountResponse{Success: success})
}

func (h *Handler) GetByUID(c *gin.Context) {
	profile, err := h.engine.GetProfile(c.Request.Context(), c.Param("uid"))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.OK(c, transport.NewProfileResponse(profile))
}

func (h *Handler) GetByUsername(c *gin.Context) {
	profile, err := h.engine.GetProfileByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.OK(c, transport.NewProfileResponse(profile))
}
