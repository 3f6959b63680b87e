package devidp

import (
	apphttp "accountd/internal/http"
	"accountd/platform/validator"
)

// Module mounts the provider's HTTP endpoints when the in-process provider is
// active.
type Module struct {
	Provider *Provider
	handler  *Handler
}

func NewModule(provider *Provider, val *validator.Validator) *Module {
	return &Module{
		Provider: provider,
		handler:  NewHandler(provider, val),
	}
}

func (m *Module) Name() string { return "devidp" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/idp"))
}

var _ apphttp.Module = (*Module)(nil)
