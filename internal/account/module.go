package account

import (
	"accountd/internal/account/handler"
	"accountd/internal/account/registry"
	"accountd/internal/account/repository"
	"accountd/internal/account/service"
	"accountd/internal/docstore"
	apphttp "accountd/internal/http"
	"accountd/internal/identity"
	"accountd/platform/logger"
	"accountd/platform/validator"
)

// Module bundles the account bounded context: the reconciliation engine and
// its HTTP surface.
type Module struct {
	Engine  *service.Engine
	handler *handler.Handler
}

func NewModule(idp identity.Provider, store docstore.Store, val *validator.Validator, log *logger.Logger) *Module {
	profiles := repository.New(store)
	usernames := registry.New(store)
	engine := service.New(idp, store, profiles, usernames, log)

	return &Module{
		Engine:  engine,
		handler: handler.New(engine, val),
	}
}

func (m *Module) Name() string { return "account" }

var _ Engine = (*service.Engine)(nil)

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	auth := ctx.V1.Group("/auth")
	m.handler.RegisterAuthRoutes(auth)
	m.handler.RegisterUserRoutes(ctx.Protected)
}
