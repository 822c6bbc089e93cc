package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/shopcore/backend/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Account *apiHandler.AccountHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, sessionAuth func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Public auth routes. Logout is deliberately outside the session
	// middleware so a second logout stays a no-op instead of a 401.
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/validate", handlers.Auth.ValidateToken)
	r.POST("/api/v1/auth/logout", handlers.Auth.Logout)

	// Protected routes: every request crosses the ledger check
	r.GET("/api/v1/me", sessionAuth(handlers.Account.Me))

	return r
}
