package middleware

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/pkg/httpcontext"
	"github.com/shopcore/backend/usecase"
)

const (
	identityKey = "auth_identity"
	tokenKey    = "auth_token"
)

// SessionAuth guards privileged routes. Every request re-validates the token
// against the session ledger and re-reads roles, so revocation and role
// changes take effect immediately. All three rejection causes collapse to a
// single 401 for the client.
func SessionAuth(validator usecase.SessionValidator, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx)
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			defer cancel()

			identity, err := validator.Validate(stdCtx, tokenString)
			if err != nil {
				if !domain.IsAuthFailure(err) && !domain.IsDomainError(err, domain.ErrCodeAccountInactive) {
					logger.Error("session validation failed", zap.Error(err))
				}
				reject(ctx)
				return
			}

			ctx.SetUserValue(identityKey, identity)
			ctx.SetUserValue(tokenKey, tokenString)
			next(ctx)
		}
	}
}

// IdentityFrom returns the identity stored by SessionAuth, or nil.
func IdentityFrom(ctx *fasthttp.RequestCtx) *domain.Identity {
	identity, _ := ctx.UserValue(identityKey).(*domain.Identity)
	return identity
}

// TokenFrom returns the bearer token stored by SessionAuth.
func TokenFrom(ctx *fasthttp.RequestCtx) string {
	tokenString, _ := ctx.UserValue(tokenKey).(string)
	return tokenString
}

func reject(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	body, _ := json.Marshal(map[string]string{
		"status": "error",
		"error":  "not authenticated, please log in again",
	})
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
