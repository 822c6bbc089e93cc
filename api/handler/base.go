package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/shopcore/backend/api/transport"
	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code, message := mapError(err)
	h.respondJSON(ctx, status, transport.NewError(code, message, nil))
}

// mapError flattens the domain taxonomy to HTTP. The three token/session
// causes collapse to one user-facing message; persistence details never leak.
func mapError(err error) (int, string, string) {
	if domain.IsAuthFailure(err) {
		return http.StatusUnauthorized, "UNAUTHENTICATED", "not authenticated, please log in again"
	}
	switch {
	case domain.IsDomainError(err, domain.ErrCodeInvalidCredentials),
		domain.IsDomainError(err, domain.ErrCodeNoRoles):
		return http.StatusUnauthorized, errCode(err), err.Error()
	case domain.IsDomainError(err, domain.ErrCodeAccountInactive):
		return http.StatusForbidden, errCode(err), err.Error()
	case domain.IsDomainError(err, domain.ErrCodeValidation),
		domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, errCode(err), err.Error()
	case domain.IsDomainError(err, domain.ErrCodeDuplicateAccount):
		return http.StatusConflict, errCode(err), err.Error()
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, errCode(err), err.Error()
	case domain.IsDomainError(err, domain.ErrCodePersistence):
		return http.StatusServiceUnavailable, string(domain.ErrCodePersistence), "storage unavailable"
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal), "internal error"
	}
}

func errCode(err error) string {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return string(dErr.Code)
	}
	return string(domain.ErrCodeInternal)
}
