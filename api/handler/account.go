package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/shopcore/backend/api/transport"
	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/internal/middleware"
	"github.com/shopcore/backend/pkg/httpcontext"
	accountUC "github.com/shopcore/backend/usecase/account"
)

type AccountHandler struct {
	baseHandler
	uc *accountUC.UseCase
}

func NewAccountHandler(uc *accountUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Current account with refreshed roles and loyalty standing
// @Tags account
// @Router /api/v1/me [get]
func (h *AccountHandler) Me(ctx *fasthttp.RequestCtx) {
	identity := middleware.IdentityFrom(ctx)
	if identity == nil {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeTokenInvalid), "not authenticated, please log in again", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	acct, err := h.uc.Get(stdCtx, identity)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, acct)
}
