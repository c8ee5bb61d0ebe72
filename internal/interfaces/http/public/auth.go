package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"go.uber.org/zap"
)

func (h *Handler) checkPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkPasswordRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Password == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "password is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		session, err := h.account.Check(ctx, req.Password)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, sessionResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
		})
	}
}

func (h *Handler) resetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.account.AuthorizeReset(strings.TrimSpace(r.Header.Get(common.ResetKeyHeader))); err != nil {
			h.logger.Warn("password reset refused", zap.String("remote", r.RemoteAddr), zap.Error(err))
			common.WriteServiceError(h.logger, w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		if err := h.account.ResetPassword(ctx); err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, map[string]bool{"reset": true})
	}
}
