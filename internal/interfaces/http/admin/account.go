package admin

import (
	"context"
	"net/http"

	"github.com/chystahata/site/api/internal/interfaces/http/common"
)

func (h *Handler) sessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := common.SessionFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusUnauthorized, "unauthorized")
			return
		}
		resp := sessionResponse{Valid: true}
		if claims.ExpiresAt != nil {
			resp.ExpiresAt = claims.ExpiresAt.Time
		}
		common.WriteData(h.logger, w, http.StatusOK, resp)
	}
}

// changePasswordHandler returns the replacement token; the caller's old token stops working.
func (h *Handler) changePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		session, err := h.account.ChangePassword(ctx, req.CurrentPassword, req.NewPassword)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		h.logger.Info("admin password changed")
		common.WriteData(h.logger, w, http.StatusOK, tokenResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
		})
	}
}
