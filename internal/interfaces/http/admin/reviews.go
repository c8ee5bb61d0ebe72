package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/chystahata/site/api/internal/interfaces/http/common"
)

func (h *Handler) reviewListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		reviews, err := h.reviews.ListAll(ctx)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, reviews)
	}
}

// reviewApproveHandler approves by default; {"approved": false} hides the review again.
func (h *Handler) reviewApproveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req approveReviewRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil && !errors.Is(err, common.ErrEmptyBody) {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		approved := true
		if req.Approved != nil {
			approved = *req.Approved
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		review, err := h.reviews.SetApproved(ctx, pathID(r, "id"), approved)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, review)
	}
}

func (h *Handler) reviewDeleteHandler() http.HandlerFunc {
	return h.deleteHandler("review", h.reviews.Delete)
}
