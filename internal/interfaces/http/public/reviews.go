package public

import (
	"context"
	"net/http"

	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"go.uber.org/zap"
)

func (h *Handler) reviewListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		limit, _ := common.ParsePositiveInt(r.URL.Query().Get("limit"), 0)
		reviews, err := h.reviews.ListApproved(ctx, limit)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, reviews)
	}
}

func (h *Handler) reviewSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReviewRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		review, err := h.reviews.Submit(ctx, application.SubmitReviewCommand{
			Name:   req.Name,
			Text:   req.Text,
			Rating: req.Rating,
			Image:  req.Image,
		})
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}

		h.logger.Info("review submitted", zap.String("id", review.ID), zap.Int("rating", review.Rating))
		submitted := *review
		h.notifyAsync(r.Context(), func(ctx context.Context, n Notifier) {
			n.ReviewSubmitted(ctx, submitted)
		})
		common.WriteData(h.logger, w, http.StatusCreated, review)
	}
}
