package public

import (
	"context"
	"net/http"

	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"go.uber.org/zap"
)

func (h *Handler) orderCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		order, err := h.orders.Create(ctx, application.CreateOrderCommand{
			Name:    req.Name,
			Phone:   req.Phone,
			Email:   req.Email,
			Service: req.Service,
			Message: req.Message,
		})
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}

		h.logger.Info("order created", zap.String("id", order.ID), zap.String("service", order.Service))
		created := *order
		h.notifyAsync(r.Context(), func(ctx context.Context, n Notifier) {
			n.OrderCreated(ctx, created)
		})
		common.WriteData(h.logger, w, http.StatusCreated, order)
	}
}
