package admin

import (
	"context"
	"net/http"

	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"github.com/chystahata/site/api/internal/pagination"
)

func (h *Handler) orderListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), pagination.DefaultLimit)
		filter := application.OrderFilter{Status: query.Get("status"), Keyword: query.Get("q")}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		result, err := h.orders.List(ctx, filter, application.Paging{Page: page, Limit: limit})
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, result)
	}
}

func (h *Handler) orderStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderStatusRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		order, err := h.orders.UpdateStatus(ctx, pathID(r, "id"), req.Status)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, order)
	}
}

func (h *Handler) orderDeleteHandler() http.HandlerFunc {
	return h.deleteHandler("order", h.orders.Delete)
}
