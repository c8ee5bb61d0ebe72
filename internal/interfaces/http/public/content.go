package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"github.com/chystahata/site/api/internal/pagination"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) serviceListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		common.WriteData(h.logger, w, http.StatusOK, h.services.List(ctx))
	}
}

func (h *Handler) galleryListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		items, err := h.gallery.List(ctx, r.URL.Query().Get("type"))
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, items)
	}
}

func (h *Handler) blogListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		posts, err := h.blog.ListPublished(ctx)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, posts)
	}
}

func (h *Handler) blogDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		post, err := h.blog.GetPublished(ctx, chi.URLParam(r, "id"))
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, post)
	}
}

// pricingHandler serves the whole price list; ?q drops non-matching items and empty categories.
func (h *Handler) pricingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		pricing := h.pricing.Get(ctx)
		keyword := strings.TrimSpace(r.URL.Query().Get("q"))
		if keyword == "" {
			common.WriteData(h.logger, w, http.StatusOK, pricing)
			return
		}

		filtered := domain.Pricing{Categories: make([]domain.PricingCategory, 0, len(pricing.Categories))}
		for _, category := range pricing.Categories {
			category.Items = application.FilterPriceItems(category.Items, keyword)
			if len(category.Items) > 0 {
				filtered.Categories = append(filtered.Categories, category)
			}
		}
		common.WriteData(h.logger, w, http.StatusOK, filtered)
	}
}

func (h *Handler) pricingCategoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		category, err := h.pricing.Category(ctx, chi.URLParam(r, "category"))
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}

		query := r.URL.Query()
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), pagination.MaxLimit)
		items := application.FilterPriceItems(category.Items, query.Get("q"))

		common.WriteData(h.logger, w, http.StatusOK, pricingCategoryResponse{
			ID:    category.ID,
			Title: category.Title,
			Items: pagination.Paginate(items, page, limit),
		})
	}
}

func singletonHandler[T any](h *Handler, singleton *application.Singleton[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		common.WriteData(h.logger, w, http.StatusOK, singleton.Get(ctx))
	}
}
