package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func pathID(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

func (h *Handler) serviceReplaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req []serviceRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		cmds := make([]application.ServiceCommand, 0, len(req))
		for _, item := range req {
			cmds = append(cmds, item.command())
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		services, err := h.services.Replace(ctx, cmds)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, services)
	}
}

func (h *Handler) serviceUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req serviceRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		service, err := h.services.Update(ctx, pathID(r, "id"), req.command())
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, service)
	}
}

func (h *Handler) serviceDeleteHandler() http.HandlerFunc {
	return h.deleteHandler("service", h.services.Delete)
}

func (h *Handler) blogListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		posts, err := h.blog.ListAll(ctx)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, posts)
	}
}

func (h *Handler) blogCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req blogPostRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		post, err := h.blog.Create(ctx, req.command())
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusCreated, post)
	}
}

func (h *Handler) blogUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req blogPostRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		post, err := h.blog.Update(ctx, pathID(r, "id"), req.command())
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, post)
	}
}

func (h *Handler) blogDeleteHandler() http.HandlerFunc {
	return h.deleteHandler("blog post", h.blog.Delete)
}

func (h *Handler) galleryCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req galleryItemRequest
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		item, err := h.gallery.Create(ctx, application.CreateGalleryItemCommand{
			URL:         req.URL,
			Type:        req.Type,
			Description: req.Description,
		})
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusCreated, item)
	}
}

func (h *Handler) galleryDeleteHandler() http.HandlerFunc {
	return h.deleteHandler("gallery item", h.gallery.Delete)
}

func (h *Handler) pricingReplaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.Pricing
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		pricing, err := h.pricing.Replace(ctx, req)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, pricing)
	}
}

func (h *Handler) pricingCategoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.PricingCategory
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		category, err := h.pricing.UpsertCategory(ctx, pathID(r, "category"), req)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		common.WriteData(h.logger, w, http.StatusOK, category)
	}
}

// singletonSaveHandler overwrites one settings document with the request body.
func singletonSaveHandler[T any](h *Handler, singleton *application.Singleton[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if err := common.DecodeJSON(r, &req, common.MaxJSONBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		saved, err := singleton.Save(ctx, req)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		h.logger.Info("settings saved", zap.String("key", singleton.Key()))
		common.WriteData(h.logger, w, http.StatusOK, saved)
	}
}

func (h *Handler) deleteHandler(kind string, remove func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "id")
		if id == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "id is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		if err := remove(ctx, id); err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		h.logger.Info("deleted", zap.String("kind", kind), zap.String("id", id))
		common.WriteData(h.logger, w, http.StatusOK, map[string]string{"id": id})
	}
}
