package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"go.uber.org/zap"
)

const (
	uploadTimeout   = 2 * time.Minute
	uploadMemoryMax = 10 << 20
)

// uploadHandler stores the multipart "file" field and returns its public URL.
func (h *Handler) uploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.uploader == nil {
			common.WriteError(h.logger, w, http.StatusServiceUnavailable, "media uploads are not configured")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, common.MaxUploadBody)
		if err := r.ParseMultipartForm(uploadMemoryMax); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "invalid multipart form or file too large")
			return
		}
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
		defer cancel()

		uploaded, err := h.uploader.Upload(ctx, file)
		if err != nil {
			h.logger.Error("media upload failed", zap.String("filename", header.Filename), zap.Error(err))
			common.WriteError(h.logger, w, http.StatusBadGateway, "upload failed")
			return
		}
		h.logger.Info("media uploaded", zap.String("filename", header.Filename), zap.String("url", uploaded.URL))
		common.WriteData(h.logger, w, http.StatusCreated, uploaded)
	}
}
