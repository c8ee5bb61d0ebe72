package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"go.uber.org/zap"
)

const transferTimeout = 30 * time.Second

func (h *Handler) exportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), transferTimeout)
		defer cancel()

		snapshot, err := h.transfer.Export(ctx)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		filename := fmt.Sprintf("site-backup-%s.json", snapshot.ExportedAt.Format("2006-01-02"))
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
		common.WriteData(h.logger, w, http.StatusOK, snapshot)
	}
}

func (h *Handler) importHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if err := common.DecodeJSON(r, &req, common.MaxImportBody); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		mode, err := application.ParseImportMode(req.Mode)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		if len(req.Data) == 0 || string(req.Data) == "null" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "data is required")
			return
		}
		var snapshot application.Snapshot
		if err := json.Unmarshal(req.Data, &snapshot); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, fmt.Sprintf("invalid snapshot: %v", err))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), transferTimeout)
		defer cancel()

		result, err := h.transfer.Import(ctx, mode, snapshot)
		if err != nil {
			common.WriteServiceError(h.logger, w, err)
			return
		}
		h.logger.Info("content imported",
			zap.String("mode", string(result.Mode)),
			zap.Any("imported", result.Imported),
			zap.Int("removed", result.Removed))
		common.WriteData(h.logger, w, http.StatusOK, result)
	}
}
