package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chystahata/site/api/internal/interfaces/http/common"
	"go.uber.org/zap"
)

const streamBuffer = 32

// eventStreamHandler relays bus events to the browser as Server-Sent Events. Internal
// topics are skipped and a comment line keeps idle proxies from closing the connection.
func (h *Handler) eventStreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		ctx := r.Context()
		stream := h.events.Stream(ctx, streamBuffer)
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case event, open := <-stream:
				if !open {
					return
				}
				if event.Topic.Internal() {
					continue
				}
				data, err := json.Marshal(event)
				if err != nil {
					h.logger.Warn("event encode failed", zap.String("topic", string(event.Topic)), zap.Error(err))
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Topic, data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
