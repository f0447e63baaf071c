package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"energyguard/internal/dashboard/application"
)

// StreamHandler serves the dashboard SSE stream. Each connection becomes one
// broadcaster subscriber; new connections are rate limited to soften
// reconnect storms.
type StreamHandler struct {
	broadcaster *application.Broadcaster
	limiter     *rate.Limiter
	logger      zerolog.Logger
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(broadcaster *application.Broadcaster, connRate rate.Limit, burst int, logger zerolog.Logger) (*StreamHandler, error) {
	if broadcaster == nil {
		return nil, errors.New("stream handler: nil broadcaster")
	}
	if connRate <= 0 {
		connRate = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &StreamHandler{
		broadcaster: broadcaster,
		limiter:     rate.NewLimiter(connRate, burst),
		logger:      logger,
	}, nil
}

// ServeHTTP handles GET /api/v1/dashboard/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.limiter.Allow() {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	updates := make(chan application.Update, 8)
	unsubscribe, err := h.broadcaster.Subscribe(func(ctx context.Context, update application.Update) error {
		select {
		case updates <- update:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if errors.Is(err, application.ErrSubscriberLimit) {
		http.Error(w, "subscriber limit reached", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	_, _ = w.Write([]byte("event: ready\ndata: {}\n\n"))
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case update := <-updates:
			payload, err := json.Marshal(update)
			if err != nil {
				h.logger.Error().Err(err).Msg("encode update failed")
				continue
			}
			_, _ = w.Write([]byte("event: " + update.Kind + "\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-notify:
			return
		}
	}
}
