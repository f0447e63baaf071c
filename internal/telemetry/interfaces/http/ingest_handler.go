package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"energyguard/internal/observability/metrics"
	"energyguard/internal/telemetry/application"
	telemetry "energyguard/internal/telemetry/domain"
)

// IngestHandler handles telemetry ingestion from the device gateway webhook.
type IngestHandler struct {
	service *application.IngestService
	logger  zerolog.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *application.IngestService, logger zerolog.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("telemetry ingest: nil service")
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

// ServeHTTP ingests one telemetry sample.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn().Err(err).Msg("telemetry ingest: read body error")
		metrics.IncIngestError("read_body")
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn().Err(err).Msg("telemetry ingest: decode error")
		metrics.IncIngestError("invalid_json")
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	sample, err := req.toSample()
	if err != nil {
		h.logger.Warn().Err(err).Msg("telemetry ingest: invalid payload")
		metrics.IncIngestError("invalid_payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.service.Ingest(r.Context(), sample); err != nil {
		h.logger.Error().Err(err).Str("engine_id", sample.EngineID).Msg("telemetry ingest failed")
		http.Error(w, "ingest error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"accepted": true})
}

type ingestRequest struct {
	EngineID  string             `json:"engine_id"`
	Timestamp int64              `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

func (r ingestRequest) toSample() (telemetry.Sample, error) {
	if r.EngineID == "" {
		return telemetry.Sample{}, errors.New("missing engine_id")
	}
	ts, err := parseTimestamp(r.Timestamp)
	if err != nil {
		return telemetry.Sample{}, err
	}
	if len(r.Values) == 0 {
		return telemetry.Sample{}, errors.New("empty values")
	}
	return telemetry.Sample{
		EngineID:       r.EngineID,
		Time:           ts,
		PowerKW:        r.Values["power"],
		TempExhaust:    r.Values["temp"],
		GasConsumption: r.Values["gas"],
		Vibration:      r.Values["vibration"],
		GasPressure:    r.Values["gas_pressure"],
	}, nil
}

func parseTimestamp(value int64) (time.Time, error) {
	if value <= 0 {
		return time.Time{}, errors.New("invalid timestamp")
	}
	// Accept milliseconds or seconds.
	if value > 1_000_000_000_000 {
		return time.UnixMilli(value).UTC(), nil
	}
	return time.Unix(value, 0).UTC(), nil
}
