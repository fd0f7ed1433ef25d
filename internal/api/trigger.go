// Package api exposes the operator-facing HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

// TriggerResult is one row of the trigger endpoint's response.
type TriggerResult struct {
	Event         string `json:"Event"`
	CustomerID    string `json:"CustomerID,omitempty"`
	CorrelationID string `json:"CorrelationID,omitempty"`
	Status        string `json:"Status"`
}

// TriggerHandler lets operators inject named events onto the bus, mainly to
// kick a training run without waiting for its schedule.
type TriggerHandler struct {
	logger   *slog.Logger
	bus      *bus.Bus
	training domain.TrainingConfig
}

func NewTriggerHandler(logger *slog.Logger, b *bus.Bus, training domain.TrainingConfig) *TriggerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TriggerHandler{
		logger:   logger.With("component", "trigger_api"),
		bus:      b,
		training: training,
	}
}

func (h *TriggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("events")
	if strings.TrimSpace(raw) == "" {
		http.Error(w, "no events specified", http.StatusBadRequest)
		return
	}

	var results []TriggerResult
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		results = append(results, h.trigger(r.Context(), name))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		h.logger.Error("encode trigger response", "error", err)
	}
}

func (h *TriggerHandler) trigger(ctx context.Context, name string) TriggerResult {
	switch name {
	case "TrainAndPublish":
		correlationID := events.NewCorrelationID()
		h.bus.Publish(ctx, events.NewTrainAndPublish(h.training, "TriggerApi", correlationID))
		h.logger.Info("training triggered",
			"customer_id", h.training.CustomerID,
			"correlation_id", correlationID)
		return TriggerResult{
			Event:         name,
			CustomerID:    h.training.CustomerID,
			CorrelationID: correlationID,
			Status:        "Triggered",
		}
	default:
		h.logger.Warn("unknown trigger event", "event", name)
		return TriggerResult{Event: name, Status: "unknown"}
	}
}
