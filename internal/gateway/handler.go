package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/af-corp/amrs/internal/httputil"
	"github.com/af-corp/amrs/internal/inference"
	"github.com/af-corp/amrs/internal/types"
	"github.com/af-corp/amrs/internal/usage"
)

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	client *inference.Client
	mirror *usage.Mirror
}

// NewHandler creates the handlers around client. mirror may be nil, in which
// case usage responses carry only this process's stats.
func NewHandler(client *inference.Client, mirror *usage.Mirror) *Handler {
	return &Handler{client: client, mirror: mirror}
}

// ChatCompletions handles POST /v1/chat/completions
func (h *Handler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var req types.Request
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}
	req.RequestID = reqID
	req.ReceivedAt = time.Now()

	resp, err := h.client.Complete(r.Context(), &req)
	switch {
	case err == nil:
	case errors.Is(err, inference.ErrModelInRequest), errors.Is(err, inference.ErrEmptyMessages), errors.Is(err, inference.ErrNilRequest):
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	case errors.Is(err, inference.ErrNoRoutingSet):
		httputil.WriteServiceUnavailableError(w, reqID, "No routing set loaded")
		return
	default:
		slog.Error("inference failed", "request_id", reqID, "error", err)
		httputil.WriteUpstreamError(w, reqID, "Provider request failed")
		return
	}

	slog.Info("request completed",
		"request_id", reqID,
		"model", resp.Model,
		"provider", resp.Provider,
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(req.ReceivedAt).Milliseconds(),
		"status_code", http.StatusOK,
	)

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// ListModels handles GET /v1/models
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	set := h.client.Set()
	if set == nil {
		httputil.WriteServiceUnavailableError(w, reqID, "No routing set loaded")
		return
	}

	models := make([]modelObject, 0, len(set.Models))
	for _, m := range set.Models {
		models = append(models, modelObject{
			ID:      m.ID,
			Object:  "model",
			OwnedBy: m.Provider,
			Weight:  m.Weight,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, modelListResponse{
		Object:      "list",
		RoutingMode: set.Router.Mode().String(),
		Data:        models,
	})
}

// Usage handles GET /v1/usage
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	snaps := h.client.Tracker().Snapshots()
	ids := make([]string, 0, len(snaps))
	for id := range snaps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]usageObject, 0, len(ids))
	for _, id := range ids {
		out = append(out, usageObject{Model: id, Stats: snaps[id]})
	}
	httputil.WriteJSON(w, http.StatusOK, usageListResponse{Object: "list", Data: out})
}

// ModelUsage handles GET /v1/usage/{model}
func (h *Handler) ModelUsage(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	id := chi.URLParam(r, "model")

	set := h.client.Set()
	if set == nil {
		httputil.WriteServiceUnavailableError(w, reqID, "No routing set loaded")
		return
	}
	if _, ok := set.Model(id); !ok {
		httputil.WriteNotFoundError(w, reqID, "Unknown model: "+id)
		return
	}
	out := usageObject{Model: id, Stats: h.client.Tracker().Snapshot(id)}
	if h.mirror != nil {
		shared, err := h.mirror.Fetch(r.Context(), id)
		if err != nil {
			slog.Warn("shared usage unavailable", "request_id", reqID, "model", id, "error", err)
		} else {
			out.Shared = &shared
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type modelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
	Weight  int    `json:"weight"`
}

type modelListResponse struct {
	Object      string        `json:"object"`
	RoutingMode string        `json:"routing_mode"`
	Data        []modelObject `json:"data"`
}

type usageObject struct {
	Model string `json:"model"`
	usage.Stats
	// Shared is the Redis-mirrored usage across all processes.
	Shared *usage.Stats `json:"shared,omitempty"`
}

type usageListResponse struct {
	Object string        `json:"object"`
	Data   []usageObject `json:"data"`
}
