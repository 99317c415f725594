package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/couchcryptid/floodaura-sync/internal/adapter/realtime"
	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/viewmodel"
)

const maxBodyBytes = 64 << 10

// AlertsView is the alerts page. *viewmodel.AlertsPage satisfies it.
type AlertsView interface {
	Snapshot() viewmodel.AlertsSnapshot
}

// MapView is the live map. *viewmodel.LiveMap satisfies it.
type MapView interface {
	Snapshot() viewmodel.MapSnapshot
	Search(ctx context.Context, query string)
	Locate(ctx context.Context, lat, lng float64)
}

// SubscriptionView is the subscription form. *viewmodel.SubscriptionForm satisfies it.
type SubscriptionView interface {
	Snapshot() viewmodel.SubscriptionSnapshot
	Set(fields viewmodel.SubscriptionFields)
	Submit(ctx context.Context) error
}

// ChatView is the assistant chat. *viewmodel.ChatSession satisfies it.
type ChatView interface {
	Snapshot() viewmodel.ChatSnapshot
	Open()
	Send(ctx context.Context, text string) error
}

// RealtimeView reports the real-time channel state. *realtime.Channel satisfies it.
type RealtimeView interface {
	State() realtime.State
}

// MessageLog exposes the most recent real-time message. *viewmodel.Events satisfies it.
type MessageLog interface {
	Last() domain.Message
}

// Views bundles everything the /v1 routes render. Realtime and Messages
// may be nil when the real-time channel is disabled.
type Views struct {
	Alerts       AlertsView
	Map          MapView
	Subscription SubscriptionView
	Chat         ChatView
	Realtime     RealtimeView
	Messages     MessageLog
}

type handlers struct {
	views  Views
	logger *slog.Logger
}

// presentedAlert is an alert with its risk presentation attached.
type presentedAlert struct {
	domain.AlertRecord
	Presentation domain.RiskPresentation `json:"presentation"`
}

func present(alerts []domain.AlertRecord) []presentedAlert {
	out := make([]presentedAlert, len(alerts))
	for i, a := range alerts {
		out[i] = presentedAlert{AlertRecord: a, Presentation: a.Present()}
	}
	return out
}

type alertsResponse struct {
	viewmodel.AlertsSnapshot
	Alerts []presentedAlert `json:"alerts"`
}

type mapResponse struct {
	viewmodel.MapSnapshot
	Alerts             []presentedAlert         `json:"alerts"`
	SearchPresentation *domain.RiskPresentation `json:"search_presentation,omitempty"`
	LocatePresentation *domain.RiskPresentation `json:"location_presentation,omitempty"`
}

func newMapResponse(snap viewmodel.MapSnapshot) mapResponse {
	resp := mapResponse{MapSnapshot: snap, Alerts: present(snap.Alerts)}
	if snap.Search != nil && snap.Search.Found {
		p := snap.Search.Present()
		resp.SearchPresentation = &p
	}
	if snap.Location != nil {
		p := snap.Location.Present()
		resp.LocatePresentation = &p
	}
	return resp
}

func (h *handlers) alerts(w http.ResponseWriter, _ *http.Request) {
	snap := h.views.Alerts.Snapshot()
	writeJSON(w, http.StatusOK, alertsResponse{AlertsSnapshot: snap, Alerts: present(snap.Alerts)})
}

func (h *handlers) liveMap(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newMapResponse(h.views.Map.Snapshot()))
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, errors.New("query is required"))
		return
	}
	h.views.Map.Search(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, newMapResponse(h.views.Map.Snapshot()))
}

type locateRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (h *handlers) locate(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, http.StatusBadRequest, errors.New("lat and lng are required"))
		return
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180 {
		writeError(w, http.StatusBadRequest, errors.New("coordinate out of range"))
		return
	}
	h.views.Map.Locate(r.Context(), *req.Lat, *req.Lng)
	writeJSON(w, http.StatusOK, newMapResponse(h.views.Map.Snapshot()))
}

func (h *handlers) subscription(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.views.Subscription.Snapshot())
}

func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	var fields viewmodel.SubscriptionFields
	if err := decodeBody(w, r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.views.Subscription.Set(fields)

	err := h.views.Subscription.Submit(r.Context())
	switch {
	case errors.Is(err, viewmodel.ErrSubmitPending):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		h.logger.Debug("subscription rejected", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, h.views.Subscription.Snapshot())
	default:
		writeJSON(w, http.StatusOK, h.views.Subscription.Snapshot())
	}
}

func (h *handlers) chat(w http.ResponseWriter, _ *http.Request) {
	h.views.Chat.Open()
	writeJSON(w, http.StatusOK, h.views.Chat.Snapshot())
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *handlers) sendChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := h.views.Chat.Send(r.Context(), req.Message)
	switch {
	case errors.Is(err, viewmodel.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, viewmodel.ErrSendPending):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, h.views.Chat.Snapshot())
	}
}

type realtimeResponse struct {
	Enabled     bool           `json:"enabled"`
	State       string         `json:"state"`
	LastMessage domain.Message `json:"last_message,omitempty"`
}

func (h *handlers) realtime(w http.ResponseWriter, _ *http.Request) {
	if h.views.Realtime == nil {
		writeJSON(w, http.StatusOK, realtimeResponse{State: realtime.StateClosed.String()})
		return
	}
	resp := realtimeResponse{Enabled: true, State: h.views.Realtime.State().String()}
	if h.views.Messages != nil {
		resp.LastMessage = h.views.Messages.Last()
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
