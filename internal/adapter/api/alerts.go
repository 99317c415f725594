package api

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
)

// DefaultHistoryLimit is the number of past alerts requested when the caller passes 0.
const DefaultHistoryLimit = 10

// ErrMissingEmail is returned by Subscribe when the request has no email.
var ErrMissingEmail = errors.New("subscription email is required")

// AlertsAPI covers the /alerts endpoints.
type AlertsAPI struct {
	client *Client
}

// NewAlertsAPI binds the alerts endpoints to a client.
func NewAlertsAPI(client *Client) *AlertsAPI {
	return &AlertsAPI{client: client}
}

// Active returns the current alert list.
func (a *AlertsAPI) Active(ctx context.Context) ([]domain.AlertRecord, error) {
	var alerts []domain.AlertRecord
	if err := a.client.get(ctx, "alerts.active", "/alerts/active", nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// ByLocation returns alerts near a point. A radiusKm of 0 leaves the radius
// to the backend's default.
func (a *AlertsAPI) ByLocation(ctx context.Context, lat, lng, radiusKm float64) (domain.NearbyAlerts, error) {
	q := url.Values{
		"lat": {formatCoord(lat)},
		"lng": {formatCoord(lng)},
	}
	if radiusKm > 0 {
		q.Set("radius_km", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	}

	var nearby domain.NearbyAlerts
	if err := a.client.get(ctx, "alerts.location", "/alerts/location", q, &nearby); err != nil {
		return domain.NearbyAlerts{}, err
	}
	return nearby, nil
}

// Subscribe creates a notification subscription and returns the backend's
// acknowledgement unchanged.
func (a *AlertsAPI) Subscribe(ctx context.Context, req domain.SubscriptionRequest) (domain.Document, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, ErrMissingEmail
	}
	var ack domain.Document
	if err := a.client.post(ctx, "alerts.subscribe", "/alerts/subscribe", req, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// History returns past alerts, at most limit of them.
func (a *AlertsAPI) History(ctx context.Context, limit int) (domain.AlertHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}

	var history domain.AlertHistory
	if err := a.client.get(ctx, "alerts.history", "/alerts/history", q, &history); err != nil {
		return domain.AlertHistory{}, err
	}
	return history, nil
}

// Statistics returns system-wide alert statistics.
func (a *AlertsAPI) Statistics(ctx context.Context) (domain.AlertStatistics, error) {
	var stats domain.AlertStatistics
	if err := a.client.get(ctx, "alerts.statistics", "/alerts/statistics", nil, &stats); err != nil {
		return domain.AlertStatistics{}, err
	}
	return stats, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
