package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
)

// DefaultTrendDays is the trend window used when the caller passes 0.
const DefaultTrendDays = 30

// AnalyticsAPI covers the /analytics endpoints. Responses have no fixed
// schema and are returned as decoded documents.
type AnalyticsAPI struct {
	client *Client
}

// NewAnalyticsAPI binds the analytics endpoints to a client.
func NewAnalyticsAPI(client *Client) *AnalyticsAPI {
	return &AnalyticsAPI{client: client}
}

// Accuracy returns prediction accuracy statistics.
func (a *AnalyticsAPI) Accuracy(ctx context.Context) (domain.Document, error) {
	return a.document(ctx, "analytics.accuracy", "/analytics/accuracy", nil)
}

// Coverage returns coverage statistics.
func (a *AnalyticsAPI) Coverage(ctx context.Context) (domain.Document, error) {
	return a.document(ctx, "analytics.coverage", "/analytics/coverage", nil)
}

// Trends returns historical trends over the last days.
func (a *AnalyticsAPI) Trends(ctx context.Context, days int) (domain.Document, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}
	return a.document(ctx, "analytics.trends", "/analytics/trends", url.Values{"days": {strconv.Itoa(days)}})
}

func (a *AnalyticsAPI) document(ctx context.Context, op, path string, q url.Values) (domain.Document, error) {
	var doc domain.Document
	if err := a.client.get(ctx, op, path, q, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
