package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
)

// DefaultForecastHours is the forecast horizon used when the caller passes 0.
const DefaultForecastHours = 8

// ErrEmptyQuery is returned by Search for a blank query; no request is sent.
var ErrEmptyQuery = errors.New("location query is empty")

// MapAPI covers the /map endpoints.
type MapAPI struct {
	client *Client
}

// NewMapAPI binds the map endpoints to a client.
func NewMapAPI(client *Client) *MapAPI {
	return &MapAPI{client: client}
}

// Search resolves a free-text location.
func (m *MapAPI) Search(ctx context.Context, query string) (domain.LocationQueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.LocationQueryResult{}, ErrEmptyQuery
	}

	var result domain.LocationQueryResult
	if err := m.client.get(ctx, "map.search", "/map/search", url.Values{"location": {query}}, &result); err != nil {
		return domain.LocationQueryResult{}, err
	}
	return result, nil
}

// RiskData returns flood risk points inside a viewport.
func (m *MapAPI) RiskData(ctx context.Context, bounds domain.Bounds) ([]domain.RiskPoint, error) {
	var points []domain.RiskPoint
	if err := m.client.post(ctx, "map.risk_data", "/map/risk-data", bounds, &points); err != nil {
		return nil, err
	}
	return points, nil
}

type locateRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Locate looks up the flood risk at the user's coordinate.
func (m *MapAPI) Locate(ctx context.Context, lat, lng float64) (domain.LocateResult, error) {
	var result domain.LocateResult
	if err := m.client.post(ctx, "map.locate", "/map/locate", locateRequest{Lat: lat, Lng: lng}, &result); err != nil {
		return domain.LocateResult{}, err
	}
	return result, nil
}

// LastUpdate returns the server's data freshness timestamp.
func (m *MapAPI) LastUpdate(ctx context.Context) (domain.LastUpdate, error) {
	var lu domain.LastUpdate
	if err := m.client.get(ctx, "map.last_update", "/map/last-update", nil, &lu); err != nil {
		return domain.LastUpdate{}, err
	}
	return lu, nil
}

// Heatmap returns every flood event as a weighted heatmap point.
func (m *MapAPI) Heatmap(ctx context.Context) (domain.Heatmap, error) {
	var hm domain.Heatmap
	if err := m.client.get(ctx, "map.heatmap", "/map/heatmap-data", nil, &hm); err != nil {
		return domain.Heatmap{}, err
	}
	return hm, nil
}

// Forecast returns an hourly risk forecast for a coordinate.
func (m *MapAPI) Forecast(ctx context.Context, lat, lng float64, hours int) (domain.Forecast, error) {
	if hours <= 0 {
		hours = DefaultForecastHours
	}
	path := fmt.Sprintf("/map/forecast/%s/%s", formatCoord(lat), formatCoord(lng))

	var fc domain.Forecast
	if err := m.client.get(ctx, "map.forecast", path, url.Values{"hours": {strconv.Itoa(hours)}}, &fc); err != nil {
		return domain.Forecast{}, err
	}
	return fc, nil
}
