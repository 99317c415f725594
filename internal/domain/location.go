package domain

// LocationQueryResult is the response of GET /map/search. It only lives for
// the duration of a single search interaction.
type LocationQueryResult struct {
	Found          bool    `json:"found"`
	LocationName   string  `json:"location_name,omitempty"`
	Severity       string  `json:"severity,omitempty"`
	RiskScore      float64 `json:"risk_score"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	MatchingEvents int     `json:"matching_events,omitempty"`

	// Set by the backend when nothing matched.
	Query      string `json:"query,omitempty"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Present returns the UI presentation of the search result's risk.
func (r LocationQueryResult) Present() RiskPresentation {
	return PresentRisk(r.Severity, r.RiskScore)
}

// NearbyEvent is a flood event close to a located point.
type NearbyEvent struct {
	ID           int64   `json:"id"`
	LocationName string  `json:"location_name"`
	Severity     string  `json:"severity"`
	RiskScore    float64 `json:"risk_score"`
	DistanceKm   float64 `json:"distance_km"`
}

// LocateResult is the response of POST /map/locate for the user's coordinate.
type LocateResult struct {
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	RiskScore     float64       `json:"risk_score"`
	Severity      string        `json:"severity"`
	RainfallMM    float64       `json:"rainfall_mm"`
	ElevationM    float64       `json:"elevation_m"`
	NearbyEvents  int           `json:"nearby_events"`
	NearestEvents []NearbyEvent `json:"nearest_events,omitempty"`

	// LocationName is filled by reverse geocoding, not by the backend.
	LocationName string `json:"location_name,omitempty"`
}

// Present returns the UI presentation of the located point's risk.
func (r LocateResult) Present() RiskPresentation {
	return PresentRisk(r.Severity, r.RiskScore)
}

// Bounds is a map viewport sent to POST /map/risk-data.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// RiskPoint is one point of map risk data.
type RiskPoint struct {
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	RiskScore    float64  `json:"risk_score"`
	RiskLevel    string   `json:"risk_level"`
	LocationName string   `json:"location_name,omitempty"`
	RainfallMM   *float64 `json:"rainfall_mm,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// LastUpdate is the response of GET /map/last-update.
type LastUpdate struct {
	Timestamp   string `json:"timestamp"`
	LastUpdated string `json:"last_updated"`
	Status      string `json:"status"`
}

// HeatmapPoint is one weighted point of the risk heatmap.
type HeatmapPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
	Severity  string  `json:"severity"`
	Location  string  `json:"location"`
}

// Heatmap is the response of GET /map/heatmap-data.
type Heatmap struct {
	Points      []HeatmapPoint `json:"points"`
	TotalPoints int            `json:"total_points"`
	LastUpdated string         `json:"last_updated"`
}

// ForecastHour is one hourly entry of a location forecast.
type ForecastHour struct {
	Hour       string  `json:"hour"`
	Timestamp  string  `json:"timestamp"`
	RiskScore  float64 `json:"risk_score"`
	Severity   string  `json:"severity"`
	RainfallMM float64 `json:"rainfall_mm"`
	Confidence float64 `json:"confidence"`
}

// Forecast is the response of GET /map/forecast/{lat}/{lng}.
type Forecast struct {
	Latitude        float64        `json:"latitude"`
	Longitude       float64        `json:"longitude"`
	CurrentRisk     float64        `json:"current_risk"`
	CurrentSeverity string         `json:"current_severity"`
	Forecast        []ForecastHour `json:"forecast"`
	GeneratedAt     string         `json:"generated_at"`
}
