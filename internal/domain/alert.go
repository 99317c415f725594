package domain

// AlertRecord is one active flood alert as returned by GET /alerts/active.
// Records are read-only; a refresh replaces the whole list.
type AlertRecord struct {
	ID          int64    `json:"id"`
	Location    string   `json:"location"`
	Risk        string   `json:"risk"`
	RiskScore   float64  `json:"risk_score"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
	RainfallMM  *float64 `json:"rainfall_mm,omitempty"`
	ElevationM  *float64 `json:"elevation_m,omitempty"`
	Time        string   `json:"time,omitempty"` // forecast window, e.g. "2 hours"
	Description string   `json:"description,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
}

// Present returns the UI presentation of the alert's risk.
func (a AlertRecord) Present() RiskPresentation {
	return PresentRisk(a.Risk, a.RiskScore)
}

// NearbyAlerts is the response of GET /alerts/location.
type NearbyAlerts struct {
	UserLocation   Coordinates   `json:"user_location"`
	SearchRadiusKm float64       `json:"search_radius_km"`
	AlertsFound    int           `json:"alerts_found"`
	Alerts         []AlertRecord `json:"alerts"`
}

// Coordinates is a WGS-84 point as the backend names it in alert payloads.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HistoricalAlert is one entry of the alert history.
type HistoricalAlert struct {
	ID        int64   `json:"id"`
	Location  string  `json:"location"`
	Severity  string  `json:"severity"`
	RiskScore float64 `json:"risk_score"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// AlertHistory is the response of GET /alerts/history.
type AlertHistory struct {
	PeriodDays        int               `json:"period_days,omitempty"`
	TotalAlerts       int               `json:"total_alerts"`
	SeverityBreakdown map[string]int    `json:"severity_breakdown,omitempty"`
	AverageRiskScore  float64           `json:"average_risk_score"`
	Alerts            []HistoricalAlert `json:"alerts"`
}

// LocationCount pairs a location with its event count.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// AlertStatistics is the response of GET /alerts/statistics.
type AlertStatistics struct {
	TotalEvents           int             `json:"total_events"`
	EventsLast24h         int             `json:"events_last_24h"`
	AverageRiskScore      float64         `json:"average_risk_score"`
	SeverityDistribution  map[string]int  `json:"severity_distribution"`
	MostAffectedLocations []LocationCount `json:"most_affected_locations"`
	SystemStatus          string          `json:"system_status"`
	LastUpdated           string          `json:"last_updated"`
}

// Document is an untyped JSON object passed through from the backend
// unchanged, used where the backend publishes no fixed schema.
type Document map[string]any
