package domain

// RouteRequest asks the backend whether a trip is safe under current flooding.
type RouteRequest struct {
	PointA      string `json:"point_a"`
	PointB      string `json:"point_b"`
	VehicleType string `json:"vehicle_type"`
}

// RouteFactor is one weighted input to a route verdict.
type RouteFactor struct {
	Status      string  `json:"status"`
	Description string  `json:"description"`
	Impact      float64 `json:"impact"`
}

// RouteVerdict is the response of POST /route-verdict.
type RouteVerdict struct {
	RouteStatus      string                 `json:"route_status"` // safe, moderate_risk, high_risk, unsafe
	OverallScore     int                    `json:"overall_score"`
	Recommendation   string                 `json:"recommendation"`
	Factors          map[string]RouteFactor `json:"factors"`
	EstimatedTime    string                 `json:"estimated_time"`
	AlternativeRoute string                 `json:"alternative_route,omitempty"`
	NextUpdate       string                 `json:"next_update"`
}
