package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// FallbackProvider supplies the alert set shown while the backend is unreachable.
type FallbackProvider interface {
	Alerts() []AlertRecord
}

// StaticFallback is a fixed alert set. Alerts returns a copy so callers can
// never mutate the fixture.
type StaticFallback []AlertRecord

// Alerts implements FallbackProvider.
func (s StaticFallback) Alerts() []AlertRecord {
	out := make([]AlertRecord, len(s))
	copy(out, s)
	return out
}

// DefaultFallback is the built-in alert set shown when no FALLBACK_FILE is configured.
func DefaultFallback() StaticFallback {
	return StaticFallback{
		{
			ID:          1,
			Location:    "Downtown Manhattan",
			Risk:        RiskHigh,
			RiskScore:   78,
			Latitude:    40.7075,
			Longitude:   -74.0113,
			RainfallMM:  float64Ptr(45),
			Time:        "2 hours",
			Description: "Heavy rainfall expected, potential street flooding",
		},
		{
			ID:          2,
			Location:    "Brooklyn Heights",
			Risk:        RiskMedium,
			RiskScore:   52,
			Latitude:    40.6959,
			Longitude:   -73.9956,
			RainfallMM:  float64Ptr(28),
			Time:        "4 hours",
			Description: "Moderate rainfall, monitor low-lying areas",
		},
		{
			ID:          3,
			Location:    "Queens",
			Risk:        RiskLow,
			RiskScore:   24,
			Latitude:    40.7282,
			Longitude:   -73.7949,
			RainfallMM:  float64Ptr(12),
			Time:        "6 hours",
			Description: "Light rainfall, minimal flood risk",
		},
	}
}

// LoadFallbackFile reads a JSON array of alerts to use as the fallback set.
func LoadFallbackFile(path string) (StaticFallback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback file: %w", err)
	}
	var alerts []AlertRecord
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("parse fallback file %s: %w", path, err)
	}
	if len(alerts) == 0 {
		return nil, fmt.Errorf("fallback file %s contains no alerts", path)
	}
	return StaticFallback(alerts), nil
}

func float64Ptr(v float64) *float64 { return &v }
