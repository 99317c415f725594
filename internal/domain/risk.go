package domain

import (
	"fmt"
	"math"
	"strings"
)

// Risk categories reported by the backend.
const (
	RiskLow      = "Low"
	RiskMedium   = "Medium"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
	RiskCritical = "Critical"
)

// RiskPresentation is how a risk category and score are shown to the user.
type RiskPresentation struct {
	Label       string  `json:"label"`        // "High Risk"
	Score       string  `json:"score"`        // "78/100"
	ColorClass  string  `json:"color_class"`  // "risk-high"
	MarkerColor string  `json:"marker_color"` // map pin colour
	HeatWeight  float64 `json:"heat_weight"`  // score normalised to 0–1
}

type riskStyle struct {
	colorClass  string
	markerColor string
}

var riskStyles = map[string]riskStyle{
	RiskLow:      {colorClass: "risk-low", markerColor: "green"},
	RiskMedium:   {colorClass: "risk-medium", markerColor: "yellow"},
	RiskModerate: {colorClass: "risk-medium", markerColor: "yellow"},
	RiskHigh:     {colorClass: "risk-high", markerColor: "red"},
	RiskCritical: {colorClass: "risk-critical", markerColor: "purple"},
}

var unknownStyle = riskStyle{colorClass: "risk-unknown", markerColor: "blue"}

// NormalizeRisk maps a category to its canonical spelling, case-insensitively.
// Unknown categories come back trimmed but otherwise unchanged.
func NormalizeRisk(risk string) string {
	risk = strings.TrimSpace(risk)
	for canonical := range riskStyles {
		if strings.EqualFold(risk, canonical) {
			return canonical
		}
	}
	return risk
}

// PresentRisk derives the label, score text and colours for a risk category
// and score. Scores are clamped to 0–100 and rounded.
func PresentRisk(risk string, score float64) RiskPresentation {
	risk = NormalizeRisk(risk)
	style, ok := riskStyles[risk]
	if !ok {
		style = unknownStyle
	}

	label := "Unknown Risk"
	if risk != "" {
		label = risk + " Risk"
	}

	clamped := math.Max(0, math.Min(100, score))
	return RiskPresentation{
		Label:       label,
		Score:       fmt.Sprintf("%.0f/100", math.Round(clamped)),
		ColorClass:  style.colorClass,
		MarkerColor: style.markerColor,
		HeatWeight:  clamped / 100,
	}
}
