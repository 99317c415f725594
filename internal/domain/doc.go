// Package domain models the FloodAura backend's alert and map data as the
// sync agent consumes it.
//
// # Risk categories
//
// The backend labels every alert and location lookup with an ordinal risk
// category and a 0–100 risk score (higher is worse). The category is the
// backend's own mapping of the score; the agent never recomputes it.
//
//	Low | Medium (also reported as "Moderate") | High | Critical
//
// [PresentRisk] turns a category and score into the label, score text and
// colour the UI renders. Medium and Moderate share a presentation.
//
// # Timestamps
//
// Backend timestamps are naive ISO-8601 strings without a zone (e.g.
// "2024-07-14T09:30:00.123456") or display strings such as "09:30:00 AM".
// They are carried through as strings and never parsed.
//
// # Fallback data
//
// When a refresh fails the view-models show a fixed fallback alert set
// supplied by a [FallbackProvider]. The default set is [DefaultFallback];
// deployments can point FALLBACK_FILE at a JSON array of alerts instead.
package domain
