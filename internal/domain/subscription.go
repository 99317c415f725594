package domain

// SubscriptionRequest is the write-only body of POST /alerts/subscribe.
type SubscriptionRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Phone       string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	Latitude    float64 `json:"latitude" validate:"latitude"`
	Longitude   float64 `json:"longitude" validate:"longitude"`
	RadiusKm    float64 `json:"radius_km" validate:"gt=0,lte=50"`
	MinSeverity string  `json:"min_severity" validate:"oneof=Low Medium Moderate High Critical"`
}
