package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

// Subscription form defaults and messages.
const (
	DefaultRadiusKm    = 5
	DefaultMinSeverity = domain.RiskMedium

	SubscribeFailedMessage  = "Alert subscription feature coming soon!"
	SubscribeSuccessMessage = "You're subscribed to flood alerts for your area."
)

var (
	// ErrSubmitPending is returned by Submit while another submission is in flight.
	ErrSubmitPending = errors.New("subscription already being submitted")

	// ErrUnresolvedLocation is returned when the form has neither coordinates
	// nor a location the geocoder can resolve.
	ErrUnresolvedLocation = errors.New("location could not be resolved to coordinates")
)

// SubmitStatus is the state of the subscription form's submit action.
type SubmitStatus int

const (
	SubmitIdle SubmitStatus = iota
	SubmitPending
	SubmitSucceeded
	SubmitFailed
)

func (s SubmitStatus) String() string {
	switch s {
	case SubmitIdle:
		return "idle"
	case SubmitPending:
		return "pending"
	case SubmitSucceeded:
		return "succeeded"
	case SubmitFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON snapshots.
func (s SubmitStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SubscriptionFields are the user-editable inputs of the form. Coordinates
// are optional when Location can be geocoded.
type SubscriptionFields struct {
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Location    string   `json:"location,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	RadiusKm    float64  `json:"radius_km"`
	MinSeverity string   `json:"min_severity"`
}

func defaultFields() SubscriptionFields {
	return SubscriptionFields{RadiusKm: DefaultRadiusKm, MinSeverity: DefaultMinSeverity}
}

// SubscriptionSnapshot is an immutable copy of the form state.
type SubscriptionSnapshot struct {
	Fields  SubscriptionFields `json:"fields"`
	Status  SubmitStatus       `json:"status"`
	Message string             `json:"message,omitempty"`
}

// SubscriptionForm collects alert subscription details and submits them.
// A success notice is shown for a fixed period and then cleared.
type SubscriptionForm struct {
	subscriber Subscriber
	geocoder   domain.Geocoder
	validate   *validator.Validate
	notice     time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu          sync.Mutex
	fields      SubscriptionFields
	status      SubmitStatus
	message     string
	noticeTimer clockwork.Timer
	noticeGen   uint64
}

// NewSubscriptionForm creates an empty form. WithGeocoder enables
// resolution of the free-text location.
func NewSubscriptionForm(subscriber Subscriber, notice time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *SubscriptionForm {
	o := buildOptions(opts)
	return &SubscriptionForm{
		subscriber: subscriber,
		geocoder:   o.geocoder,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		notice:     notice,
		clock:      o.clock,
		logger:     logger,
		metrics:    metrics,
		fields:     defaultFields(),
	}
}

// Set replaces the form inputs. A zero radius or empty severity keeps the default.
func (f *SubscriptionForm) Set(fields SubscriptionFields) {
	if fields.RadiusKm == 0 {
		fields.RadiusKm = DefaultRadiusKm
	}
	if strings.TrimSpace(fields.MinSeverity) == "" {
		fields.MinSeverity = DefaultMinSeverity
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
}

// Submit validates and sends the subscription. On success the inputs are
// cleared and a notice is shown until the notice period ends. Any failure
// leaves the inputs in place and shows the placeholder message.
func (f *SubscriptionForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.status == SubmitPending {
		f.mu.Unlock()
		return ErrSubmitPending
	}
	f.stopNoticeLocked()
	f.status = SubmitPending
	f.message = ""
	fields := f.fields
	f.mu.Unlock()

	err := f.submit(ctx, fields)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.status = SubmitFailed
		f.message = SubscribeFailedMessage
		f.metrics.Subscriptions.WithLabelValues("failed").Inc()
		f.logger.Warn("subscription failed", "error", err)
		return err
	}

	f.fields = defaultFields()
	f.status = SubmitSucceeded
	f.message = SubscribeSuccessMessage
	f.metrics.Subscriptions.WithLabelValues("success").Inc()
	f.logger.Info("subscription created", "radius_km", fields.RadiusKm, "min_severity", fields.MinSeverity)

	f.noticeGen++
	gen := f.noticeGen
	f.noticeTimer = f.clock.AfterFunc(f.notice, func() { f.clearNotice(gen) })
	return nil
}

func (f *SubscriptionForm) submit(ctx context.Context, fields SubscriptionFields) error {
	req, err := f.buildRequest(ctx, fields)
	if err != nil {
		return err
	}
	if err := f.validate.StructCtx(ctx, req); err != nil {
		return fmt.Errorf("invalid subscription: %w", err)
	}
	if _, err := f.subscriber.Subscribe(ctx, req); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (f *SubscriptionForm) buildRequest(ctx context.Context, fields SubscriptionFields) (domain.SubscriptionRequest, error) {
	req := domain.SubscriptionRequest{
		Email:       strings.TrimSpace(fields.Email),
		Phone:       strings.TrimSpace(fields.Phone),
		RadiusKm:    fields.RadiusKm,
		MinSeverity: domain.NormalizeRisk(fields.MinSeverity),
	}

	if fields.Latitude != nil && fields.Longitude != nil {
		req.Latitude, req.Longitude = *fields.Latitude, *fields.Longitude
		return req, nil
	}

	location := strings.TrimSpace(fields.Location)
	if location == "" || f.geocoder == nil {
		return req, ErrUnresolvedLocation
	}
	res, err := f.geocoder.ForwardGeocode(ctx, location)
	if err != nil {
		return req, fmt.Errorf("geocode %q: %w", location, err)
	}
	if !res.Found() {
		return req, ErrUnresolvedLocation
	}
	req.Latitude, req.Longitude = res.Lat, res.Lon
	return req, nil
}

func (f *SubscriptionForm) clearNotice(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.noticeGen {
		return
	}
	if f.status == SubmitSucceeded {
		f.status = SubmitIdle
		f.message = ""
	}
	f.noticeTimer = nil
}

func (f *SubscriptionForm) stopNoticeLocked() {
	f.noticeGen++
	if f.noticeTimer != nil {
		f.noticeTimer.Stop()
		f.noticeTimer = nil
	}
}

// Close stops any pending notice timer.
func (f *SubscriptionForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopNoticeLocked()
}

// Snapshot returns a copy of the current state.
func (f *SubscriptionForm) Snapshot() SubscriptionSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	fields := f.fields
	if fields.Latitude != nil {
		lat := *fields.Latitude
		fields.Latitude = &lat
	}
	if fields.Longitude != nil {
		lon := *fields.Longitude
		fields.Longitude = &lon
	}
	return SubscriptionSnapshot{Fields: fields, Status: f.status, Message: f.message}
}
