package api

import (
	"context"
	"errors"
	"strings"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
)

var (
	// ErrEmptyMessage is returned by Chat for a blank message; no request is sent.
	ErrEmptyMessage = errors.New("chat message is empty")

	// ErrIncompleteRoute is returned by RouteVerdict when an endpoint or the vehicle is missing.
	ErrIncompleteRoute = errors.New("route needs point_a, point_b and vehicle_type")
)

// AssistantAPI covers the assistant chat and the route verdict. The chat
// service runs on its own origin, so it takes a separate client.
type AssistantAPI struct {
	chat   *Client
	routes *Client
}

// NewAssistantAPI binds the chat endpoint to chat and the route verdict to routes.
func NewAssistantAPI(chat, routes *Client) *AssistantAPI {
	return &AssistantAPI{chat: chat, routes: routes}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Chat sends one user message and returns the assistant's reply.
func (a *AssistantAPI) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	var resp chatResponse
	if err := a.chat.post(ctx, "assistant.chat", "/chat", chatRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// RouteVerdict asks whether a trip is safe under current flood conditions.
func (a *AssistantAPI) RouteVerdict(ctx context.Context, req domain.RouteRequest) (domain.RouteVerdict, error) {
	if strings.TrimSpace(req.PointA) == "" || strings.TrimSpace(req.PointB) == "" || strings.TrimSpace(req.VehicleType) == "" {
		return domain.RouteVerdict{}, ErrIncompleteRoute
	}
	var verdict domain.RouteVerdict
	if err := a.routes.post(ctx, "assistant.route_verdict", "/route-verdict", req, &verdict); err != nil {
		return domain.RouteVerdict{}, err
	}
	return verdict, nil
}
