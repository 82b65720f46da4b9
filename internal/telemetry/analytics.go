package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/LukeHalby/pushchat/internal/core"
	"github.com/LukeHalby/pushchat/internal/proto"
)

// Analytics is the analytics collaborator: endpoint registration plus named
// events.
type Analytics interface {
	UpdateEndpoint(ctx context.Context, update proto.EndpointUpdate) error
	Record(ctx context.Context, eventName string) error
}

// HTTPAnalytics sends analytics calls to a collector over HTTP.
type HTTPAnalytics struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPAnalytics builds a collector client.
func NewHTTPAnalytics(baseURL string, httpClient *http.Client) *HTTPAnalytics {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPAnalytics{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// UpdateEndpoint registers a delivery address with the collector.
func (a *HTTPAnalytics) UpdateEndpoint(ctx context.Context, update proto.EndpointUpdate) error {
	return a.post(ctx, "/analytics/endpoints", update, "update endpoint")
}

// Record submits a named event.
func (a *HTTPAnalytics) Record(ctx context.Context, eventName string) error {
	return a.post(ctx, "/analytics/events", proto.EventRecord{Name: eventName}, "record event")
}

func (a *HTTPAnalytics) post(ctx context.Context, path string, body any, op string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return core.Transport(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return core.Transport(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return core.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusCreated {
		return core.Transport(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
