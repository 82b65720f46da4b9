package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/LukeHalby/pushchat/internal/config"
	"github.com/LukeHalby/pushchat/internal/core"
	"github.com/LukeHalby/pushchat/internal/proto"
)

const requestIDHeader = "X-Request-Id"

// Client talks to the managed chat backend: snapshot queries and create
// mutations over HTTP, the live feed over WebSocket.
type Client struct {
	baseURL      string
	subscribeURL string
	httpClient   *http.Client
	log          *zerolog.Logger
}

// NewClient builds a backend client from configuration.
func NewClient(cfg config.Config, httpClient *http.Client, logger *zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BackendURL, "/"),
		subscribeURL: resolveSubscribeURL(cfg),
		httpClient:   httpClient,
		log:          logger,
	}
}

// ListMessages fetches the full message snapshot for a room. First page only;
// the backend contract exposes no pagination here.
func (c *Client) ListMessages(ctx context.Context, roomID string) ([]core.Message, error) {
	url := fmt.Sprintf("%s/rooms/%s/messages", c.baseURL, roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.Transport("list messages", err)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.Transport("list messages", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.Transport("list messages", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body proto.ListMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, core.Transport("list messages", err)
	}

	out := make([]core.Message, len(body.Items))
	for i, item := range body.Items {
		out[i] = messageFromWire(item)
	}
	return out, nil
}

// CreateMessageInput carries a new message to the mutation service.
type CreateMessageInput struct {
	Body   string
	From   string
	RoomID string
}

// CreateMessage issues a create mutation and returns the stored record.
func (c *Client) CreateMessage(ctx context.Context, input CreateMessageInput) (core.Message, error) {
	payload, err := json.Marshal(proto.CreateMessageInput{
		Body:   input.Body,
		From:   input.From,
		RoomID: input.RoomID,
	})
	if err != nil {
		return core.Message{}, core.Transport("create message", err)
	}

	url := c.baseURL + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return core.Message{}, core.Transport("create message", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Message{}, core.Transport("create message", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return core.Message{}, core.Transport("create message", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var stored proto.Message
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return core.Message{}, core.Transport("create message", err)
	}
	return messageFromWire(stored), nil
}

func resolveSubscribeURL(cfg config.Config) string {
	if cfg.SubscribeURL != "" {
		return cfg.SubscribeURL
	}
	ws := strings.Replace(cfg.BackendURL, "http", "ws", 1)
	return strings.TrimRight(ws, "/") + "/subscribe"
}
