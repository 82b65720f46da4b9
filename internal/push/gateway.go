package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/LukeHalby/pushchat/internal/core"
	"github.com/LukeHalby/pushchat/internal/proto"
)

// Gateway is the HTTP push service: it issues install tokens and accepts
// delivery channel configuration. It implements TokenSource and
// ChannelConfigurator.
type Gateway struct {
	baseURL    string
	platform   string
	installID  string
	httpClient *http.Client
}

// NewGateway builds a gateway client. Each Gateway represents one app
// installation and mints its install ID up front.
func NewGateway(baseURL, platform string, httpClient *http.Client) *Gateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		platform:   platform,
		installID:  uuid.NewString(),
		httpClient: httpClient,
	}
}

// Token requests a push token for this installation.
func (g *Gateway) Token(ctx context.Context) (string, error) {
	payload, err := json.Marshal(proto.TokenRequest{
		InstallID: g.installID,
		Platform:  g.platform,
	})
	if err != nil {
		return "", core.Transport("push token", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/tokens", bytes.NewReader(payload))
	if err != nil {
		return "", core.Transport("push token", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", core.Transport("push token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", core.Transport("push token", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body proto.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", core.Transport("push token", err)
	}
	if body.Token == "" {
		return "", core.Transport("push token", fmt.Errorf("gateway returned empty token"))
	}
	return body.Token, nil
}

// SetChannel upserts a notification delivery channel.
func (g *Gateway) SetChannel(ctx context.Context, cfg proto.ChannelConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return core.Transport("set channel", err)
	}

	url := g.baseURL + "/v1/channels/" + cfg.Name
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return core.Transport("set channel", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return core.Transport("set channel", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return core.Transport("set channel", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
