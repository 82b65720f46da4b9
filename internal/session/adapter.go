package session

import (
	"context"

	"github.com/LukeHalby/pushchat/internal/backend"
	"github.com/LukeHalby/pushchat/internal/core"
)

// Wrap adapts the concrete backend client to the session's Backend interface.
func Wrap(c *backend.Client) Backend {
	return clientBackend{c: c}
}

type clientBackend struct {
	c *backend.Client
}

func (b clientBackend) ListMessages(ctx context.Context, roomID string) ([]core.Message, error) {
	return b.c.ListMessages(ctx, roomID)
}

func (b clientBackend) CreateMessage(ctx context.Context, input backend.CreateMessageInput) (core.Message, error) {
	return b.c.CreateMessage(ctx, input)
}

func (b clientBackend) Subscribe(ctx context.Context, roomID string) (Feed, error) {
	sub, err := b.c.Subscribe(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
