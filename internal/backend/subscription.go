package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/LukeHalby/pushchat/internal/core"
	"github.com/LukeHalby/pushchat/internal/proto"
)

// Subscription is a live feed of message mutations for one room. It is lazy,
// infinite, and non-restartable: once the transport fails or Close is called
// the event channel closes and the feed stays dead. Reconnecting means
// subscribing again; the client never does so on its own.
type Subscription struct {
	events chan core.Message
	conn   *websocket.Conn
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

// Subscribe opens the live feed for a room and starts reading events.
// Cancelling ctx tears the feed down; so does Close.
func (c *Client) Subscribe(ctx context.Context, roomID string) (*Subscription, error) {
	addr := c.subscribeURL + "?room=" + url.QueryEscape(roomID)

	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, core.Transport("subscribe", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		events: make(chan core.Message, 16),
		conn:   conn,
		cancel: cancel,
	}

	go sub.readLoop(ctx, c)
	return sub, nil
}

// Events returns the feed channel. It closes when the feed ends.
func (s *Subscription) Events() <-chan core.Message {
	return s.events
}

// Err reports why the feed ended, nil for a clean teardown. Valid after the
// event channel has closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close unsubscribes and releases the connection.
func (s *Subscription) Close() error {
	s.cancel()
	return s.conn.Close(websocket.StatusNormalClosure, "unsubscribe")
}

func (s *Subscription) readLoop(ctx context.Context, c *Client) {
	defer close(s.events)
	defer s.conn.Close(websocket.StatusInternalError, "read loop exited")

	for {
		var envelope proto.SubscriptionEvent
		if err := wsjson.Read(ctx, s.conn, &envelope); err != nil {
			s.setErr(classifyReadError(err))
			return
		}

		switch envelope.Event {
		case proto.EventMutateMessage:
			if envelope.Data == nil {
				c.log.Warn().Msg("mutate event without payload")
				continue
			}
			select {
			case s.events <- messageFromWire(*envelope.Data):
			case <-ctx.Done():
				s.setErr(nil)
				return
			}
		case proto.EventError:
			if envelope.Error != nil {
				c.log.Warn().Str("code", envelope.Error.Code).Str("msg", envelope.Error.Msg).Msg("feed error event")
			}
		default:
			c.log.Debug().Str("event", envelope.Event).Msg("ignoring unknown feed event")
		}
	}
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// classifyReadError separates expected teardown from real transport failure.
func classifyReadError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	}
	return core.Transport("live feed", fmt.Errorf("read event: %w", err))
}
