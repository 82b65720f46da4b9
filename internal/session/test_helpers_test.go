package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/LukeHalby/pushchat/internal/backend"
	"github.com/LukeHalby/pushchat/internal/config"
	"github.com/LukeHalby/pushchat/internal/core"
	"github.com/LukeHalby/pushchat/internal/log"
)

type fakeBackend struct {
	listMessages  func(ctx context.Context, roomID string) ([]core.Message, error)
	createMessage func(ctx context.Context, input backend.CreateMessageInput) (core.Message, error)
	subscribe     func(ctx context.Context, roomID string) (Feed, error)
}

func (f *fakeBackend) ListMessages(ctx context.Context, roomID string) ([]core.Message, error) {
	if f.listMessages == nil {
		return nil, nil
	}
	return f.listMessages(ctx, roomID)
}

func (f *fakeBackend) CreateMessage(ctx context.Context, input backend.CreateMessageInput) (core.Message, error) {
	if f.createMessage == nil {
		return core.Message{}, nil
	}
	return f.createMessage(ctx, input)
}

func (f *fakeBackend) Subscribe(ctx context.Context, roomID string) (Feed, error) {
	if f.subscribe == nil {
		return newFakeFeed(), nil
	}
	return f.subscribe(ctx, roomID)
}

type fakeFeed struct {
	events chan core.Message
	err    error
	closed chan struct{}
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		events: make(chan core.Message, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeFeed) Events() <-chan core.Message { return f.events }
func (f *fakeFeed) Err() error                  { return f.err }

func (f *fakeFeed) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
	return nil
}

// die ends the feed the way a transport failure would.
func (f *fakeFeed) die(err error) {
	f.err = err
	close(f.events)
}

type fakeRegistrar struct {
	token string
	err   error
}

func (r *fakeRegistrar) Register(context.Context) (string, error) {
	return r.token, r.err
}

type fakeSink struct {
	tokens chan string
}

func newFakeSink() *fakeSink {
	return &fakeSink{tokens: make(chan string, 1)}
}

func (s *fakeSink) OnTokenReady(_ context.Context, token string) {
	s.tokens <- token
}

func newTestSession(be Backend, reg Registrar, sink TokenSink) *Session {
	cfg := config.Default()
	cfg.RoomID = "1"
	return New(cfg, be, reg, sink, log.Nop())
}

func viewIDs(msgs []core.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

// waitForView drains updates until the session's view matches the wanted ids.
func waitForView(t *testing.T, sess *Session, want []string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if diff := cmp.Diff(want, viewIDs(sess.Messages())); diff == "" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("view never reached %v, have %v", want, viewIDs(sess.Messages()))
}

// waitForStatus drains updates until one carries the wanted error code.
func waitForStatus(t *testing.T, sess *Session, code string) *Status {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case update := <-sess.Updates():
			if update.Status != nil && update.Status.Code == code {
				return update.Status
			}
		case <-deadline:
			t.Fatalf("status %q never surfaced", code)
			return nil
		}
	}
}
