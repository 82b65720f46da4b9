package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LukeHalby/pushchat/internal/backend"
	"github.com/LukeHalby/pushchat/internal/core"
)

func msg(id, createdAt string) core.Message {
	return core.Message{ID: id, Body: "body-" + id, CreatedAt: createdAt}
}

func TestRunSnapshotThenLiveEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	feed := newFakeFeed()
	be := &fakeBackend{
		listMessages: func(context.Context, string) ([]core.Message, error) {
			return []core.Message{msg("a", "1"), msg("b", "3")}, nil
		},
		subscribe: func(context.Context, string) (Feed, error) {
			return feed, nil
		},
	}
	sess := newTestSession(be, &fakeRegistrar{token: "tok"}, newFakeSink())
	go sess.Run(ctx)

	waitForView(t, sess, []string{"a", "b"})

	feed.events <- msg("c", "2")
	waitForView(t, sess, []string{"a", "c", "b"})
}

func TestRunSnapshotFailureLeavesViewUnchanged(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	be := &fakeBackend{
		listMessages: func(context.Context, string) ([]core.Message, error) {
			return nil, core.Transport("list messages", errors.New("boom"))
		},
	}
	sess := newTestSession(be, &fakeRegistrar{token: "tok"}, newFakeSink())
	go sess.Run(ctx)

	waitForStatus(t, sess, core.ErrCodeTransport)
	if got := sess.Messages(); len(got) != 0 {
		t.Fatalf("view should stay empty after failed snapshot, got %v", got)
	}
}

func TestRunDuplicateLiveEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	feed := newFakeFeed()
	be := &fakeBackend{
		subscribe: func(context.Context, string) (Feed, error) { return feed, nil },
	}
	sess := newTestSession(be, &fakeRegistrar{token: "tok"}, newFakeSink())
	go sess.Run(ctx)

	feed.events <- msg("x", "5")
	feed.events <- msg("x", "5")
	waitForView(t, sess, []string{"x"})

	if n := len(sess.Messages()); n != 1 {
		t.Fatalf("expected exactly one entry, got %d", n)
	}
}

func TestRunFeedDeathSurfacesStatusAndStaysDead(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	feed := newFakeFeed()
	var resubscribes atomic.Int32
	be := &fakeBackend{
		subscribe: func(context.Context, string) (Feed, error) {
			resubscribes.Add(1)
			return feed, nil
		},
	}
	sess := newTestSession(be, &fakeRegistrar{token: "tok"}, newFakeSink())
	go sess.Run(ctx)

	feed.events <- msg("a", "1")
	waitForView(t, sess, []string{"a"})

	feed.die(core.Transport("live feed", errors.New("connection reset")))
	waitForStatus(t, sess, core.ErrCodeTransport)

	// No reconnect: one subscribe for the whole session.
	time.Sleep(50 * time.Millisecond)
	if n := resubscribes.Load(); n != 1 {
		t.Fatalf("expected a single subscribe, got %d", n)
	}
}

func TestRunTokenReadyReachesSink(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	sink := newFakeSink()
	sess := newTestSession(&fakeBackend{}, &fakeRegistrar{token: "PushToken[abc]"}, sink)
	go sess.Run(ctx)

	select {
	case token := <-sink.tokens:
		if token != "PushToken[abc]" {
			t.Fatalf("unexpected token: %q", token)
		}
	case <-ctx.Done():
		t.Fatal("sink never notified")
	}

	if sess.Token() != "PushToken[abc]" {
		t.Fatalf("session token not retained: %q", sess.Token())
	}
}

func TestRunRegistrationFailureIsTerminal(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	sink := newFakeSink()
	sess := newTestSession(&fakeBackend{}, &fakeRegistrar{err: core.ErrPermissionDenied}, sink)
	go sess.Run(ctx)

	waitForStatus(t, sess, core.ErrCodePermissionDenied)

	if sess.Token() != "" {
		t.Fatalf("no token expected, got %q", sess.Token())
	}
	select {
	case token := <-sink.tokens:
		t.Fatalf("sink should not fire, got %q", token)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubmitEmptyTextIsNoOp(t *testing.T) {
	var calls atomic.Int32
	be := &fakeBackend{
		createMessage: func(context.Context, backend.CreateMessageInput) (core.Message, error) {
			calls.Add(1)
			return core.Message{}, nil
		},
	}
	sess := newTestSession(be, &fakeRegistrar{token: "tok"}, newFakeSink())
	sess.mu.Lock()
	sess.token, sess.senderID = "tok", "tok"
	sess.mu.Unlock()

	if err := sess.Submit(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no backend call, got %d", n)
	}
}

func TestSubmitWithoutTokenIsNoOp(t *testing.T) {
	var calls atomic.Int32
	be := &fakeBackend{
		createMessage: func(context.Context, backend.CreateMessageInput) (core.Message, error) {
			calls.Add(1)
			return core.Message{}, nil
		},
	}
	sess := newTestSession(be, &fakeRegistrar{}, newFakeSink())

	if err := sess.Submit(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no backend call, got %d", n)
	}
}

func TestSubmitSendsTokenAsSender(t *testing.T) {
	got := make(chan backend.CreateMessageInput, 1)
	be := &fakeBackend{
		createMessage: func(_ context.Context, input backend.CreateMessageInput) (core.Message, error) {
			got <- input
			return core.Message{ID: "new"}, nil
		},
	}
	sess := newTestSession(be, &fakeRegistrar{}, newFakeSink())
	sess.mu.Lock()
	sess.token, sess.senderID = "PushToken[tok]", "PushToken[tok]"
	sess.mu.Unlock()

	if err := sess.Submit(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input := <-got
	if input.Body != "hello" || input.From != "PushToken[tok]" || input.RoomID != "1" {
		t.Fatalf("unexpected input: %+v", input)
	}
}

func TestSubmitFailureSurfacesStatus(t *testing.T) {
	be := &fakeBackend{
		createMessage: func(context.Context, backend.CreateMessageInput) (core.Message, error) {
			return core.Message{}, core.Transport("create message", errors.New("boom"))
		},
	}
	sess := newTestSession(be, &fakeRegistrar{}, newFakeSink())
	sess.mu.Lock()
	sess.token, sess.senderID = "tok", "tok"
	sess.mu.Unlock()

	if err := sess.Submit(context.Background(), "hello"); err == nil {
		t.Fatal("expected an error")
	}
	waitForStatus(t, sess, core.ErrCodeTransport)
}
