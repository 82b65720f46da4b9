package backend

import (
	"context"
	"testing"
	"time"

	"github.com/LukeHalby/pushchat/internal/core"
)

func recvEvent(t *testing.T, sub *Subscription) core.Message {
	t.Helper()

	select {
	case m, ok := <-sub.Events():
		if !ok {
			t.Fatalf("feed closed early: %v", sub.Err())
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no event within deadline")
		return core.Message{}
	}
}

func TestSubscribeDeliversMutations(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := c.Subscribe(ctx, "1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	created, err := c.CreateMessage(ctx, CreateMessageInput{Body: "hi", From: "t", RoomID: "1"})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	got := recvEvent(t, sub)
	if got.ID != created.ID || got.Body != "hi" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestSubscribeScopedToRoom(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := c.Subscribe(ctx, "2")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	if _, err := c.CreateMessage(ctx, CreateMessageInput{Body: "hi", From: "t", RoomID: "1"}); err != nil {
		t.Fatalf("create message: %v", err)
	}

	select {
	case m, ok := <-sub.Events():
		if ok {
			t.Fatalf("room 2 should see nothing, got %+v", m)
		}
		t.Fatalf("feed ended unexpectedly: %v", sub.Err())
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeCloseEndsFeedCleanly(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := c.Subscribe(ctx, "1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sub.Close()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not end after close")
	}
	if err := sub.Err(); err != nil {
		t.Fatalf("clean close should not report an error, got %v", err)
	}
}

func TestSubscribeContextCancelEndsFeed(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := c.Subscribe(ctx, "1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not end after cancel")
	}
}
