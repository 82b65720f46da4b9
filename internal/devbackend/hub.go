package devbackend

import (
	"sync"

	"github.com/LukeHalby/pushchat/internal/proto"
)

// subscriber is one live feed connection.
type subscriber struct {
	events chan proto.SubscriptionEvent
}

// hub fans mutations out to the subscribers of each room.
type hub struct {
	mu    sync.Mutex
	rooms map[string]map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{rooms: make(map[string]map[*subscriber]struct{})}
}

func (h *hub) add(room string) *subscriber {
	sub := &subscriber{events: make(chan proto.SubscriptionEvent, 16)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*subscriber]struct{})
	}
	h.rooms[room][sub] = struct{}{}
	return sub
}

func (h *hub) remove(room string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[room]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *hub) broadcast(room string, event proto.SubscriptionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.rooms[room] {
		select {
		case sub.events <- event:
		default:
			// Drop if slow consumer.
		}
	}
}
