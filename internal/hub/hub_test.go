package hub

import (
	"testing"
	"time"
)

func TestBroadcastFiltersByProfile(t *testing.T) {
	h := New()
	mine := &Client{ID: "c1", Send: make(chan Event, 1), ProfileID: "profile-1"}
	other := &Client{ID: "c2", Send: make(chan Event, 1), ProfileID: "profile-2"}
	all := &Client{ID: "c3", Send: make(chan Event, 1)}
	h.Register(mine)
	h.Register(other)
	h.Register(all)

	h.Broadcast(Event{Type: EventSignedIn, ProfileID: "profile-1", At: time.Now()})

	select {
	case event := <-mine.Send:
		if event.Type != EventSignedIn {
			t.Errorf("unexpected event type %q", event.Type)
		}
	default:
		t.Error("expected delivery to matching client")
	}
	select {
	case <-other.Send:
		t.Error("unexpected delivery to non-matching client")
	default:
	}
	select {
	case <-all.Send:
	default:
		t.Error("expected delivery to unfiltered client")
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := New()
	client := &Client{ID: "c1", Send: make(chan Event)}
	h.Register(client)

	// Unbuffered channel with no reader: must not block.
	done := make(chan struct{})
	go func() {
		h.Broadcast(Event{Type: EventSignedOut, ProfileID: "p"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full client")
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := New()
	client := &Client{ID: "c1", Send: make(chan Event, 1)}
	h.Register(client)
	h.Unregister(client)
	if _, open := <-client.Send; open {
		t.Fatal("expected send channel closed")
	}
	// Second unregister is a no-op.
	h.Unregister(client)
}
