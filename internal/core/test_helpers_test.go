package core

import (
	"context"
	"strings"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	return mustEventMatch(t, ch, func(ev *Event) bool { return ev.Kind == kind })
}

func mustEventMatch(t *testing.T, ch <-chan *Event, match func(*Event) bool) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if match(ev) {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event not received")
	return nil
}

// collectUntil returns every event up to and including the first one matching stop.
func collectUntil(t *testing.T, ch <-chan *Event, stop func(*Event) bool) []*Event {
	t.Helper()

	var out []*Event
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			out = append(out, ev)
			if stop(ev) {
				return out
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("stop event not received; got %d events", len(out))
	return nil
}

func mustDone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s was not closed", c.ID)
	}
}

func isSystemText(substr string) func(*Event) bool {
	return func(ev *Event) bool {
		return ev.Kind == EventMessage && ev.Message.Kind == MessageSystem && strings.Contains(ev.Message.Text, substr)
	}
}

func isPublicText(text string) func(*Event) bool {
	return func(ev *Event) bool {
		return ev.Kind == EventMessage && ev.Message.Kind == MessagePublic && ev.Message.Text == text
	}
}

func usersContain(connID, name string) func(*Event) bool {
	return func(ev *Event) bool {
		if ev.Kind != EventUsers {
			return false
		}
		for _, u := range ev.Users {
			if u.ConnID == connID && strings.EqualFold(u.Name, name) {
				return true
			}
		}
		return false
	}
}

func startHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(opts...)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(id, "10.0.0."+id, 0)
	hub.RegisterClient(c)
	mustEvent(t, c.Events, EventSession)
	return c
}

// joinAs connects a client and waits until the hub has admitted it.
func joinAs(t *testing.T, hub *Hub, id, name string) *Client {
	t.Helper()

	c := connect(t, hub, id)
	c.Commands <- &Command{Kind: CommandJoin, Name: name}
	mustEventMatch(t, c.Events, usersContain(id, name))
	return c
}

func presenceNames(hub *Hub) []string {
	var names []string
	for _, id := range hub.Presence() {
		names = append(names, id.Name)
	}
	return names
}
