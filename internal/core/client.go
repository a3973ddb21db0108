package core

import "sync"

// SessionState is the lifecycle stage of a connection.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateJoining
	StateJoined
	// StateClosed is terminal.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultClientBuffer is the event queue length used when none is given.
const DefaultClientBuffer = 64

// Client is one live connection as seen by the core layer.
// state and identity are owned by the hub goroutine.
type Client struct {
	ID       string
	IP       string
	Commands chan *Command
	Events   chan *Event

	state    SessionState
	identity *Identity

	done        chan struct{}
	closeOnce   sync.Once
	closeReason string
}

// NewClient constructs a client with initialized channels.
func NewClient(id, ip string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:       id,
		IP:       ip,
		Commands: make(chan *Command, buffer),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// Done is closed once the hub has terminated the session.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// CloseReason explains why the session ended. Valid after Done is closed.
func (c *Client) CloseReason() string {
	select {
	case <-c.done:
		return c.closeReason
	default:
		return ""
	}
}

func (c *Client) terminate(reason string) {
	c.closeOnce.Do(func() {
		c.closeReason = reason
		close(c.done)
	})
}
