package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// DefaultMaxNameLength bounds participant names, in runes.
const DefaultMaxNameLength = 32

// Close reasons reported through Client.CloseReason.
const (
	CloseReasonDisconnect = "disconnect"
	CloseReasonNameTaken  = "name taken"
	CloseReasonKicked     = "kicked"
	CloseReasonShutdown   = "server shutting down"
)

// TokenVerifier checks a join token and returns the name it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// Metrics receives hub activity. All methods are called from the hub goroutine.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	JoinOutcome(outcome string)
	MessageRouted(kind MessageKind)
	UserKicked()
	PresenceChanged(n int)
}

type noopMetrics struct{}

func (noopMetrics) ConnectionOpened()         {}
func (noopMetrics) ConnectionClosed()         {}
func (noopMetrics) JoinOutcome(string)        {}
func (noopMetrics) MessageRouted(MessageKind) {}
func (noopMetrics) UserKicked()               {}
func (noopMetrics) PresenceChanged(int)       {}

type envelope struct {
	client *Client
	cmd    *Command
}

// Hub serializes every connection event through a single goroutine, so
// registry decisions (name check then insert, lookup then deliver) never interleave.
type Hub struct {
	registry     *Registry
	policy       Policy
	factory      *MessageFactory
	verifier     TokenVerifier
	requireToken bool
	maxNameLen   int
	metrics      Metrics
	log          *zerolog.Logger

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	commands   chan envelope
	stopped    chan struct{}
}

// Option customizes a Hub.
type Option func(*Hub)

// WithPolicy sets the role policy. Default: ReservedAdminPolicy(DefaultAdminName, DefaultAdminDisplayName).
func WithPolicy(p Policy) Option {
	return func(h *Hub) {
		if p != nil {
			h.policy = p
		}
	}
}

// WithTokenVerifier enables join token checks. When required is set, joins without a token are refused.
func WithTokenVerifier(v TokenVerifier, required bool) Option {
	return func(h *Hub) {
		h.verifier = v
		h.requireToken = required
	}
}

// WithMessageFactory sets the factory used for ids and timestamps.
func WithMessageFactory(f *MessageFactory) Option {
	return func(h *Hub) {
		if f != nil {
			h.factory = f
		}
	}
}

// WithMaxNameLength bounds join names.
func WithMaxNameLength(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.maxNameLen = n
		}
	}
}

// WithMetrics attaches an activity sink.
func WithMetrics(m Metrics) Option {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHub creates a new chat hub instance.
func NewHub(opts ...Option) *Hub {
	nop := zerolog.Nop()
	h := &Hub{
		policy:     ReservedAdminPolicy(DefaultAdminName, DefaultAdminDisplayName),
		factory:    NewMessageFactory(nil, ""),
		maxNameLen: DefaultMaxNameLength,
		metrics:    noopMetrics{},
		log:        &nop,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan envelope, 256),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registry = NewRegistry(h.policy)
	return h
}

// Presence returns the current registry snapshot. Safe from any goroutine.
func (h *Hub) Presence() []Identity {
	return h.registry.Snapshot()
}

// RegisterClient hands a new connection to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
		c.terminate(CloseReasonShutdown)
	}
}

// UnregisterClient reports a transport-level disconnect. Repeated calls are harmless.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Run processes events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				c.terminate(CloseReasonShutdown)
			}
			return
		case c := <-h.register:
			h.attach(ctx, c)
		case c := <-h.unregister:
			h.closeClient(c, CloseReasonDisconnect)
		case env := <-h.commands:
			h.handle(env.client, env.cmd)
		}
	}
}

func (h *Hub) attach(ctx context.Context, c *Client) {
	if _, exists := h.clients[c.ID]; exists {
		h.log.Warn().Str("conn_id", c.ID).Msg("duplicate connection id")
		c.terminate(CloseReasonDisconnect)
		return
	}
	c.state = StateAnonymous
	h.clients[c.ID] = c
	h.metrics.ConnectionOpened()
	h.log.Debug().Str("conn_id", c.ID).Str("ip", c.IP).Msg("connection registered")

	go h.forward(ctx, c)
	h.deliver(c, &Event{Kind: EventSession, ConnID: c.ID})
}

// forward moves one client's commands onto the shared queue, keeping their order.
func (h *Hub) forward(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.commands <- envelope{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	if c.state == StateClosed {
		return
	}
	switch cmd.Kind {
	case CommandJoin:
		h.join(c, cmd)
	case CommandSendPublic:
		h.sendPublic(c, cmd.Content)
	case CommandSendPrivate:
		h.sendPrivate(c, cmd.Recipient, cmd.Content)
	case CommandKick:
		h.kick(c, cmd.TargetConnID)
	case CommandListIPs:
		h.listIPs(c)
	default:
		h.sendError(c, ErrCodeBadRequest, "unknown command")
	}
}

func (h *Hub) join(c *Client, cmd *Command) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" || utf8.RuneCountInString(name) > h.maxNameLen {
		h.sendError(c, ErrCodeBadRequest, fmt.Sprintf("name must be between 1 and %d characters", h.maxNameLen))
		return
	}

	prev := c.state
	c.state = StateJoining

	if err := h.authenticate(name, cmd.Token); err != nil {
		c.state = prev
		h.metrics.JoinOutcome("auth_error")
		h.log.Info().Err(err).Str("conn_id", c.ID).Str("name", name).Msg("join refused")
		reason := authErrorReason(err)
		h.deliver(c, &Event{Kind: EventAuthError, Reason: reason, Error: coreError(ErrCodeInvalidToken, reason)})
		return
	}

	identity, outcome := h.registry.Admit(Identity{Name: name, ConnID: c.ID, IPAddress: c.IP})
	h.metrics.JoinOutcome(outcome.String())

	switch outcome {
	case Rejected:
		h.log.Info().Err(ErrNameTaken).Str("conn_id", c.ID).Str("name", name).Str("holder", identity.ConnID).Msg("join refused")
		reason := fmt.Sprintf("The username '%s' is already taken. Please choose a different one.", name)
		h.deliver(c, &Event{Kind: EventNameTaken, Reason: reason, Error: coreError(ErrCodeNameTaken, reason)})
		h.closeClient(c, CloseReasonNameTaken)
		return
	case Admitted:
		c.identity = &identity
		c.state = StateJoined
		h.log.Info().Str("conn_id", c.ID).Str("name", identity.Name).Msg("user joined")
		h.broadcastMessage(h.factory.System(identity.PresentedName() + " has entered the channel."))
		h.deliverMessage(c, h.factory.System(fmt.Sprintf("Welcome to the chat, %s!", identity.PresentedName())))
		h.broadcastUsers()
	case Reconnected:
		c.identity = &identity
		c.state = StateJoined
		h.log.Info().Str("conn_id", c.ID).Str("name", identity.Name).Msg("user reconnected")
		h.broadcastUsers()
	}
}

func (h *Hub) authenticate(name, token string) error {
	if h.verifier == nil {
		return nil
	}
	if token == "" {
		if h.requireToken {
			return ErrMissingToken
		}
		return nil
	}
	subject, err := h.verifier.VerifyToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if normalizeName(subject) != normalizeName(name) {
		return fmt.Errorf("%w: issued for a different user", ErrInvalidToken)
	}
	return nil
}

func authErrorReason(err error) string {
	if errors.Is(err, ErrMissingToken) {
		return "Authentication required. Please log in first."
	}
	return "Invalid or expired auth token. Please log in again."
}

// closeClient moves c to StateClosed. Only the first call has any effect.
func (h *Hub) closeClient(c *Client, reason string) {
	if c.state == StateClosed {
		return
	}
	if cur, ok := h.clients[c.ID]; !ok || cur != c {
		// Never registered, or already replaced.
		c.state = StateClosed
		c.terminate(reason)
		return
	}

	c.state = StateClosed
	delete(h.clients, c.ID)
	removed, wasPresent := h.registry.Remove(c.ID)
	c.identity = nil
	c.terminate(reason)
	h.metrics.ConnectionClosed()

	if !wasPresent {
		h.log.Debug().Str("conn_id", c.ID).Str("reason", reason).Msg("anonymous connection closed")
		return
	}
	h.log.Info().Str("conn_id", c.ID).Str("name", removed.Name).Str("reason", reason).Msg("user left")
	h.broadcastMessage(h.factory.System(removed.PresentedName() + " has left the channel."))
	h.broadcastUsers()
}

// deliver queues ev for c, dropping it if the client is not keeping up.
func (h *Hub) deliver(c *Client, ev *Event) {
	if c.state == StateClosed {
		return
	}
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("conn_id", c.ID).Int("kind", int(ev.Kind)).Msg("dropping event for slow client")
	}
}

func (h *Hub) deliverMessage(c *Client, msg Message) {
	h.deliver(c, &Event{Kind: EventMessage, Message: msg})
}

// notify sends c a system message describing a refused request, tagged with code.
func (h *Hub) notify(c *Client, code, text string) {
	h.deliver(c, &Event{Kind: EventMessage, Message: h.factory.System(text), Error: coreError(code, text)})
}

func (h *Hub) sendError(c *Client, code, msg string) {
	h.deliver(c, &Event{Kind: EventError, Error: coreError(code, msg)})
}

// broadcast sends ev to every live connection registered at call time.
func (h *Hub) broadcast(ev *Event) {
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	for _, c := range targets {
		h.deliver(c, ev)
	}
}

func (h *Hub) broadcastMessage(msg Message) {
	h.metrics.MessageRouted(msg.Kind)
	h.broadcast(&Event{Kind: EventMessage, Message: msg})
}

func (h *Hub) broadcastUsers() {
	users := h.registry.Snapshot()
	h.metrics.PresenceChanged(len(users))
	h.broadcast(&Event{Kind: EventUsers, Users: users})
}
