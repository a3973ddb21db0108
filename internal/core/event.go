package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventSession tells a fresh connection its id.
	EventSession EventKind = iota
	// EventUsers carries the presence snapshot.
	EventUsers
	// EventMessage carries a public, private or system message.
	EventMessage
	// EventNameTaken precedes a forced close after a rejected join.
	EventNameTaken
	// EventUserIPs carries the admin address list.
	EventUserIPs
	// EventAuthError reports a refused join token.
	EventAuthError
	// EventError notifies clients about a domain error.
	EventError
)

// IPEntry pairs a presented name with its observed address.
type IPEntry struct {
	Name      string
	IPAddress string
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	ConnID  string
	Users   []Identity
	Message Message
	IPs     []IPEntry
	Reason  string
	Error   *CoreError
}
