package core

import (
	"strings"
	"time"
)

// SystemSenderName marks messages authored by the server.
const SystemSenderName = "SYSTEM"

// MessageKind discriminates the message union.
type MessageKind int

const (
	// MessagePublic is broadcast to every live connection.
	MessagePublic MessageKind = iota
	// MessagePrivate is delivered to one recipient and echoed to the sender.
	MessagePrivate
	// MessageSystem is authored by the server.
	MessageSystem
)

func (k MessageKind) String() string {
	switch k {
	case MessagePublic:
		return "public"
	case MessagePrivate:
		return "private"
	case MessageSystem:
		return "system"
	default:
		return "unknown"
	}
}

// FileAttachment references a file stored by the upload endpoint.
type FileAttachment struct {
	Name      string
	MimeType  string
	SizeBytes int64
	URL       string
}

// Content is the client-supplied part of a chat message.
type Content struct {
	Text string
	File *FileAttachment
}

// normalized drops blank text and file references without a URL.
func (c Content) normalized() Content {
	out := Content{Text: c.Text, File: c.File}
	if strings.TrimSpace(out.Text) == "" {
		out.Text = ""
	}
	if out.File != nil && strings.TrimSpace(out.File.URL) == "" {
		out.File = nil
	}
	return out
}

// Empty reports whether the content carries neither text nor a file.
func (c Content) Empty() bool {
	n := c.normalized()
	return n.Text == "" && n.File == nil
}

// Message is the domain model for a chat message.
// Sender is nil for system messages; Recipient is set only for private ones.
type Message struct {
	ID        string
	Kind      MessageKind
	Sender    *Identity
	Recipient *Identity
	Text      string
	File      *FileAttachment
	CreatedAt time.Time
	Timestamp string
}

// SenderName returns the presented sender name, or the system marker.
func (m Message) SenderName() string {
	if m.Kind == MessageSystem || m.Sender == nil {
		return SystemSenderName
	}
	return m.Sender.PresentedName()
}
