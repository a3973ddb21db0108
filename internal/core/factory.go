package core

import (
	"time"

	"github.com/vovakirdan/partyline/internal/utils"
)

const (
	// DefaultTimestampLayout renders times like "07:45 PM".
	DefaultTimestampLayout = "03:04 PM"
	// DefaultTimezone is used when no location is configured.
	DefaultTimezone = "Asia/Kolkata"
)

// MessageFactory stamps ids and timestamps onto messages.
type MessageFactory struct {
	now    func() time.Time
	loc    *time.Location
	layout string
}

// NewMessageFactory builds a factory rendering timestamps in loc using layout.
// A nil loc falls back to UTC and an empty layout to DefaultTimestampLayout.
func NewMessageFactory(loc *time.Location, layout string) *MessageFactory {
	if loc == nil {
		loc = time.UTC
	}
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	return &MessageFactory{now: time.Now, loc: loc, layout: layout}
}

// SetClock replaces the time source. Used by tests.
func (f *MessageFactory) SetClock(now func() time.Time) {
	f.now = now
}

// System builds a server-authored message.
func (f *MessageFactory) System(text string) Message {
	msg := f.stamp("sys", MessageSystem)
	msg.Text = text
	return msg
}

// Public builds a broadcast message from sender.
func (f *MessageFactory) Public(sender Identity, content Content) Message {
	msg := f.stamp("msg", MessagePublic)
	msg.Sender = &sender
	msg.Text = content.Text
	msg.File = content.File
	return msg
}

// Private builds a point-to-point message from sender to recipient.
func (f *MessageFactory) Private(sender, recipient Identity, content Content) Message {
	msg := f.stamp("msg", MessagePrivate)
	msg.Sender = &sender
	msg.Recipient = &recipient
	msg.Text = content.Text
	msg.File = content.File
	return msg
}

func (f *MessageFactory) stamp(prefix string, kind MessageKind) Message {
	now := f.now()
	return Message{
		ID:        utils.NewID(prefix),
		Kind:      kind,
		CreatedAt: now,
		Timestamp: now.In(f.loc).Format(f.layout),
	}
}
