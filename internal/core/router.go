package core

import "fmt"

// sender returns the identity attached to c, reporting not_joined otherwise.
func (h *Hub) sender(c *Client) (Identity, bool) {
	if c.state != StateJoined || c.identity == nil {
		h.sendError(c, ErrCodeNotJoined, "join the channel before sending")
		return Identity{}, false
	}
	return *c.identity, true
}

// sendPublic broadcasts content to every live connection, sender included.
// Empty content is dropped without a broadcast.
func (h *Hub) sendPublic(c *Client, content Content) {
	from, ok := h.sender(c)
	if !ok {
		return
	}
	if content.Empty() {
		h.log.Debug().Str("conn_id", c.ID).Err(ErrEmptyContent).Msg("dropping public message")
		return
	}
	msg := h.factory.Public(from, content.normalized())
	h.log.Debug().Str("conn_id", c.ID).Str("msg_id", msg.ID).Msg("public message")
	h.broadcastMessage(msg)
}

// sendPrivate delivers content to the recipient's live connection and echoes it
// to the sender. The recipient is resolved by connection id at send time; when
// it is gone the sender gets an offline notice and nothing is queued.
func (h *Hub) sendPrivate(c *Client, to RecipientRef, content Content) {
	from, ok := h.sender(c)
	if !ok {
		return
	}
	if content.Empty() {
		h.log.Debug().Str("conn_id", c.ID).Err(ErrEmptyContent).Msg("dropping private message")
		return
	}

	recipient, found := h.registry.Find(to.ConnID)
	target := h.clients[to.ConnID]
	if !found || target == nil {
		name := to.Name
		if name == "" {
			name = to.ConnID
		}
		h.log.Debug().Str("conn_id", c.ID).Str("recipient", to.ConnID).Msg("private recipient offline")
		h.notify(c, ErrCodeRecipientOffline, fmt.Sprintf("Private message to %s failed: user is offline.", name))
		return
	}

	msg := h.factory.Private(from, recipient, content.normalized())
	h.metrics.MessageRouted(msg.Kind)
	h.log.Debug().Str("conn_id", c.ID).Str("recipient", recipient.ConnID).Str("msg_id", msg.ID).Msg("private message")
	h.deliverMessage(target, msg)
	if target != c {
		h.deliverMessage(c, msg)
	}
}
