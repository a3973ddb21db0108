package core

import "fmt"

// authorize checks that c holds want, notifying c otherwise.
func (h *Hub) authorize(c *Client, want Capability, action string) (Identity, bool) {
	if c.state == StateJoined && c.identity != nil {
		if h.policy.Resolve(*c.identity).Capabilities.Has(want) {
			return *c.identity, true
		}
	}
	name := "unknown user"
	if c.identity != nil {
		name = c.identity.Name
	}
	h.log.Warn().Str("conn_id", c.ID).Str("name", name).Str("action", action).Msg("unauthorized admin request")
	h.notify(c, ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: You do not have permission to %s.", action))
	return Identity{}, false
}

// kick force-closes the target connection. The regular close path removes the
// registry entry and announces the departure; kick only adds who did it.
func (h *Hub) kick(c *Client, targetConnID string) {
	requester, ok := h.authorize(c, CapKick, "kick users")
	if !ok {
		return
	}

	target := h.clients[targetConnID]
	if target == nil || target.state != StateJoined || target.identity == nil {
		h.log.Info().Str("conn_id", c.ID).Str("target", targetConnID).Msg("kick target not found")
		h.notify(c, ErrCodeTargetNotFound, "Failed to kick user: Target not found.")
		return
	}

	kicked := target.identity.PresentedName()
	h.closeClient(target, CloseReasonKicked)
	h.metrics.UserKicked()
	h.log.Info().Str("by", requester.Name).Str("target", targetConnID).Str("name", kicked).Msg("user kicked")
	h.broadcastMessage(h.factory.System(fmt.Sprintf("%s has been kicked from the channel by %s.", kicked, requester.PresentedName())))
}

// listIPs sends the address list to the requester only.
func (h *Hub) listIPs(c *Client) {
	requester, ok := h.authorize(c, CapListIPs, "view IP addresses")
	if !ok {
		return
	}

	snapshot := h.registry.Snapshot()
	entries := make([]IPEntry, 0, len(snapshot))
	for _, id := range snapshot {
		ip := id.IPAddress
		if ip == "" {
			ip = "N/A"
		}
		entries = append(entries, IPEntry{Name: id.PresentedName(), IPAddress: ip})
	}
	h.log.Info().Str("by", requester.Name).Int("count", len(entries)).Msg("ip list requested")
	h.deliver(c, &Event{Kind: EventUserIPs, IPs: entries})
}
