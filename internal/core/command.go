package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin asks to enter the channel under Name.
	CommandJoin CommandKind = iota
	// CommandSendPublic broadcasts Content.
	CommandSendPublic
	// CommandSendPrivate delivers Content to Recipient.
	CommandSendPrivate
	// CommandKick forcibly disconnects TargetConnID.
	CommandKick
	// CommandListIPs requests the participant address list.
	CommandListIPs
)

// RecipientRef names the target of a private message.
// ConnID is authoritative; Name is only used in notices.
type RecipientRef struct {
	ConnID string
	Name   string
}

// Command represents an action requested by a client.
type Command struct {
	Kind         CommandKind
	Name         string
	Token        string
	Content      Content
	Recipient    RecipientRef
	TargetConnID string
}
