package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin        = "join_group"
	InboundTypeSend        = "send_message"
	InboundTypeSendPrivate = "send_private_message"
	InboundTypeKick        = "kick_user_request"
	InboundTypeListIPs     = "get_user_ips_request"

	OutboundTypeSession   = "session"
	OutboundTypeUsers     = "update_users"
	OutboundTypeMessage   = "new_message"
	OutboundTypeNameTaken = "name_taken"
	OutboundTypeUserIPs   = "user_ips_list"
	OutboundTypeAuthError = "auth_error"
	OutboundTypeError     = "error"
)

// Message types carried in Message.Type.
const (
	MessageTypePublic  = "public"
	MessageTypePrivate = "private"
	MessageTypeSystem  = "system"
)

// JoinData asks to enter the channel.
type JoinData struct {
	Name      string `json:"name"`
	AuthToken string `json:"authToken,omitempty"`
}

// File references an uploaded file.
type File struct {
	Name      string `json:"name"`
	MimeType  string `json:"mimeType,omitempty"`
	SizeBytes int64  `json:"sizeBytes,omitempty"`
	URL       string `json:"url"`
}

// SendData is a public chat message from the client.
type SendData struct {
	Text string `json:"text,omitempty"`
	File *File  `json:"file,omitempty"`
}

// Recipient selects the target of a private message.
type Recipient struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name,omitempty"`
}

// PrivateData is a private chat message from the client.
type PrivateData struct {
	Text      string    `json:"text,omitempty"`
	File      *File     `json:"file,omitempty"`
	Recipient Recipient `json:"recipient"`
}

// KickData names the connection to disconnect.
type KickData struct {
	TargetConnectionID string `json:"targetConnectionId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Session tells a fresh connection who it is.
type Session struct {
	ConnectionID string `json:"connectionId"`
	Protocol     int    `json:"protocol"`
}

// User is one entry of the presence list. IP addresses are never included.
type User struct {
	Name         string `json:"name"`
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName,omitempty"`
}

// Sender identifies who wrote a message; system messages use the name "SYSTEM".
type Sender struct {
	Name         string `json:"name"`
	ConnectionID string `json:"connectionId,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

// Message is a chat message as delivered to clients.
type Message struct {
	ID        string `json:"id"`
	Type      string `json:"messageType"`
	Sender    Sender `json:"sender"`
	Recipient *User  `json:"recipient,omitempty"`
	Text      string `json:"text,omitempty"`
	File      *File  `json:"file,omitempty"`
	Timestamp string `json:"timestamp"`
	TS        int64  `json:"ts"`
}

// IPEntry pairs a presented name with an address.
type IPEntry struct {
	Name      string `json:"name"`
	IPAddress string `json:"ipAddress"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
