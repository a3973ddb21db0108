package http

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/vovakirdan/partyline/internal/core"
	"github.com/vovakirdan/partyline/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(join.Name) == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "name is required"}, nil
		}
		return &core.Command{
			Kind:  core.CommandJoin,
			Name:  join.Name,
			Token: join.AuthToken,
		}, nil, nil
	case proto.InboundTypeSend:
		var msg proto.SendData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		content := contentFromProto(msg.Text, msg.File)
		if content.Empty() {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text or file is required"}, nil
		}
		return &core.Command{Kind: core.CommandSendPublic, Content: content}, nil, nil
	case proto.InboundTypeSendPrivate:
		var msg proto.PrivateData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.Recipient.ConnectionID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "recipient is required"}, nil
		}
		content := contentFromProto(msg.Text, msg.File)
		if content.Empty() {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text or file is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandSendPrivate,
			Content: content,
			Recipient: core.RecipientRef{
				ConnID: msg.Recipient.ConnectionID,
				Name:   msg.Recipient.Name,
			},
		}, nil, nil
	case proto.InboundTypeKick:
		target, err := decodeKickTarget(inbound.Data)
		if err != nil {
			return nil, nil, err
		}
		if target == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "target connection is required"}, nil
		}
		return &core.Command{Kind: core.CommandKick, TargetConnID: target}, nil, nil
	case proto.InboundTypeListIPs:
		return &core.Command{Kind: core.CommandListIPs}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

// decodeKickTarget accepts either a bare JSON string or a KickData object.
func decodeKickTarget(data json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var target string
		if err := json.Unmarshal(trimmed, &target); err != nil {
			return "", err
		}
		return target, nil
	}
	var kick proto.KickData
	if err := json.Unmarshal(data, &kick); err != nil {
		return "", err
	}
	return kick.TargetConnectionID, nil
}

func contentFromProto(text string, file *proto.File) core.Content {
	content := core.Content{Text: text}
	if file != nil {
		content.File = &core.FileAttachment{
			Name:      file.Name,
			MimeType:  file.MimeType,
			SizeBytes: file.SizeBytes,
			URL:       file.URL,
		}
	}
	return content
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventSession:
		return proto.Outbound{
			Type: proto.OutboundTypeSession,
			Data: proto.Session{ConnectionID: event.ConnID, Protocol: proto.ProtocolVersion},
		}
	case core.EventUsers:
		users := make([]proto.User, 0, len(event.Users))
		for _, u := range event.Users {
			users = append(users, userToProto(u))
		}
		return proto.Outbound{Type: proto.OutboundTypeUsers, Data: users}
	case core.EventMessage:
		return proto.Outbound{Type: proto.OutboundTypeMessage, Data: messageToProto(event.Message), Error: errorToProto(event.Error)}
	case core.EventNameTaken:
		return proto.Outbound{Type: proto.OutboundTypeNameTaken, Data: event.Reason, Error: errorToProto(event.Error)}
	case core.EventUserIPs:
		entries := make([]proto.IPEntry, 0, len(event.IPs))
		for _, e := range event.IPs {
			entries = append(entries, proto.IPEntry{Name: e.Name, IPAddress: e.IPAddress})
		}
		return proto.Outbound{Type: proto.OutboundTypeUserIPs, Data: entries}
	case core.EventAuthError:
		return proto.Outbound{Type: proto.OutboundTypeAuthError, Data: event.Reason, Error: errorToProto(event.Error)}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{Type: proto.OutboundTypeError, Error: errorToProto(event.Error)}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}

// errorToProto tags refusals that are also delivered as regular frames.
func errorToProto(err *core.CoreError) *proto.Error {
	if err == nil {
		return nil
	}
	return &proto.Error{Code: err.Code, Msg: err.Message}
}

func userToProto(u core.Identity) proto.User {
	return proto.User{Name: u.Name, ConnectionID: u.ConnID, DisplayName: u.DisplayName}
}

func messageToProto(msg core.Message) proto.Message {
	out := proto.Message{
		ID:        msg.ID,
		Sender:    proto.Sender{Name: core.SystemSenderName},
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
		TS:        msg.CreatedAt.Unix(),
	}
	switch msg.Kind {
	case core.MessagePublic:
		out.Type = proto.MessageTypePublic
	case core.MessagePrivate:
		out.Type = proto.MessageTypePrivate
	default:
		out.Type = proto.MessageTypeSystem
	}
	if msg.Kind != core.MessageSystem && msg.Sender != nil {
		out.Sender = proto.Sender{
			Name:         msg.Sender.Name,
			ConnectionID: msg.Sender.ConnID,
			DisplayName:  msg.Sender.DisplayName,
		}
	}
	if msg.Recipient != nil {
		r := userToProto(*msg.Recipient)
		out.Recipient = &r
	}
	if msg.File != nil {
		out.File = &proto.File{
			Name:      msg.File.Name,
			MimeType:  msg.File.MimeType,
			SizeBytes: msg.File.SizeBytes,
			URL:       msg.File.URL,
		}
	}
	return out
}
