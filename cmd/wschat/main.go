// Command wschat is a line-oriented terminal client for manual testing.
//
// Plain lines are sent to the channel. Commands:
//
//	/msg <connectionId> <text>   private message
//	/kick <connectionId>         disconnect a participant (admin only)
//	/ips                         list participant addresses (admin only)
//	/users                       print the last presence list
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/partyline/internal/proto"
)

type inboundFrame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error,omitempty"`
}

type presence struct {
	mu    sync.Mutex
	users []proto.User
}

func (p *presence) set(users []proto.User) {
	p.mu.Lock()
	p.users = users
	p.mu.Unlock()
}

func (p *presence) print() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		label := u.Name
		if u.DisplayName != "" {
			label = u.DisplayName
		}
		fmt.Printf("  %s (%s)\n", label, u.ConnectionID)
	}
}

func main() {
	if err := run(); err != nil {
		log.Printf("wschat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "name to join with")
	token := flag.String("token", "", "auth token from /login, if the server requires one")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeJoin, proto.JoinData{Name: *name, AuthToken: *token}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s\n", *addr, *name)
	fmt.Println("Type messages and press Enter to send. /msg, /kick, /ips, /users. Ctrl+C to exit.")

	users := &presence{}
	go func() {
		defer cancel()
		readLoop(ctx, conn, users)
	}()

	writeLoop(ctx, conn, users)
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		raw = payload
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn, users *presence) {
	for {
		var frame inboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			case websocket.StatusPolicyViolation:
				fmt.Printf("disconnected by server: %v\n", err)
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		render(frame, users)
	}
}

func render(frame inboundFrame, users *presence) {
	switch frame.Type {
	case proto.OutboundTypeSession:
		var s proto.Session
		if json.Unmarshal(frame.Data, &s) == nil {
			fmt.Printf("session %s (protocol %d)\n", s.ConnectionID, s.Protocol)
		}
	case proto.OutboundTypeUsers:
		var list []proto.User
		if err := json.Unmarshal(frame.Data, &list); err != nil {
			log.Printf("decode users: %v", err)
			return
		}
		users.set(list)
		fmt.Printf("-- %d online\n", len(list))
	case proto.OutboundTypeMessage:
		var msg proto.Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			log.Printf("decode message: %v", err)
			return
		}
		printMessage(msg)
	case proto.OutboundTypeUserIPs:
		var ips []proto.IPEntry
		if err := json.Unmarshal(frame.Data, &ips); err != nil {
			log.Printf("decode ips: %v", err)
			return
		}
		for _, e := range ips {
			fmt.Printf("  %s %s\n", e.Name, e.IPAddress)
		}
	case proto.OutboundTypeNameTaken, proto.OutboundTypeAuthError:
		var reason string
		_ = json.Unmarshal(frame.Data, &reason)
		fmt.Printf("%s: %s\n", frame.Type, reason)
	case proto.OutboundTypeError:
		if frame.Error != nil {
			fmt.Printf("error %s: %s\n", frame.Error.Code, frame.Error.Msg)
		}
	default:
		fmt.Printf("type=%s data=%s\n", frame.Type, frame.Data)
	}
}

func printMessage(msg proto.Message) {
	from := msg.Sender.Name
	if msg.Sender.DisplayName != "" {
		from = msg.Sender.DisplayName
	}
	body := msg.Text
	if msg.File != nil {
		body = strings.TrimSpace(body + " [file " + msg.File.Name + " " + msg.File.URL + "]")
	}
	switch msg.Type {
	case proto.MessageTypeSystem:
		fmt.Printf("[%s] * %s\n", msg.Timestamp, body)
	case proto.MessageTypePrivate:
		to := ""
		if msg.Recipient != nil {
			to = msg.Recipient.Name
		}
		fmt.Printf("[%s] %s -> %s: %s\n", msg.Timestamp, from, to, body)
	default:
		fmt.Printf("[%s] %s: %s\n", msg.Timestamp, from, body)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, users *presence) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			typ, data, local := parseLine(line)
			if local {
				users.print()
				continue
			}
			if typ == "" {
				continue
			}
			if err := send(ctx, conn, typ, data); err != nil {
				log.Printf("%v", err)
				return
			}
		}
	}
}

// parseLine turns an input line into an inbound frame. local is set for
// commands answered without the server.
func parseLine(line string) (typ string, data any, local bool) {
	text := strings.TrimSpace(line)
	if text == "" {
		return "", nil, false
	}
	if !strings.HasPrefix(text, "/") {
		return proto.InboundTypeSend, proto.SendData{Text: text}, false
	}

	cmd, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "/msg":
		target, body, _ := strings.Cut(rest, " ")
		if target == "" || strings.TrimSpace(body) == "" {
			fmt.Println("usage: /msg <connectionId> <text>")
			return "", nil, false
		}
		return proto.InboundTypeSendPrivate, proto.PrivateData{
			Text:      strings.TrimSpace(body),
			Recipient: proto.Recipient{ConnectionID: target},
		}, false
	case "/kick":
		if rest == "" {
			fmt.Println("usage: /kick <connectionId>")
			return "", nil, false
		}
		return proto.InboundTypeKick, proto.KickData{TargetConnectionID: rest}, false
	case "/ips":
		return proto.InboundTypeListIPs, nil, false
	case "/users":
		return "", nil, true
	default:
		fmt.Printf("unknown command %s\n", cmd)
		return "", nil, false
	}
}
