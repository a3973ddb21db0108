package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/partyline/internal/auth"
	"github.com/vovakirdan/partyline/internal/config"
	"github.com/vovakirdan/partyline/internal/core"
	"github.com/vovakirdan/partyline/internal/metrics"
	"github.com/vovakirdan/partyline/internal/proto"
	"github.com/vovakirdan/partyline/internal/store/sqlite"
)

type testEnv struct {
	ts   *httptest.Server
	hub  *core.Hub
	auth *auth.Service
	cfg  config.Config
}

func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.UploadDir = t.TempDir()
	cfg.JWTSecret = "test-secret"
	cfg.TrustForwardedFor = true
	return cfg
}

// createTestAuthService creates an auth service over an in-memory store.
func createTestAuthService(t *testing.T, jwtSecret string, opts ...auth.Option) *auth.Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}, opts...)
}

func startTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig(t)
	if mutate != nil {
		mutate(&cfg)
	}

	authService := createTestAuthService(t, cfg.JWTSecret, auth.WithReservedNames(cfg.AdminName))
	hub := core.NewHub(
		core.WithTokenVerifier(authService, cfg.AuthRequired),
		core.WithPolicy(core.ReservedAdminPolicy(cfg.AdminName, cfg.AdminDisplayName)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	disabledLogger := zerolog.Nop()
	server := NewServer(hub, authService, metrics.New().Handler(), &cfg, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, hub: hub, auth: authService, cfg: cfg}
}

type frame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error,omitempty"`
}

type wsClient struct {
	t      *testing.T
	ctx    context.Context
	conn   *websocket.Conn
	connID string
}

// dial opens a websocket and consumes the session frame.
func (e *testEnv) dial(t *testing.T, header map[string]string) *wsClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	opts := &websocket.DialOptions{HTTPHeader: map[string][]string{}}
	for k, v := range header {
		opts.HTTPHeader.Set(k, v)
	}

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, opts)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	c := &wsClient{t: t, ctx: ctx, conn: conn}
	var session proto.Session
	c.decode(c.next(proto.OutboundTypeSession), &session)
	if session.ConnectionID == "" || session.Protocol != proto.ProtocolVersion {
		t.Fatalf("unexpected session: %+v", session)
	}
	c.connID = session.ConnectionID
	return c
}

func (c *wsClient) send(typ string, data any) {
	c.t.Helper()

	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			c.t.Fatalf("marshal %s: %v", typ, err)
		}
		raw = payload
	}
	if err := wsjson.Write(c.ctx, c.conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
		c.t.Fatalf("send %s: %v", typ, err)
	}
}

// next reads frames until one of the given type arrives.
func (c *wsClient) next(typ string) frame {
	c.t.Helper()
	return c.nextMatch(func(f frame) bool { return f.Type == typ })
}

func (c *wsClient) nextMatch(match func(frame) bool) frame {
	c.t.Helper()

	for {
		var f frame
		if err := wsjson.Read(c.ctx, c.conn, &f); err != nil {
			c.t.Fatalf("read frame: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

// nextMessage reads until a new_message whose text contains substr.
func (c *wsClient) nextMessage(substr string) proto.Message {
	c.t.Helper()

	var msg proto.Message
	c.nextMatch(func(f frame) bool {
		if f.Type != proto.OutboundTypeMessage {
			return false
		}
		msg = proto.Message{}
		c.decode(f, &msg)
		return strings.Contains(msg.Text, substr)
	})
	return msg
}

// join sends join_group and waits for a presence list containing this connection.
func (c *wsClient) join(name, token string) []proto.User {
	c.t.Helper()

	c.send(proto.InboundTypeJoin, proto.JoinData{Name: name, AuthToken: token})
	var users []proto.User
	c.nextMatch(func(f frame) bool {
		if f.Type != proto.OutboundTypeUsers {
			return false
		}
		users = nil
		c.decode(f, &users)
		for _, u := range users {
			if u.ConnectionID == c.connID {
				return true
			}
		}
		return false
	})
	return users
}

func (c *wsClient) decode(f frame, v any) {
	c.t.Helper()
	if err := json.Unmarshal(f.Data, v); err != nil {
		c.t.Fatalf("decode %s: %v", f.Type, err)
	}
}

// expectClosed reads until the server closes the connection.
func (c *wsClient) expectClosed() {
	c.t.Helper()

	for {
		var f frame
		if err := wsjson.Read(c.ctx, c.conn, &f); err != nil {
			return
		}
	}
}
