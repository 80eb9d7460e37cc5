package providers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/orchestra-mcp/chat/config"
	"github.com/orchestra-mcp/chat/src/hub"
	"github.com/orchestra-mcp/chat/src/types"
	"github.com/valyala/fasthttp"
)

// WebSocketPath is where clients open the chat connection.
const WebSocketPath = "/ws"

// Handler serves WebSocket upgrades at WebSocketPath and everything else
// through app.
func (p *ChatPlugin) Handler(app *fiber.App) fasthttp.RequestHandler {
	ws := p.FastHTTPHandler()
	rest := app.Handler()
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == WebSocketPath {
			ws(ctx)
			return
		}
		rest(ctx)
	}
}

// FastHTTPHandler returns a raw fasthttp handler for WebSocket upgrades.
// Fiber v3 does not expose the hijackable *fasthttp.RequestCtx, so the
// upgrade runs in front of the Fiber app.
func (p *ChatPlugin) FastHTTPHandler() fasthttp.RequestHandler {
	sc := p.cfg.Socket
	upgrader := websocket.FastHTTPUpgrader{
		ReadBufferSize:  sc.ReadBufferSize,
		WriteBufferSize: sc.WriteBufferSize,
		CheckOrigin:     originChecker(sc.AllowedOrigins),
	}

	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}
		if sc.MaxConnections > 0 && p.conns.Load() >= int64(sc.MaxConnections) {
			p.logger.Warn().Int("max_connections", sc.MaxConnections).Msg("connection limit reached")
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{"error":"too_many_connections","message":"Connection limit reached"}`)
			return
		}

		clientID := uuid.New().String()
		cred := credentialFromQuery(ctx)
		engine := p.engine
		logger := p.logger

		err := upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			p.conns.Add(1)
			defer p.conns.Add(-1)

			client := hub.NewClient(clientID, newFastHTTPConn(conn, sc), engine, sc.SendBuffer, logger)
			if err := engine.Connect(client, cred); err != nil {
				logger.Warn().Err(err).Str("client_id", clientID).Msg("room rejected connection")
				conn.Close()
				return
			}
			go client.WritePump(sc.PingInterval)
			client.ReadPump()
		})
		if err != nil {
			logger.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}

// credentialFromQuery lets clients authenticate while connecting with
// ?token=... or ?name=...
func credentialFromQuery(ctx *fasthttp.RequestCtx) *types.Credential {
	args := ctx.QueryArgs()
	cred := types.Credential{
		Token: string(args.Peek("token")),
		Name:  string(args.Peek("name")),
	}
	if cred.Token == "" && cred.Name == "" {
		return nil
	}
	return &cred
}

// originChecker accepts any origin when allowed is empty. Requests without
// an Origin header come from non-browser clients and are accepted.
func originChecker(allowed []string) func(ctx *fasthttp.RequestCtx) bool {
	return func(ctx *fasthttp.RequestCtx) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := string(ctx.Request.Header.Peek("Origin"))
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// fasthttpConn wraps fasthttp/websocket.Conn to satisfy types.Conn.
type fasthttpConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	pongWait     time.Duration
}

func newFastHTTPConn(conn *websocket.Conn, cfg config.SocketConfig) *fasthttpConn {
	f := &fasthttpConn{conn: conn, writeTimeout: cfg.WriteTimeout, pongWait: cfg.PongWait()}
	if cfg.MaxFrameBytes > 0 {
		conn.SetReadLimit(cfg.MaxFrameBytes)
	}
	f.extendRead()
	conn.SetPongHandler(func(string) error {
		f.extendRead()
		return nil
	})
	return f
}

func (f *fasthttpConn) extendRead() {
	if f.pongWait > 0 {
		_ = f.conn.SetReadDeadline(time.Now().Add(f.pongWait))
	}
}

func (f *fasthttpConn) deadline() time.Time {
	if f.writeTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(f.writeTimeout)
}

func (f *fasthttpConn) WriteJSON(v any) error {
	if err := f.conn.SetWriteDeadline(f.deadline()); err != nil {
		return err
	}
	return f.conn.WriteJSON(v)
}

// ReadJSON returns the next text frame that decodes into v. Binary frames
// and frames that are not valid JSON are skipped.
func (f *fasthttpConn) ReadJSON(v any) error {
	for {
		kind, data, err := f.conn.ReadMessage()
		if err != nil {
			return err
		}
		f.extendRead()
		if kind != websocket.TextMessage {
			continue
		}
		if err := json.Unmarshal(data, v); err != nil {
			continue
		}
		return nil
	}
}

func (f *fasthttpConn) Ping() error {
	return f.conn.WriteControl(websocket.PingMessage, nil, f.deadline())
}

// Close sends a close frame when possible and closes the connection.
func (f *fasthttpConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = f.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return f.conn.Close()
}
