package handler

import (
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/realtime"
	"go.uber.org/zap"
)

const (
	identityKey  = "relay_identity"
	pingInterval = 30 * time.Second
	pongWait     = 70 * time.Second
	maxFrameSize = 16 * 1024
)

type WebSocketHandler struct {
	hub     *realtime.Hub
	authMW  *middleware.AuthMiddleware
	origins map[string]struct{}
}

// NewWebSocketHandler accepts browser origins from the CORS allow-list. "*" allows any origin.
func NewWebSocketHandler(hub *realtime.Hub, authMW *middleware.AuthMiddleware, allowedOrigins []string) *WebSocketHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	return &WebSocketHandler{hub: hub, authMW: authMW, origins: origins}
}

func (h *WebSocketHandler) originAllowed(origin string) bool {
	if origin == "" {
		return true // non-browser clients
	}
	if _, ok := h.origins["*"]; ok {
		return true
	}
	_, ok := h.origins[strings.TrimSuffix(origin, "/")]
	return ok
}

// Upgrade authenticates the request before the protocol switch.
func (h *WebSocketHandler) Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if !h.originAllowed(c.Get(fiber.HeaderOrigin)) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse("FORBIDDEN_ORIGIN", "Bu kaynaktan bağlantıya izin verilmiyor"))
		}

		session := h.authMW.Resolve(c)
		if session == nil {
			session = h.authMW.ResolveToken(c.Query("token"))
		}
		if session == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Oturum açmanız gerekiyor"))
		}

		c.Locals(identityKey, realtime.Identity{
			UserID:    session.UserID,
			Role:      session.Role,
			CompanyID: session.CompanyID,
		})
		return c.Next()
	}
}

// Handle serves one upgraded connection until it closes.
func (h *WebSocketHandler) Handle() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		who, ok := conn.Locals(identityKey).(realtime.Identity)
		if !ok {
			_ = conn.Close()
			return
		}

		client := realtime.NewClient(who)
		h.hub.Register(client)

		done := make(chan struct{})
		go h.writePump(conn, client, done)
		h.readPump(conn, client)
		<-done
	})
}

func (h *WebSocketHandler) readPump(conn *websocket.Conn, client *realtime.Client) {
	defer h.hub.Unregister(client)

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("Relay read failed", zap.String("client_id", client.ID.String()), zap.Error(err))
			}
			return
		}
		h.hub.HandleInbound(client, frame)
	}
}

// writePump exits when the hub closes the send channel or a write fails.
func (h *WebSocketHandler) writePump(conn *websocket.Conn, client *realtime.Client, done chan<- struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case frame, ok := <-client.Send():
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
