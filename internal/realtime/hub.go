package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"go.uber.org/zap"
)

const sendBuffer = 256

// Identity is who a connection belongs to.
type Identity struct {
	UserID    uuid.UUID
	Role      domain.UserRole
	CompanyID *uuid.UUID
}

// Client is one websocket connection registered with the hub.
type Client struct {
	ID       uuid.UUID
	Identity Identity
	send     chan []byte
	rooms    map[string]struct{}
}

func NewClient(identity Identity) *Client {
	return &Client{
		ID:       uuid.New(),
		Identity: identity,
		send:     make(chan []byte, sendBuffer),
		rooms:    make(map[string]struct{}),
	}
}

// Send is drained by the connection's write pump. It is closed on unregister.
func (c *Client) Send() <-chan []byte {
	return c.send
}

var ErrForbidden = errors.New("not allowed to access this ticket")

// MessageStore persists support messages before they are relayed.
type MessageStore interface {
	AuthorizeTicket(ticketID uuid.UUID, who Identity) error
	SaveMessage(ticketID uuid.UUID, who Identity, content string) (*Message, error)
}

// Publisher forwards fan-outs to other instances.
type Publisher interface {
	Publish(ctx context.Context, r Routed) error
}

// Routed is a fan-out addressed either to a room or to every client.
type Routed struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room,omitempty"`
	Exclude *uuid.UUID      `json:"exclude,omitempty"`
	Event   json.RawMessage `json:"event"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	store     MessageStore
	publisher Publisher
	onChange  func(delta int)
}

// NewHub creates a relay hub. A nil store makes it a pure relay.
func NewHub(store MessageStore) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		store:   store,
	}
}

func (h *Hub) SetPublisher(p Publisher) {
	h.publisher = p
}

// OnConnectionChange is called with +1 / -1 as clients come and go.
func (h *Hub) OnConnectionChange(fn func(delta int)) {
	h.onChange = fn
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if h.onChange != nil {
		h.onChange(1)
	}
	zap.L().Debug("Relay client connected", zap.String("user_id", c.Identity.UserID.String()))
}

// Unregister drops the client from every room and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	close(c.send)
	h.mu.Unlock()

	if h.onChange != nil {
		h.onChange(-1)
	}
	zap.L().Debug("Relay client disconnected", zap.String("user_id", c.Identity.UserID.String()))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// HandleInbound dispatches one frame read from a client.
func (h *Hub) HandleInbound(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(c, "", "Geçersiz mesaj biçimi")
		return
	}

	switch env.Event {
	case EventJoinSupportRoom:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.sendError(c, env.Event, "Geçersiz veri")
			return
		}
		h.join(c, p)
	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.sendError(c, env.Event, "Geçersiz veri")
			return
		}
		h.sendMessage(c, p)
	case EventTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.typing(c, p)
	default:
		h.sendError(c, env.Event, "Bilinmeyen olay")
	}
}

func (h *Hub) join(c *Client, p JoinPayload) {
	ticketID, err := uuid.Parse(p.TicketID)
	if err != nil {
		h.sendError(c, EventJoinSupportRoom, "Geçersiz destek talebi")
		return
	}
	if h.store != nil {
		if err := h.store.AuthorizeTicket(ticketID, c.Identity); err != nil {
			h.sendError(c, EventJoinSupportRoom, "Bu destek talebine erişiminiz yok")
			return
		}
	}

	room := RoomName(ticketID)
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	h.mu.Unlock()

	h.emit(room, &c.ID, EventUserJoined, UserJoined{
		TicketID: ticketID,
		UserID:   c.Identity.UserID,
		Role:     c.Identity.Role,
	})
}

func (h *Hub) sendMessage(c *Client, p SendMessagePayload) {
	ticketID, err := uuid.Parse(p.TicketID)
	if err != nil {
		h.sendError(c, EventSendMessage, "Geçersiz destek talebi")
		return
	}
	content := strings.TrimSpace(p.Content)
	if content == "" {
		h.sendError(c, EventSendMessage, "Mesaj boş olamaz")
		return
	}

	msg := &Message{
		ID:         uuid.New(),
		TicketID:   ticketID,
		CompanyID:  c.Identity.CompanyID,
		SenderID:   c.Identity.UserID,
		SenderRole: c.Identity.Role,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if h.store != nil {
		stored, err := h.store.SaveMessage(ticketID, c.Identity, content)
		if err != nil {
			zap.L().Warn("Relay message not persisted", zap.String("ticket_id", ticketID.String()), zap.Error(err))
			if errors.Is(err, ErrForbidden) {
				h.sendError(c, EventSendMessage, "Bu destek talebine erişiminiz yok")
			} else {
				h.sendError(c, EventSendMessage, "Mesaj kaydedilemedi")
			}
			return
		}
		msg = stored
	}

	h.relayMessage(msg, &c.ID)
}

// BroadcastMessage relays a message that was already persisted (REST path).
func (h *Hub) BroadcastMessage(msg *Message) {
	h.relayMessage(msg, nil)
}

func (h *Hub) relayMessage(msg *Message, exclude *uuid.UUID) {
	h.emit(RoomName(msg.TicketID), exclude, EventReceiveMessage, msg)
	h.emit("", nil, EventNewMessageNotification, MessageNotification{
		TicketID:   msg.TicketID,
		CompanyID:  msg.CompanyID,
		SenderRole: msg.SenderRole,
		Preview:    preview(msg.Content),
	})

	update := UnreadUpdate{TicketID: msg.TicketID, CompanyID: msg.CompanyID}
	switch msg.SenderRole {
	case domain.RoleCompany:
		h.emit("", nil, EventAdminUnreadUpdate, update)
	case domain.RoleAdmin:
		h.emit("", nil, EventCompanyUnreadUpdate, update)
	}
}

func (h *Hub) typing(c *Client, p TypingPayload) {
	ticketID, err := uuid.Parse(p.TicketID)
	if err != nil {
		return
	}
	room := RoomName(ticketID)
	h.mu.RLock()
	_, joined := c.rooms[room]
	h.mu.RUnlock()
	if !joined {
		return
	}
	h.emit(room, &c.ID, EventUserTyping, UserTyping{
		TicketID: ticketID,
		UserID:   c.Identity.UserID,
		Role:     c.Identity.Role,
		IsTyping: p.IsTyping,
	})
}

func (h *Hub) sendError(c *Client, event, message string) {
	frame, err := json.Marshal(outbound{Event: EventError, Data: ErrorPayload{Event: event, Message: message}})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; ok {
		trySend(c, frame)
	}
}

// emit delivers locally and forwards to other instances. An empty room means every client.
func (h *Hub) emit(room string, exclude *uuid.UUID, event string, data interface{}) {
	frame, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		zap.L().Error("Failed to encode relay event", zap.String("event", event), zap.Error(err))
		return
	}
	r := Routed{Room: room, Exclude: exclude, Event: frame}
	h.Deliver(r)

	if h.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.publisher.Publish(ctx, r); err != nil {
			zap.L().Warn("Failed to publish relay event", zap.String("event", event), zap.Error(err))
		}
	}
}

// Deliver fans a routed frame out to the local clients only.
func (h *Hub) Deliver(r Routed) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.clients
	if r.Room != "" {
		targets = h.rooms[r.Room]
	}
	for c := range targets {
		if r.Exclude != nil && c.ID == *r.Exclude {
			continue
		}
		trySend(c, r.Event)
	}
}

// slow clients miss frames rather than stalling the hub
func trySend(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
	}
}
