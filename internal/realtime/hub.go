package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"overseas-housing/internal/domain"
)

// Subscriber es una sesión capaz de recibir frames. *Connection la implementa.
type Subscriber interface {
	ID() string
	UserID() string
	Send(payload []byte) error
	Close(code int, reason string)
}

// MessageFrame es el frame que reciben los miembros de una sala por cada mensaje nuevo.
type MessageFrame struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

// Hub mantiene las salas (una por conversación) del proceso actual.
type Hub struct {
	logger *zap.Logger

	mu           sync.RWMutex
	sessions     map[string]Subscriber            // sessionID -> subscriber
	rooms        map[string]map[string]Subscriber // conversationID -> sessionID -> subscriber
	sessionRooms map[string]map[string]struct{}   // sessionID -> conversationIDs
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:       logger,
		sessions:     make(map[string]Subscriber),
		rooms:        make(map[string]map[string]Subscriber),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registra una sesión autenticada. Un usuario puede tener varias sesiones abiertas.
func (h *Hub) Attach(sub Subscriber) {
	h.mu.Lock()
	h.sessions[sub.ID()] = sub
	if _, ok := h.sessionRooms[sub.ID()]; !ok {
		h.sessionRooms[sub.ID()] = make(map[string]struct{})
	}
	h.mu.Unlock()
}

// Detach elimina la sesión y todas sus membresías.
func (h *Hub) Detach(sub Subscriber) {
	h.mu.Lock()
	h.detachLocked(sub.ID())
	h.mu.Unlock()
}

// Join suscribe la sesión a la sala. Es idempotente y no hace nada si la sesión no está registrada.
func (h *Hub) Join(conversationID string, sub Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[sub.ID()]; !ok {
		return false
	}

	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]Subscriber)
		h.rooms[conversationID] = room
	}
	room[sub.ID()] = sub

	memberships := h.sessionRooms[sub.ID()]
	if memberships == nil {
		memberships = make(map[string]struct{})
		h.sessionRooms[sub.ID()] = memberships
	}
	memberships[conversationID] = struct{}{}
	return true
}

func (h *Hub) Leave(conversationID string, sub Subscriber) {
	h.mu.Lock()
	h.leaveLocked(conversationID, sub.ID())
	h.mu.Unlock()
}

// Broadcast entrega payload a cada sesión de la sala y devuelve cuántas lo aceptaron.
// El lock no se mantiene mientras se escribe a las sesiones.
func (h *Hub) Broadcast(conversationID string, payload []byte) int {
	h.mu.RLock()
	room := h.rooms[conversationID]
	targets := make([]Subscriber, 0, len(room))
	for _, sub := range room {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		if err := sub.Send(payload); err != nil {
			h.logger.Debug("drop frame for session",
				zap.String("session_id", sub.ID()),
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}

// PublishMessage difunde msg a la sala de su conversación.
func (h *Hub) PublishMessage(_ context.Context, msg domain.Message) {
	h.deliver(msg)
}

func (h *Hub) deliver(msg domain.Message) int {
	payload, err := json.Marshal(MessageFrame{Type: "message", Message: msg})
	if err != nil {
		h.logger.Error("encode message frame", zap.String("message_id", msg.ID), zap.Error(err))
		return 0
	}
	delivered := h.Broadcast(msg.ConversationID, payload)
	h.logger.Debug("message fan-out",
		zap.String("conversation_id", msg.ConversationID),
		zap.String("message_id", msg.ID),
		zap.Int("delivered", delivered),
	)
	return delivered
}

func (h *Hub) RoomSize(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// Close cierra todas las sesiones y limpia el estado.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]Subscriber, 0, len(h.sessions))
	for _, sub := range h.sessions {
		subs = append(subs, sub)
	}
	h.sessions = make(map[string]Subscriber)
	h.rooms = make(map[string]map[string]Subscriber)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close(websocket.CloseGoingAway, "server shutdown")
	}
}

func (h *Hub) detachLocked(sessionID string) {
	if _, ok := h.sessions[sessionID]; !ok {
		return
	}
	delete(h.sessions, sessionID)
	for roomID := range h.sessionRooms[sessionID] {
		h.leaveLocked(roomID, sessionID)
	}
	delete(h.sessionRooms, sessionID)
}

func (h *Hub) leaveLocked(conversationID, sessionID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	if memberships, ok := h.sessionRooms[sessionID]; ok {
		delete(memberships, conversationID)
	}
}
