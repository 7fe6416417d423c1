// Package hub implements the room-keyed publish/subscribe layer spectators
// connect to over a persistent websocket, grounded on the teacher pack's
// lobby websocket hub (spec §4.7).
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event types emitted into a room.
const (
	EventBattleStart     = "battle:start"
	EventBattleLog       = "battle:log"
	EventBattleDominance = "battle:dominance"
	EventBattleCountdown = "battle:countdown"
	EventBattleEnd       = "battle:end"
)

// DefaultLogInterval is the pacing interval for battle:log emission when
// BATTLE_LOG_INTERVAL_MS is unset (spec §6).
const DefaultLogInterval = 700 * time.Millisecond

// MinLogInterval and MaxLogInterval bound BATTLE_LOG_INTERVAL_MS (spec §6).
const (
	MinLogInterval = 500 * time.Millisecond
	MaxLogInterval = 1000 * time.Millisecond
)

// Message is the wire envelope for every event the hub sends.
type Message struct {
	Type      string          `json:"type"`
	Room      string          `json:"room"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// Subscriber is anything the hub can push a Message to — satisfied by Conn,
// this package's websocket connection wrapper, and by a fake struct in
// tests.
type Subscriber interface {
	ID() uuid.UUID
	Send(msg *Message) bool
}

// TokenValidator authenticates a subscriber's session token before it is
// allowed to join a room (spec §4.7 "Authentication").
type TokenValidator interface {
	ValidateToken(token string) (userID string, ok bool)
}

// Hub holds one membership set per room behind a single lock, the pattern
// spec §9 prescribes to keep the socket primitive simple.
type Hub struct {
	mu        sync.RWMutex
	rooms     map[string]map[uuid.UUID]Subscriber
	validator TokenValidator
	log       *logrus.Entry
}

// Room returns the room key for an external battle id (spec §4.7 "Rooms").
func Room(externalBattleID string) string {
	return "battle:" + externalBattleID
}

// New builds an empty Hub. validator may be nil in contexts (tests, local
// development) where subscriber authentication is not exercised.
func New(validator TokenValidator) *Hub {
	return &Hub{
		rooms:     make(map[string]map[uuid.UUID]Subscriber),
		validator: validator,
		log:       logrus.WithField("component", "event-hub"),
	}
}

// Join authenticates token and, if valid, adds sub to room. It reports
// whether the join succeeded.
func (h *Hub) Join(room, token string, sub Subscriber) bool {
	if h.validator != nil {
		if _, ok := h.validator.ValidateToken(token); !ok {
			return false
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[uuid.UUID]Subscriber)
		h.rooms[room] = members
	}
	members[sub.ID()] = sub
	return true
}

// Leave removes sub from room, pruning the room if it becomes empty.
func (h *Hub) Leave(room string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, sub.ID())
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// LeaveAll removes sub from every room it belongs to, used on disconnect.
func (h *Hub) LeaveAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		if _, ok := members[sub.ID()]; ok {
			delete(members, sub.ID())
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// MemberCount reports how many subscribers are currently in room.
func (h *Hub) MemberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publish broadcasts payload, marshaled to JSON, to every subscriber of
// room. Delivery is best-effort: a subscriber whose Send reports false
// (e.g. a full buffer) is logged and skipped, never blocking the others
// (spec §4.7 "Delivery. Best-effort, no replay").
func (h *Hub) Publish(room, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).WithField("room", room).Error("marshal event payload")
		return
	}
	msg := &Message{Type: eventType, Room: room, Payload: body, Timestamp: time.Now().UnixMilli()}

	h.mu.RLock()
	members := make([]Subscriber, 0, len(h.rooms[room]))
	for _, sub := range h.rooms[room] {
		members = append(members, sub)
	}
	h.mu.RUnlock()

	for _, sub := range members {
		if !sub.Send(msg) {
			h.log.WithField("room", room).Warn("subscriber send buffer full, dropping")
		}
	}
}
