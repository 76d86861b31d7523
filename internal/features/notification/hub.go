package notification

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Hub is the in-app delivery sink: it tracks websocket connections per user
// and pushes activated reminders to whoever is connected. A user with no
// connection simply sees the record through the feed API later.
type Hub struct {
	log *zap.Logger

	mu    sync.RWMutex
	conns map[primitive.ObjectID]map[*websocket.Conn]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:   log,
		conns: make(map[primitive.ObjectID]map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Register(userID primitive.ObjectID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

func (h *Hub) Unregister(userID primitive.ObjectID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Push writes the notification to every open connection of the user. Broken
// connections are dropped from the registry; their close is handled by the
// read loop in the controller.
func (h *Hub) Push(userID primitive.ObjectID, n *Notification) error {
	h.mu.RLock()
	set := h.conns[userID]
	targets := make([]*websocket.Conn, 0, len(set))
	for conn := range set {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	var lastErr error
	for _, conn := range targets {
		if err := conn.WriteJSON(n); err != nil {
			h.log.Warn("websocket write failed",
				zap.String("user_id", userID.Hex()), zap.Error(err))
			h.Unregister(userID, conn)
			lastErr = err
		}
	}
	return lastErr
}
