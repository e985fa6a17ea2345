package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
)

// Client roles
const (
	RoleCashier = "cashier"
	RoleManager = "manager"
	RoleKitchen = "kitchen"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung semua client websocket (kasir, dapur, manajer) dan
// menyiarkan notifikasi order ke mereka
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

// RegisterClient -> menambahkan connection dengan role
func (h *Hub) RegisterClient(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
	utils.InfoLogger.Printf("KDS client connected (role=%s, total=%d)", role, len(h.clients))
}

// UnregisterClient -> melepaskan connection
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Notify implements the order service's notifier. The kitchen only
// receives tickets and cancellations.
func (h *Hub) Notify(n models.Notification) {
	h.broadcast(Message{Event: n.Event, Data: n}, func(role string) bool {
		if role != RoleKitchen {
			return true
		}
		return n.Event == models.NotificationKitchenTicket || n.Event == models.NotificationOrderCancelled
	})
}

// BroadcastMessage -> broadcast pesan umum ke semua client
func (h *Hub) BroadcastMessage(msg Message) {
	h.broadcast(msg, nil)
}

func (h *Hub) broadcast(msg Message, accept func(role string) bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, role := range h.clients {
		if accept != nil && !accept(role) {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to %s client, dropping it: %v", msg.Event, role, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
