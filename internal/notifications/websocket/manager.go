package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"docroute/portal-backend/internal/notifications"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 64
)

// Manager handles WebSocket connections and message routing
type Manager struct {
	connections map[string]*Connection
	mu          sync.RWMutex
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// Connection represents a WebSocket client connection.
// OfficeID is zero for viewers that did not identify an office.
type Connection struct {
	ID           string
	OfficeID     int64
	Conn         *websocket.Conn
	Send         chan notifications.WebSocketMessage
	ConnectedAt  time.Time
	LastActivity time.Time
	UserAgent    string
	IPAddress    string
	mu           sync.Mutex
}

// NewManager creates a new WebSocket manager
func NewManager(logger *zap.Logger, allowedOrigins []string) *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin] || set["*"]
	}
}

// Serve upgrades the request and starts pumping messages
func (m *Manager) Serve(w http.ResponseWriter, r *http.Request) error {
	_, err := m.HandleConnection(w, r)
	return err
}

// HandleConnection handles new WebSocket connections
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	// browsers cannot set headers on the upgrade request, so the query is accepted too
	officeParam := r.Header.Get("X-Office-ID")
	if officeParam == "" {
		officeParam = r.URL.Query().Get("office_id")
	}
	officeID, _ := strconv.ParseInt(officeParam, 10, 64)

	now := time.Now()
	connection := &Connection{
		ID:           uuid.New().String(),
		OfficeID:     officeID,
		Conn:         conn,
		Send:         make(chan notifications.WebSocketMessage, sendBuffer),
		ConnectedAt:  now,
		LastActivity: now,
		UserAgent:    r.Header.Get("User-Agent"),
		IPAddress:    r.RemoteAddr,
	}

	m.mu.Lock()
	m.connections[connection.ID] = connection
	m.mu.Unlock()

	m.logger.Info("Connection registered",
		zap.String("connection_id", connection.ID),
		zap.Int64("office_id", officeID))

	go m.readPump(connection)
	go m.writePump(connection)

	return connection, nil
}

// remove unregisters a connection. Send is closed exactly once, under the
// write lock, so senders holding the read lock never see a closed channel.
func (m *Manager) remove(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.connections[conn.ID]; !ok {
		return
	}
	delete(m.connections, conn.ID)
	close(conn.Send)
	m.logger.Info("Connection unregistered",
		zap.String("connection_id", conn.ID),
		zap.Int64("office_id", conn.OfficeID))
}

// readPump reads client messages until the connection drops
func (m *Manager) readPump(conn *Connection) {
	defer func() {
		m.remove(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(maxMessageSize)
	conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg notifications.WebSocketMessage
		if err := conn.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Warn("websocket read failed", zap.String("connection_id", conn.ID), zap.Error(err))
			}
			return
		}

		conn.mu.Lock()
		conn.LastActivity = time.Now()
		conn.mu.Unlock()

		m.handleMessage(conn, &msg)
	}
}

// writePump writes queued messages and keeps the connection alive
func (m *Manager) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (m *Manager) handleMessage(conn *Connection, msg *notifications.WebSocketMessage) {
	switch msg.Type {
	case notifications.WSMessageTypePresence:
		m.enqueue(conn, notifications.WebSocketMessage{
			Type:      notifications.WSMessageTypeStatus,
			Data:      map[string]interface{}{"status": "connected", "connection_id": conn.ID},
			Timestamp: time.Now(),
			Channel:   notifications.ChannelPrivate,
			Target:    conn.ID,
		})
	default:
		m.logger.Debug("Unknown message type", zap.String("type", msg.Type))
	}
}

func (m *Manager) enqueue(conn *Connection, message notifications.WebSocketMessage) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.connections[conn.ID]; !ok {
		return false
	}
	select {
	case conn.Send <- message:
		return true
	default:
		return false
	}
}

// Broadcast sends a message to all connected viewers.
// Viewers with a full buffer miss the message; the next poll catches them up.
func (m *Manager) Broadcast(message notifications.WebSocketMessage) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent := 0
	for _, conn := range m.connections {
		select {
		case conn.Send <- message:
			sent++
		default:
			m.logger.Warn("connection buffer full, dropping message", zap.String("connection_id", conn.ID))
		}
	}
	return sent
}

// SendToOffice sends a message to every connection of one office
func (m *Manager) SendToOffice(officeID int64, message notifications.WebSocketMessage) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	message.Channel = notifications.ChannelOffice
	message.Target = strconv.FormatInt(officeID, 10)

	found := 0
	sent := 0
	for _, conn := range m.connections {
		if conn.OfficeID != officeID {
			continue
		}
		found++
		select {
		case conn.Send <- message:
			sent++
		default:
		}
	}

	if found == 0 {
		return fmt.Errorf("office %d has no open connections", officeID)
	}
	if sent == 0 {
		return fmt.Errorf("office %d connection buffers are full", officeID)
	}
	return nil
}

// Publish broadcasts a refresh event to every viewer
func (m *Manager) Publish(ctx context.Context, event notifications.RefreshEvent) error {
	sent := m.Broadcast(event.Message())
	m.logger.Debug("refresh event broadcast",
		zap.String("event_id", event.ID),
		zap.Int64("version_id", event.VersionID),
		zap.Int("connections", sent))
	return nil
}

// ConnectedOffices returns the distinct identified offices with open connections
func (m *Manager) ConnectedOffices() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int64]bool)
	var ids []int64
	for _, conn := range m.connections {
		if conn.OfficeID == 0 || seen[conn.OfficeID] {
			continue
		}
		seen[conn.OfficeID] = true
		ids = append(ids, conn.OfficeID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GetConnectionCount returns the number of active connections
func (m *Manager) GetConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// ConnectionInfo represents connection information for monitoring
type ConnectionInfo struct {
	ConnectionID string    `json:"connection_id"`
	OfficeID     int64     `json:"office_id"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastActivity time.Time `json:"last_activity"`
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address"`
}

// GetConnectionInfo returns information about all active connections
func (m *Manager) GetConnectionInfo() []ConnectionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := make([]ConnectionInfo, 0, len(m.connections))
	for _, conn := range m.connections {
		conn.mu.Lock()
		info = append(info, ConnectionInfo{
			ConnectionID: conn.ID,
			OfficeID:     conn.OfficeID,
			ConnectedAt:  conn.ConnectedAt,
			LastActivity: conn.LastActivity,
			UserAgent:    conn.UserAgent,
			IPAddress:    conn.IPAddress,
		})
		conn.mu.Unlock()
	}
	return info
}

// Close closes the WebSocket manager and all connections
func (m *Manager) Close() {
	m.mu.RLock()
	conns := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		conns = append(conns, conn)
	}
	m.mu.RUnlock()

	// read pumps notice the closed sockets and unregister themselves
	for _, conn := range conns {
		conn.Conn.Close()
	}
}
