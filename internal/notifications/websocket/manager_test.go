package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docroute/portal-backend/internal/notifications"
)

func startHub(t *testing.T, allowed []string) (*Manager, string) {
	t.Helper()
	m := NewManager(zap.NewNop(), allowed)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = m.Serve(w, r)
	}))
	t.Cleanup(func() {
		m.Close()
		srv.Close()
	})
	return m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) notifications.WebSocketMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg notifications.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestManager_RoutesByOffice(t *testing.T) {
	m, url := startHub(t, nil)

	finance := dial(t, url+"?office_id=4", nil)
	registrar := dial(t, url, http.Header{"X-Office-ID": []string{"12"}})
	anonymous := dial(t, url, nil)

	require.Eventually(t, func() bool { return m.GetConnectionCount() == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{4, 12}, m.ConnectedOffices())

	require.NoError(t, m.SendToOffice(4, notifications.WebSocketMessage{
		Type: notifications.WSMessageTypeUnreadCount,
		Data: map[string]interface{}{"count": 2},
	}))
	msg := readMessage(t, finance)
	assert.Equal(t, notifications.WSMessageTypeUnreadCount, msg.Type)
	assert.Equal(t, notifications.ChannelOffice, msg.Channel)
	assert.Equal(t, "4", msg.Target)
	assert.Equal(t, float64(2), msg.Data["count"])

	assert.Error(t, m.SendToOffice(99, notifications.WebSocketMessage{Type: notifications.WSMessageTypeUnreadCount}))

	office := int64(4)
	require.NoError(t, m.Publish(context.Background(), notifications.RefreshEvent{ID: "e1", VersionID: 10, OfficeID: &office}))
	for _, conn := range []*websocket.Conn{finance, registrar, anonymous} {
		msg := readMessage(t, conn)
		assert.Equal(t, notifications.WSMessageTypeRefresh, msg.Type)
		assert.Equal(t, float64(10), msg.Data["version_id"])
	}
}

func TestManager_PresenceReply(t *testing.T) {
	m, url := startHub(t, nil)
	conn := dial(t, url+"?office_id=3", nil)
	require.Eventually(t, func() bool { return m.GetConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(notifications.WebSocketMessage{Type: notifications.WSMessageTypePresence}))

	msg := readMessage(t, conn)
	assert.Equal(t, notifications.WSMessageTypeStatus, msg.Type)
	assert.Equal(t, notifications.ChannelPrivate, msg.Channel)
	assert.Equal(t, "connected", msg.Data["status"])

	info := m.GetConnectionInfo()
	require.Len(t, info, 1)
	assert.Equal(t, int64(3), info[0].OfficeID)
}

func TestManager_DisconnectUnregisters(t *testing.T) {
	m, url := startHub(t, nil)
	conn := dial(t, url+"?office_id=4", nil)
	require.Eventually(t, func() bool { return m.GetConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return m.GetConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, m.ConnectedOffices())
	assert.Equal(t, 0, m.Broadcast(notifications.WebSocketMessage{Type: notifications.WSMessageTypeRefresh}))
}

func TestManager_RejectsUnknownOrigin(t *testing.T) {
	_, url := startHub(t, []string{"https://portal.example.edu"})

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, url, http.Header{"Origin": []string{"https://portal.example.edu"}})
	assert.NotNil(t, conn)
}
