package realtime

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habboverify/internal/services"
)

func newStreamServer(t *testing.T, hub *EventHub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := hub.Upgrade(w, r)
		if err != nil {
			return
		}
		hub.Register(conn)
		_ = conn.Run()
		hub.Unregister(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialStream(srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
}

func waitStreams(t *testing.T, hub *EventHub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Len() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestEventHubBroadcast(t *testing.T) {
	hub := NewEventHub(nil)
	srv := newStreamServer(t, hub)

	client, _, err := dialStream(srv, "")
	require.NoError(t, err)
	defer client.Close()
	waitStreams(t, hub, 1)

	require.NoError(t, hub.Notify(context.Background(), services.Event{Kind: services.EventVerified, UserID: "1", Habbo: "Alice"}))

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev services.Event
	require.NoError(t, client.ReadJSON(&ev))
	assert.Equal(t, services.EventVerified, ev.Kind)
	assert.Equal(t, "Alice", ev.Habbo)
}

func TestEventHubForgetsClosedClients(t *testing.T) {
	hub := NewEventHub(nil)
	srv := newStreamServer(t, hub)

	client, _, err := dialStream(srv, "")
	require.NoError(t, err)
	defer client.Close()
	waitStreams(t, hub, 1)

	require.NoError(t, client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	waitStreams(t, hub, 0)
}

func TestUnregisterSendsCloseFrame(t *testing.T) {
	hub := NewEventHub(nil)
	srv := newStreamServer(t, hub)

	client, _, err := dialStream(srv, "")
	require.NoError(t, err)
	defer client.Close()
	waitStreams(t, hub, 1)

	hub.mu.RLock()
	var conn *Conn
	for c := range hub.conns {
		conn = c
	}
	hub.mu.RUnlock()
	hub.Unregister(conn)

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestEventHubDropsStreamsThatFallBehind(t *testing.T) {
	hub := NewEventHub(nil)
	hub.Register(newConn(nil))

	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, hub.Notify(context.Background(), services.Event{Kind: services.EventReset}))
	}
	err := hub.Notify(context.Background(), services.Event{Kind: services.EventReset})
	assert.ErrorIs(t, err, errStreamBehind)
	assert.Zero(t, hub.Len())
}

func TestUpgradeChecksOrigin(t *testing.T) {
	hub := NewEventHub([]string{"https://ops.example.com/"})
	srv := newStreamServer(t, hub)

	_, resp, err := dialStream(srv, "https://evil.example.com")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	client, _, err := dialStream(srv, "https://OPS.example.com")
	require.NoError(t, err)
	client.Close()

	sameHost := newStreamServer(t, NewEventHub(nil))
	_, resp, err = dialStream(sameHost, "https://evil.example.com")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpgradeRejectsPlainRequests(t *testing.T) {
	srv := newStreamServer(t, NewEventHub(nil))

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStreamRejectsUnmaskedClientFrames(t *testing.T) {
	hub := NewEventHub(nil)
	srv := newStreamServer(t, hub)

	raw, err := net.Dial("tcp", srv.Listener.Addr().String())
	require.NoError(t, err)
	defer raw.Close()
	_, err = io.WriteString(raw, "GET / HTTP/1.1\r\nHost: "+srv.Listener.Addr().String()+"\r\n"+
		"Upgrade: websocket\r\nConnection: Upgrade\r\n"+
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\nSec-WebSocket-Version: 13\r\n\r\n")
	require.NoError(t, err)

	br := bufio.NewReader(raw)
	resp, err := http.ReadResponse(br, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", resp.Header.Get("Sec-WebSocket-Accept"))

	// text frame "hi" without the mask bit
	_, err = raw.Write([]byte{0x81, 0x02, 'h', 'i'})
	require.NoError(t, err)

	_ = raw.SetReadDeadline(time.Now().Add(2 * time.Second))
	var header [2]byte
	_, err = io.ReadFull(br, header[:])
	require.NoError(t, err)
	assert.Equal(t, byte(websocket.CloseMessage), header[0]&0x0F)
	payload := make([]byte, int(header[1]&0x7F))
	_, err = io.ReadFull(br, payload)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(payload), 2)
	assert.Equal(t, uint16(websocket.CloseProtocolError), binary.BigEndian.Uint16(payload[:2]))

	waitStreams(t, hub, 0)
}
