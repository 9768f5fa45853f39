package liveview

import (
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func waitForViewers(t *testing.T, s *Server, n int) {
	assert.Eventually(t, func() bool {
		return s.Viewers() == n
	}, 3*time.Second, 10*time.Millisecond)
}

func TestBroadcastWithoutViewer(t *testing.T) {
	s := NewServer()
	assert.Equal(t, 0, s.Viewers())
	assert.NoError(t, s.Broadcast([]byte(`{}`)))
}

func TestBroadcast(t *testing.T) {
	s := NewServer()
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitForViewers(t, s, 1)

	require.NoError(t, s.Broadcast([]byte(`{"values":{"gear":"R"}}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.Equal(t, `{"values":{"gear":"R"}}`, string(data))
}

func TestNewViewerReplacesPrevious(t *testing.T) {
	s := NewServer()
	srv := httptest.NewServer(s)
	defer srv.Close()

	first := dial(t, srv)
	defer first.Close()
	waitForViewers(t, s, 1)

	second := dial(t, srv)
	defer second.Close()

	// the first viewer is closed by the server once the second attaches
	require.NoError(t, first.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	waitForViewers(t, s, 1)
	require.NoError(t, s.Broadcast([]byte(`1`)))
	require.NoError(t, second.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := second.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestViewerDetachesOnClose(t *testing.T) {
	s := NewServer()
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv)
	waitForViewers(t, s, 1)
	require.NoError(t, conn.Close())
	waitForViewers(t, s, 0)
	assert.NoError(t, s.Broadcast([]byte(`{}`)))
}

func TestPlainRequestRejected(t *testing.T) {
	s := NewServer()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUpgradeRequired, rec.Code)
	assert.Equal(t, 0, s.Viewers())
}

func TestClose(t *testing.T) {
	s := NewServer()
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitForViewers(t, s, 1)
	assert.NoError(t, s.Close())
	assert.Equal(t, 0, s.Viewers())
}
