// Package liveview pushes every telemetry record to the dashboard over a
// websocket. Only the most recently attached viewer receives records.
package liveview

import (
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net/http"
	"sync"
	"time"
)

const writeTimeout = time.Second

type viewer struct {
	conn      *websocket.Conn
	closeOnce sync.Once
}

func (v *viewer) close() {
	v.closeOnce.Do(func() {
		_ = v.conn.Close()
	})
}

type Server struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	viewer *viewer
}

func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool {
				// the dashboard may be served from any host on the LAN
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// ServeHTTP attaches the caller as the viewer, replacing any previous one.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusUpgradeRequired)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithField("err", err).Warn("unable to upgrade live view connection")
		return
	}
	v := &viewer{conn: conn}

	s.mu.Lock()
	prev := s.viewer
	s.viewer = v
	s.mu.Unlock()
	if prev != nil {
		prev.close()
	}
	log.WithField("remote", r.RemoteAddr).Info("live view attached")

	go s.readPump(v)
}

// readPump consumes control frames and detaches the viewer once the
// connection goes away.
func (s *Server) readPump(v *viewer) {
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			s.detach(v)
			log.WithField("remote", v.conn.RemoteAddr()).Info("live view detached")
			return
		}
	}
}

func (s *Server) detach(v *viewer) {
	s.mu.Lock()
	if s.viewer == v {
		s.viewer = nil
	}
	s.mu.Unlock()
	v.close()
}

// Viewers is 1 while a viewer is attached and 0 otherwise.
func (s *Server) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewer == nil {
		return 0
	}
	return 1
}

// Broadcast sends payload as a text frame. Without a viewer it does nothing.
func (s *Server) Broadcast(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.viewer
	if v == nil {
		return nil
	}
	if err := v.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.Wrap(err, "unable to set write deadline")
	}
	if err := v.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.viewer = nil
		v.close()
		return errors.Wrap(err, "unable to write to live view")
	}
	return nil
}

// Close detaches the current viewer.
func (s *Server) Close() error {
	s.mu.Lock()
	v := s.viewer
	s.viewer = nil
	s.mu.Unlock()
	if v != nil {
		v.close()
	}
	return nil
}
