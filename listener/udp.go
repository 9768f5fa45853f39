package listener

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net"
	"sync"
)

const (
	maxPacketSize  = 2048
	readBufferSize = maxPacketSize * 64
)

type PacketHandler interface {
	HandlePacket(packet []byte) error
}

// UDPListener receives telemetry datagrams and hands each one to Handler.
type UDPListener struct {
	Port    int
	Handler PacketHandler

	mu   sync.Mutex
	conn *net.UDPConn
}

func NewUDPListener(port int, handler PacketHandler) *UDPListener {
	return &UDPListener{
		Port:    port,
		Handler: handler,
	}
}

func (l *UDPListener) Name() string {
	return "udp listener"
}

func (l *UDPListener) Open() error {
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf(":%d", l.Port))
	if err != nil {
		return errors.Wrapf(err, "unable to resolve udp port %d", l.Port)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return errors.Wrapf(err, "unable to listen on udp port %d", l.Port)
	}
	if err = conn.SetReadBuffer(readBufferSize); err != nil {
		log.WithField("err", err).Warnf("unable to set OS read buffer to %v", readBufferSize)
	}

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	log.WithField("addr", conn.LocalAddr()).Info("listening for telemetry")
	return nil
}

func (l *UDPListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}

// Addr is the bound address, or nil when the listener is not open.
func (l *UDPListener) Addr() *net.UDPAddr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr().(*net.UDPAddr)
}

// Start reads datagrams until ctx is done or the socket fails. A packet the
// handler rejects is logged and dropped.
func (l *UDPListener) Start(ctx context.Context) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return errors.New("udp listener is not open")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := l.Close(); err != nil {
				log.WithField("err", err).Warn("unable to close udp listener after context")
			}
		case <-done:
		}
	}()

	buffer := make([]byte, maxPacketSize)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "unable to read udp packet")
		}
		packet := make([]byte, n)
		copy(packet, buffer[:n])
		if err := l.Handler.HandlePacket(packet); err != nil {
			log.WithField("err", err).
				WithField("from", addr).
				WithField("length", n).
				Debug("dropped packet")
		}
	}
}
