package listener

import (
	"context"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net"
	"sync"
	"testing"
	"time"
)

type handlerStub struct {
	packetChan chan []byte
	err        error
}

func (h *handlerStub) HandlePacket(packet []byte) error {
	h.packetChan <- packet
	return h.err
}

func startListener(t *testing.T, handler PacketHandler) (*UDPListener, context.CancelFunc, *sync.WaitGroup) {
	l := NewUDPListener(0, handler)
	require.NoError(t, l.Open())
	require.NotNil(t, l.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		assert.Equal(t, context.Canceled, l.Start(ctx))
		wg.Done()
	}()
	return l, cancel, wg
}

func send(t *testing.T, addr *net.UDPAddr, packet []byte) {
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: addr.Port})
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write(packet)
	require.NoError(t, err)
}

func receive(t *testing.T, packetChan <-chan []byte) []byte {
	select {
	case p := <-packetChan:
		return p
	case <-time.After(3 * time.Second):
		assert.Fail(t, "timed out waiting for packet")
		return nil
	}
}

func TestUDPListener(t *testing.T) {
	stub := &handlerStub{
		packetChan: make(chan []byte, 2),
	}
	l, cancel, wg := startListener(t, stub)

	send(t, l.Addr(), []byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, receive(t, stub.packetChan))

	send(t, l.Addr(), []byte{4, 5})
	assert.Equal(t, []byte{4, 5}, receive(t, stub.packetChan))

	cancel()
	wg.Wait()
	assert.Nil(t, l.Addr(), "listener should be closed after context")
}

func TestUDPListenerHandlerError(t *testing.T) {
	stub := &handlerStub{
		packetChan: make(chan []byte, 2),
		err:        errors.New("fake error"),
	}
	l, cancel, wg := startListener(t, stub)

	// a rejected packet must not stop the read loop
	send(t, l.Addr(), []byte{1})
	receive(t, stub.packetChan)
	send(t, l.Addr(), []byte{2})
	assert.Equal(t, []byte{2}, receive(t, stub.packetChan))

	cancel()
	wg.Wait()
}

func TestUDPListenerNotOpen(t *testing.T) {
	l := NewUDPListener(0, &handlerStub{})
	assert.Error(t, l.Start(context.Background()))
	assert.NoError(t, l.Close())
	assert.Equal(t, "udp listener", l.Name())
}
