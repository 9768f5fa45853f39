package forwarder

import (
	"context"
	"fmt"
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"io"
	"io/ioutil"
	"net"
	"os"
	"sync"
)

const (
	maxPacketSize = 2048

	channelBufferSize = 16
)

type UDPConfig struct {
	Server string
	Port   int
}

// UDPForwarder relays raw telemetry packets to another UDP consumer.
type UDPForwarder struct {
	Config *UDPConfig

	conn    net.Conn
	fwdChan chan []byte
	mu      sync.Mutex
}

func NewUDPForwarder(fileName string) (*UDPForwarder, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return NewUDPForwarderFromReader(file)
}

func NewUDPForwarderFromReader(configReader io.Reader) (*UDPForwarder, error) {
	configData, err := ioutil.ReadAll(configReader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	config := UDPConfig{}
	if _, err := toml.Decode(string(configData), &config); err != nil {
		return nil, errors.Wrapf(err, "unable to load udp forwarder configuration")
	}
	return NewUDPForwarderFromConfig(config)
}

func NewUDPForwarderFromConfig(config UDPConfig) (*UDPForwarder, error) {
	if config.Port <= 0 {
		return nil, errors.Errorf("invalid udp forwarder port %d", config.Port)
	}
	udp := &UDPForwarder{
		Config:  &config,
		fwdChan: make(chan []byte, channelBufferSize),
	}
	if err := udp.connect(); err != nil {
		return nil, err
	}
	return udp, nil
}

func (udp *UDPForwarder) Close() error {
	udp.mu.Lock()
	defer udp.mu.Unlock()
	if udp.conn == nil {
		return nil
	}
	err := udp.conn.Close()
	udp.conn = nil
	return err
}

// Forward queues a copy of packet. When the queue is full the packet is
// skipped rather than blocking the caller.
func (udp *UDPForwarder) Forward(packet []byte) error {
	packetCopy := append([]byte(nil), packet...)
	select {
	case udp.fwdChan <- packetCopy:
	default:
		log.WithField("server", udp.Config.Server).Debug("udp forwarder queue full, skipping packet")
	}
	return nil
}

func (udp *UDPForwarder) Start(ctx context.Context) error {
	for {
		select {
		case p := <-udp.fwdChan:
			if err := udp.forward(p); err != nil {
				log.Error("unable to forward packet to server ", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (udp *UDPForwarder) forward(packet []byte) error {
	udp.mu.Lock()
	defer udp.mu.Unlock()
	if udp.conn == nil {
		return errors.New("udp forwarder is closed")
	}
	_, err := udp.conn.Write(packet)
	return errors.Wrap(err, "unable to write udp packet")
}

func (udp *UDPForwarder) connect() error {
	writeBufSize := maxPacketSize * channelBufferSize

	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d",
		udp.Config.Server,
		udp.Config.Port))
	if err != nil {
		return errors.Wrapf(err, "unable to dial %s:%d", udp.Config.Server, udp.Config.Port)
	}
	udpConn := conn.(*net.UDPConn)
	if err = udpConn.SetWriteBuffer(writeBufSize); err != nil {
		return errors.Wrapf(err, "unable to set OS write buffer to %v", writeBufSize)
	}

	udp.conn = conn
	return nil
}
