package forzadash

import (
	"context"
)

// Publisher receives the reduced record whenever it changes.
type Publisher interface {
	Publish(payload []byte) error
}

// LiveView receives the full record for every packet.
type LiveView interface {
	Broadcast(payload []byte) error
}

// Forwarder relays raw packets to another consumer.
type Forwarder interface {
	Forward(packet []byte) error
}

type Retryable interface {
	Open() error
	Close() error
	Start(ctx context.Context) error
	Name() string
}
