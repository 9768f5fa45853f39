package forzadash

import (
	"sync"
)

type publisherStub struct {
	mu        sync.Mutex
	published [][]byte
	err       error
}

func (p *publisherStub) Publish(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, payload)
	return nil
}

func (p *publisherStub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type liveViewStub struct {
	mu    sync.Mutex
	sent  [][]byte
	err   error
	calls int
}

func (l *liveViewStub) Broadcast(payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return l.err
	}
	l.sent = append(l.sent, payload)
	return nil
}

type forwarderStub struct {
	packets [][]byte
}

func (fwd *forwarderStub) Forward(packet []byte) error {
	fwd.packets = append(fwd.packets, packet)
	return nil
}
