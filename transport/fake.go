package transport

import (
	"context"
	"net"
	"sync"
)

// FakePair is a test double standing in for Pair: it records every Send()
// call and lets a test push canned Datagrams for Readable() to deliver,
// so collect and resolve can be exercised without real sockets.
type FakePair struct {
	mu        sync.Mutex
	sendCalls [][]byte
	closed    bool

	incoming chan Datagram
}

// NewFakePair creates a FakePair ready for use. Feed replies to it with
// Deliver before or after the code under test calls Readable.
func NewFakePair() *FakePair {
	return &FakePair{incoming: make(chan Datagram, 16)}
}

func (f *FakePair) Send(_ context.Context, packet []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls = append(f.sendCalls, append([]byte(nil), packet...))
	return nil
}

func (f *FakePair) Readable(ctx context.Context) <-chan Datagram {
	out := make(chan Datagram)
	go func() {
		defer close(out)
		for {
			select {
			case d, ok := <-f.incoming:
				if !ok {
					return
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Deliver queues a datagram for the next Readable consumer to receive, as
// if it had arrived from src.
func (f *FakePair) Deliver(payload []byte, src net.Addr) {
	f.incoming <- Datagram{Payload: payload, Src: src}
}

func (f *FakePair) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// SendCalls returns a copy of every packet passed to Send, in order.
func (f *FakePair) SendCalls() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([][]byte, len(f.sendCalls))
	copy(calls, f.sendCalls)
	return calls
}

// Closed reports whether Close has been called.
func (f *FakePair) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
