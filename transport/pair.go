package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sync/errgroup"

	"mdnsresolve/errs"
)

// earliestDeadline is used to force a blocked ReadFrom to return immediately
// once its context is canceled; any timestamp already in the past works.
var earliestDeadline = time.Unix(0, 0)

// Datagram is one received UDP packet together with where it came from.
type Datagram struct {
	Payload []byte
	Src     net.Addr
}

// Conn is the subset of Pair a Collector depends on, satisfied by both Pair
// and FakePair so collection logic can be tested without real sockets.
type Conn interface {
	Send(ctx context.Context, packet []byte) error
	Readable(ctx context.Context) <-chan Datagram
	Close() error
}

// Pair is the dual-socket endpoint a Collector cycle sends its query from
// and listens for replies on: a multicast socket joined to 224.0.0.251:5353
// on the chosen interface, and a unicast socket on an ephemeral port for
// replies sent directly back to the querier (RFC 6762 §5.4, the
// QU/unicast-response bit).
type Pair struct {
	mcast   net.PacketConn
	mcastPC *ipv4.PacketConn
	ucast   *net.UDPConn
	iface   *net.Interface
}

// NewPair opens both sockets and joins the mDNS multicast group. iface may
// be nil, in which case the kernel's default multicast interface is used.
//
// The multicast socket is bound through a net.ListenConfig carrying a
// platform-specific Control function that sets SO_REUSEADDR (and
// SO_REUSEPORT where the platform has it) before the bind syscall, so this
// resolver can join 5353 alongside avahi-daemon, systemd-resolved, or
// Bonjour's mDNSResponder instead of failing the bind outright.
func NewPair(iface *net.Interface) (*Pair, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	mcast, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("", strconv.Itoa(Port)))
	if err != nil {
		return nil, &errs.NetworkError{Operation: "open multicast socket", Err: err}
	}

	pc := ipv4.NewPacketConn(mcast)
	if err := pc.SetControlMessage(ipv4.FlagInterface, true); err != nil {
		_ = mcast.Close()
		return nil, &errs.NetworkError{Operation: "enable interface control messages", Err: err}
	}
	if err := pc.JoinGroup(iface, MulticastAddr); err != nil {
		_ = mcast.Close()
		ifname := "default"
		if iface != nil {
			ifname = iface.Name
		}
		return nil, &errs.NetworkError{Operation: "join multicast group", Err: err, Details: fmt.Sprintf("interface %s", ifname)}
	}

	ucast, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		_ = mcast.Close()
		return nil, &errs.NetworkError{Operation: "open unicast socket", Err: err}
	}

	return &Pair{mcast: mcast, mcastPC: pc, ucast: ucast, iface: iface}, nil
}

// Send writes a query packet to the mDNS multicast group from the unicast
// socket, so replies sent back to our source port arrive on ucast rather
// than the shared multicast socket.
func (p *Pair) Send(ctx context.Context, packet []byte) error {
	if err := ctx.Err(); err != nil {
		return &errs.NetworkError{Operation: "send query", Err: err, Details: "context already done"}
	}

	n, err := p.ucast.WriteTo(packet, MulticastAddr)
	if err != nil {
		return &errs.NetworkError{Operation: "send query", Err: err}
	}
	if n != len(packet) {
		return &errs.NetworkError{Operation: "send query", Err: fmt.Errorf("partial write: %d/%d bytes", n, len(packet))}
	}
	return nil
}

// Readable fans in both sockets' blocking ReadFrom loops onto a single
// channel, so a Collector can select on one channel plus a deadline timer
// instead of polling two sockets directly. The channel is closed once ctx
// is done and both reader goroutines have exited.
func (p *Pair) Readable(ctx context.Context) <-chan Datagram {
	out := make(chan Datagram)

	var g errgroup.Group
	g.Go(func() error { return p.readLoop(ctx, p.mcast, out) })
	g.Go(func() error { return p.readLoop(ctx, p.ucast, out) })

	go func() {
		_ = g.Wait()
		close(out)
	}()

	return out
}

func (p *Pair) readLoop(ctx context.Context, conn net.PacketConn, out chan<- Datagram) error {
	go func() {
		<-ctx.Done()
		_ = conn.SetReadDeadline(earliestDeadline)
	}()

	buf := make([]byte, 65536)
	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return nil
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		select {
		case out <- Datagram{Payload: payload, Src: src}:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close shuts down both sockets. Safe to call more than once.
func (p *Pair) Close() error {
	err1 := p.mcast.Close()
	err2 := p.ucast.Close()
	if err1 != nil {
		return &errs.NetworkError{Operation: "close multicast socket", Err: err1}
	}
	if err2 != nil {
		return &errs.NetworkError{Operation: "close unicast socket", Err: err2}
	}
	return nil
}
