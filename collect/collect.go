// Package collect drives a single send-then-listen mDNS cycle: emit one
// query, then read from a socket pair until a deadline (or an
// early-termination match), decoding every datagram that arrives.
package collect

import (
	"context"
	"strings"
	"time"

	"mdnsresolve/clock"
	"mdnsresolve/transport"
	"mdnsresolve/wire"
)

// postSendDelay lets an implementation's own query drain off the wire
// before the listen window opens, so a fast loopback echo doesn't eat into
// the collection window.
const postSendDelay = 100 * time.Millisecond

// jitterMargin pads the listen window to absorb network jitter; it is not
// a retransmission interval.
const jitterMargin = 500 * time.Millisecond

// Collector runs one query+listen cycle over a transport.Conn.
type Collector struct {
	Conn  transport.Conn
	Clock clock.Clock
}

// New builds a Collector over the given socket pair and clock.
func New(conn transport.Conn, clk clock.Clock) *Collector {
	return &Collector{Conn: conn, Clock: clk}
}

// Run sends a query for name/rrtype, then collects every record of every
// response that decodes, for listenTime (plus a fixed jitter margin),
// before closing the socket pair. A datagram that fails to decode is
// dropped without being logged. If earlyTerminate is set, the cycle returns as soon as any record's
// name (trimmed of a trailing ".local") matches earlyMatchName (or name, if
// earlyMatchName is empty) — used by latency-sensitive callers that only
// care about the first instance to answer.
func (c *Collector) Run(ctx context.Context, name string, rrtype uint16, listenTime time.Duration, earlyTerminate bool, earlyMatchName string) ([]wire.ResourceRecord, error) {
	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.Conn.Close()

	query, err := wire.EncodeQuery(name, rrtype)
	if err != nil {
		return nil, err
	}

	if err := c.Conn.Send(cycleCtx, query); err != nil {
		return nil, err
	}

	if err := c.Clock.Sleep(cycleCtx, postSendDelay); err != nil {
		return nil, err
	}

	deadline := c.Clock.Now().Add(listenTime + jitterMargin)

	target := name
	if earlyTerminate && earlyMatchName != "" {
		target = earlyMatchName
	}
	target = strings.TrimSuffix(target, ".local")

	datagrams := c.Conn.Readable(cycleCtx)

	var collected []wire.ResourceRecord

collectLoop:
	for {
		remaining := deadline.Sub(c.Clock.Now())
		if remaining <= 0 {
			break
		}

		select {
		case <-c.after(cycleCtx, remaining):
			break collectLoop

		case dg, ok := <-datagrams:
			if !ok {
				break collectLoop
			}

			msg, err := wire.DecodeMessage(dg.Payload)
			if err != nil {
				continue
			}

			records := msg.Records()
			if len(records) == 0 {
				continue
			}

			if earlyTerminate {
				for _, r := range records {
					if strings.TrimSuffix(r.Name, ".local") == target {
						return records, nil
					}
				}
				continue
			}

			collected = append(collected, records...)
		}
	}

	return collected, nil
}

// after returns a channel that closes once d has elapsed on c.Clock, or ctx
// is done — whichever comes first.
func (c *Collector) after(ctx context.Context, d time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		_ = c.Clock.Sleep(ctx, d)
		close(done)
	}()
	return done
}
