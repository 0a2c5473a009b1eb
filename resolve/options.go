package resolve

import (
	"net"

	"github.com/dogmatiq/dodeca/logging"

	"mdnsresolve/clock"
)

// Option configures a Resolver. Options follow the functional-options
// pattern, the same shape the querier this repo grew from used.
type Option func(*Resolver)

// WithLogger sets the logger a Resolver uses for malformed-input and
// socket/send-failure diagnostics. Datagrams that fail to decode are
// dropped inside the Collector and are not logged. The default is a
// discard logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithInterface pins every Collector cycle's multicast join to a single
// network interface, instead of the kernel's default multicast interface.
func WithInterface(iface *net.Interface) Option {
	return func(r *Resolver) { r.iface = iface }
}

// WithClock overrides the monotonic clock a Resolver's Collector cycles
// use, chiefly for tests that want to avoid real sleeps.
func WithClock(c clock.Clock) Option {
	return func(r *Resolver) { r.clock = c }
}
