package resolve

import (
	"net"

	"mdnsresolve/clock"
	"mdnsresolve/collect"
	"mdnsresolve/transport"
)

// withFakeConns builds a Resolver whose Collector cycles each pop the next
// *transport.FakePair from conns, in order, instead of opening real
// sockets — one per r.run call the test exercises.
func withFakeConns(conns ...*transport.FakePair) *Resolver {
	r := &Resolver{clock: clock.Real{}}
	i := 0
	r.newCollector = func() (*collect.Collector, error) {
		conn := conns[i]
		i++
		return collect.New(conn, r.clock), nil
	}
	return r
}

var fakeSrc net.Addr = &net.UDPAddr{IP: net.ParseIP("192.168.1.1"), Port: 5353}
