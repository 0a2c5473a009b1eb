// Package transport provides the dual-socket (multicast + unicast) UDP
// endpoint a Collector cycle sends its query from and listens for replies
// on.
package transport

import "net"

// Port is the mDNS port (RFC 6762 §5).
const Port = 5353

// MulticastAddr is the mDNS IPv4 multicast group (RFC 6762 §5).
var MulticastAddr = &net.UDPAddr{IP: net.ParseIP("224.0.0.251"), Port: Port}
