// Package resolve implements the five public one-shot mDNS/DNS-SD
// resolution operations, each built from one or more collect.Collector
// cycles folded through collate.Collate.
package resolve

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/dogmatiq/dodeca/logging"

	"mdnsresolve/clock"
	"mdnsresolve/collate"
	"mdnsresolve/collect"
	"mdnsresolve/errs"
	"mdnsresolve/transport"
	"mdnsresolve/wire"
)

// servicesRoot is the DNS-SD meta-query enumerating service types.
const servicesRoot = "_services._dns-sd._udp.local"

// serviceTypesListenTime and the other timing constants below are the fixed
// per-operation listen windows (and the pause between GetAddress steps),
// named so the operations refer to them instead of bare duration literals.
const (
	serviceTypesListenTime = 2 * time.Second
	servicesListenTime     = 2 * time.Second
	ipListenTime           = 1 * time.Second
	addressPTRListenTime   = 1500 * time.Millisecond
	addressSRVListenTime   = 1 * time.Second
	addressAListenTime     = 1 * time.Second
	addressStepDelay       = 100 * time.Millisecond
)

// Map is the per-name aggregate a collection cycle produces.
type Map = map[string]*collate.Entry

// Resolver runs one-shot mDNS query/collect/collate cycles against the
// local network.
type Resolver struct {
	iface  *net.Interface
	clock  clock.Clock
	logger logging.Logger

	// newCollector builds the Collector for one cycle. Overridden in
	// white-box tests to substitute a transport.FakePair for real sockets;
	// production code always uses the default set by New.
	newCollector func() (*collect.Collector, error)
}

// New builds a Resolver. With no options it binds to the kernel's default
// multicast interface, uses a real clock, and discards log output.
func New(opts ...Option) *Resolver {
	r := &Resolver{clock: clock.Real{}}
	for _, opt := range opts {
		opt(r)
	}
	r.newCollector = func() (*collect.Collector, error) {
		conn, err := transport.NewPair(r.iface)
		if err != nil {
			return nil, err
		}
		return collect.New(conn, r.clock), nil
	}
	return r
}

func (r *Resolver) run(ctx context.Context, name string, rrtype uint16, listenTime time.Duration, earlyTerminate bool, earlyMatch string) ([]wire.ResourceRecord, error) {
	c, err := r.newCollector()
	if err != nil {
		logging.Log(r.logger, "mdnsresolve: %s", err)
		return nil, err
	}
	return c.Run(ctx, name, rrtype, listenTime, earlyTerminate, earlyMatch)
}

// Query runs Collector(name, rrtype, listenTime, early=false) → Collate and
// invokes cb with the resulting map. A logged error and no callback
// invocation occurs if name is empty.
func (r *Resolver) Query(ctx context.Context, name string, rrtype uint16, listenTime time.Duration, cb func(Map)) {
	if name == "" {
		logging.Log(r.logger, "mdnsresolve: query: name must not be empty")
		return
	}

	records, err := r.run(ctx, name, rrtype, listenTime, false, "")
	if err != nil {
		logging.Log(r.logger, "mdnsresolve: query(%s): %s", name, err)
		return
	}

	cb(collate.Collate(records))
}

// GetServiceTypes enumerates registered service types via the well-known
// DNS-SD meta-query. The caller reads cb's map[servicesRoot].ServiceTypes.
func (r *Resolver) GetServiceTypes(ctx context.Context, cb func(Map)) {
	r.Query(ctx, servicesRoot, wire.TypeANY, serviceTypesListenTime, cb)
}

// GetServices lists instances of serviceType. The caller reads
// cb's map[serviceType].Instances.
func (r *Resolver) GetServices(ctx context.Context, serviceType string, cb func(Map)) {
	r.Query(ctx, serviceType, wire.TypePTR, servicesListenTime, cb)
}

// GetIP resolves name's A records, invoking cb once per address found (the
// matching datagram may carry more than one A record). The cycle stops as
// soon as any record names the queried instance.
func (r *Resolver) GetIP(ctx context.Context, name string, cb func(net.IP)) {
	if name == "" {
		logging.Log(r.logger, "mdnsresolve: get_ip: name must not be empty")
		return
	}

	records, err := r.run(ctx, name, wire.TypeA, ipListenTime, true, "")
	if err != nil {
		logging.Log(r.logger, "mdnsresolve: get_ip(%s): %s", name, err)
		return
	}

	for _, rec := range records {
		if a, ok := rec.Decoded.(wire.A); ok {
			cb(net.IPv4(a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3]))
		}
	}
}

// GetAddress resolves fqdn (formatted "<instance>.<service_type>") to an
// (ip, port) pair, trying the fallback sequence described for this
// operation: PTR-scan of the service type, then SRV of the full name, then
// A of the bare instance name, then A of any SRV-learnt hostname. For a
// well-formed fqdn, cb is invoked exactly once, with either field possibly
// empty if discovery failed to learn it; a malformed fqdn is logged and cb
// is not invoked.
func (r *Resolver) GetAddress(ctx context.Context, fqdn string, cb func(ip net.IP, port uint16)) {
	instance, serviceType, err := splitInstanceName(fqdn)
	if err != nil {
		logging.Log(r.logger, "mdnsresolve: get_address(%s): %s", fqdn, err)
		return
	}

	var (
		ip       net.IP
		port     uint16
		hostname string
	)

	// Step 1: PTR-scan the service type, early-matching on the full
	// instance name, looking for additional records carrying both IP and
	// port in the same datagram. The A and SRV records riding along with
	// the PTR answer are named after the target hostname and the
	// instance respectively, never the service type, so this scans the
	// whole returned record list rather than collating and keying by
	// any one name.
	if records, err := r.run(ctx, serviceType, wire.TypePTR, addressPTRListenTime, true, fqdn); err == nil {
		gotIP, gotPort, haveIP, havePort := firstAddressFields(records)
		if haveIP {
			ip = gotIP
		}
		if havePort {
			port = gotPort
		}
		if haveIP && havePort {
			cb(ip, port)
			return
		}
	}

	// Step 2: SRV of the full name, learning port and target hostname.
	if records, err := r.run(ctx, fqdn, wire.TypeSRV, addressSRVListenTime, true, ""); err == nil {
		entry := collate.Collate(records)[fqdn]
		if entry != nil {
			if entry.HasPort {
				port = entry.Port
			}
			if len(entry.Hostnames) > 0 {
				hostname = entry.Hostnames[0]
			}
		}
	}

	if ip == nil {
		_ = r.clock.Sleep(ctx, addressStepDelay)

		// Step 4: A of the bare instance name.
		if records, err := r.run(ctx, instance+".local", wire.TypeA, addressAListenTime, true, ""); err == nil {
			entry := collate.Collate(records)[instance+".local"]
			if entry != nil && entry.HasIP {
				ip = parseIP(entry.IP)
			}
		}
	}

	// Step 5: A of the SRV-learnt hostname, if still missing an address.
	if ip == nil && hostname != "" {
		if records, err := r.run(ctx, hostname, wire.TypeA, addressAListenTime, true, ""); err == nil {
			entry := collate.Collate(records)[hostname]
			if entry != nil && entry.HasIP {
				ip = parseIP(entry.IP)
			}
		}
	}

	cb(ip, port)
}

// splitInstanceName parses "<instance>.<service_type>" by splitting on the
// first '.'. An empty or '_'-prefixed first label is rejected: it would
// indicate the caller passed a bare service type, not an instance FQDN.
func splitInstanceName(fqdn string) (instance, serviceType string, err error) {
	idx := strings.IndexByte(fqdn, '.')
	if idx <= 0 {
		return "", "", &errs.ValidationError{Field: "fqdn", Value: fqdn, Message: "must be formatted <instance>.<service_type>"}
	}

	instance = fqdn[:idx]
	serviceType = fqdn[idx+1:]

	if strings.HasPrefix(instance, "_") {
		return "", "", &errs.ValidationError{Field: "fqdn", Value: fqdn, Message: "instance label must not begin with '_'"}
	}

	return instance, serviceType, nil
}

func parseIP(s string) net.IP {
	return net.ParseIP(s)
}

// firstAddressFields scans a record list for the first A and first SRV
// record, independent of what name each is filed under. A single combined
// PTR+SRV+A datagram carries its A and SRV as "additional" records named
// after the target hostname and instance, not the PTR's own owner name, so
// collating and keying by one fixed name misses them.
func firstAddressFields(records []wire.ResourceRecord) (ip net.IP, port uint16, haveIP, havePort bool) {
	for _, rec := range records {
		switch v := rec.Decoded.(type) {
		case wire.A:
			if !haveIP {
				ip = net.IPv4(v.Addr[0], v.Addr[1], v.Addr[2], v.Addr[3])
				haveIP = true
			}
		case wire.SRV:
			if !havePort {
				port = v.Port
				havePort = true
			}
		}
		if haveIP && havePort {
			return
		}
	}
	return
}
