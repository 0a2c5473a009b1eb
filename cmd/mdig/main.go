// mdig is a small command-line front-end over mdnsresolve/resolve,
// exercising four of the five resolver operations from a terminal
// (GetServiceTypes, GetServices, GetIP, GetAddress; there is no raw Query
// mode).
//
// Usage:
//
//	mdig -types
//	mdig -services _http._tcp.local
//	mdig -ip printer.local
//	mdig -address "My Printer._http._tcp.local"
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/dogmatiq/dodeca/logging"

	"mdnsresolve/resolve"
	"mdnsresolve/transport"
)

func main() {
	var (
		types    = flag.Bool("types", false, "enumerate registered DNS-SD service types")
		services = flag.String("services", "", "list instances of a service type (e.g. _http._tcp.local)")
		ip       = flag.String("ip", "", "resolve a hostname's A records (e.g. printer.local)")
		address  = flag.String("address", "", "resolve an instance's address (e.g. \"My Printer._http._tcp.local\")")
		ifname   = flag.String("iface", "", "bind the multicast join to this interface instead of the kernel default")
		verbose  = flag.Bool("v", false, "log diagnostics to stderr")
		timeout  = flag.Duration("timeout", 5*time.Second, "overall command timeout")
	)
	flag.Parse()

	var opts []resolve.Option
	if *verbose {
		opts = append(opts, resolve.WithLogger(logging.DebugLogger))
	}
	if *ifname != "" {
		ifaces, err := transport.UsableInterfaces()
		if err != nil {
			fmt.Fprintf(os.Stderr, "mdig: %s\n", err)
			os.Exit(1)
		}
		var iface *net.Interface
		for i := range ifaces {
			if ifaces[i].Name == *ifname {
				iface = &ifaces[i]
				break
			}
		}
		if iface == nil {
			fmt.Fprintf(os.Stderr, "mdig: %s is not a usable multicast interface\n", *ifname)
			os.Exit(1)
		}
		opts = append(opts, resolve.WithInterface(iface))
	}
	r := resolve.New(opts...)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch {
	case *types:
		runServiceTypes(ctx, r)
	case *services != "":
		runServices(ctx, r, *services)
	case *ip != "":
		runGetIP(ctx, r, *ip)
	case *address != "":
		runGetAddress(ctx, r, *address)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runServiceTypes(ctx context.Context, r *resolve.Resolver) {
	r.GetServiceTypes(ctx, func(m resolve.Map) {
		entry := m["_services._dns-sd._udp.local"]
		if entry == nil {
			fmt.Println("no service types found")
			return
		}
		for _, t := range entry.ServiceTypes {
			fmt.Println(t)
		}
	})
}

func runServices(ctx context.Context, r *resolve.Resolver, serviceType string) {
	r.GetServices(ctx, serviceType, func(m resolve.Map) {
		entry := m[serviceType]
		if entry == nil {
			fmt.Printf("no instances of %s found\n", serviceType)
			return
		}
		for _, instance := range entry.Instances {
			fmt.Println(instance)
		}
	})
}

func runGetIP(ctx context.Context, r *resolve.Resolver, name string) {
	found := false
	r.GetIP(ctx, name, func(ip net.IP) {
		found = true
		fmt.Printf("%s -> %s\n", name, ip)
	})
	if !found {
		fmt.Printf("%s -> no A record found\n", name)
	}
}

func runGetAddress(ctx context.Context, r *resolve.Resolver, fqdn string) {
	r.GetAddress(ctx, fqdn, func(ip net.IP, port uint16) {
		switch {
		case ip != nil && port != 0:
			fmt.Printf("%s -> %s:%d\n", fqdn, ip, port)
		case ip != nil:
			fmt.Printf("%s -> %s (no port)\n", fqdn, ip)
		default:
			fmt.Printf("%s -> unresolved\n", fqdn)
		}
	})
}
