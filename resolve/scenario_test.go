package resolve

import (
	"context"
	"net"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"mdnsresolve/transport"
	"mdnsresolve/wire"
)

var _ = Describe("GetServiceTypes", func() {
	It("collates both advertised service types under the DNS-SD meta-name", func() {
		fp := transport.NewFakePair()
		fp.Deliver(datagram(
			dnsRecord(dnsName(servicesRoot), wire.TypePTR, ptrRData("_http._tcp.local")),
			dnsRecord(dnsName(servicesRoot), wire.TypePTR, ptrRData("_printer._tcp.local")),
		), fakeSrc)

		r := withFakeConns(fp)

		var got Map
		r.GetServiceTypes(context.Background(), func(m Map) { got = m })

		Expect(got).NotTo(BeNil())
		entry := got[servicesRoot]
		Expect(entry).NotTo(BeNil())
		Expect(entry.ServiceTypes).To(Equal([]string{"_http._tcp.local", "_printer._tcp.local"}))
	})
})

var _ = Describe("GetServices", func() {
	It("collates instance names under the queried service type", func() {
		fp := transport.NewFakePair()
		fp.Deliver(datagram(
			dnsRecord(dnsName("_http._tcp.local"), wire.TypePTR, ptrRData("Printer._http._tcp.local")),
			dnsRecord(dnsName("_http._tcp.local"), wire.TypePTR, ptrRData("Bridge._http._tcp.local")),
		), fakeSrc)

		r := withFakeConns(fp)

		var got Map
		r.GetServices(context.Background(), "_http._tcp.local", func(m Map) { got = m })

		entry := got["_http._tcp.local"]
		Expect(entry).NotTo(BeNil())
		Expect(entry.Instances).To(Equal([]string{"Printer._http._tcp.local", "Bridge._http._tcp.local"}))
	})
})

var _ = Describe("GetIP", func() {
	It("resolves an A record to a dotted-quad address", func() {
		fp := transport.NewFakePair()
		fp.Deliver(datagram(
			dnsRecord(dnsName("hue.local"), wire.TypeA, aRData([4]byte{192, 168, 1, 50})),
		), fakeSrc)

		r := withFakeConns(fp)

		var got net.IP
		r.GetIP(context.Background(), "hue.local", func(ip net.IP) { got = ip })

		Expect(got).NotTo(BeNil())
		Expect(got.String()).To(Equal("192.168.1.50"))
	})
})

var _ = Describe("GetAddress", func() {
	It("resolves ip and port from one combined PTR+SRV+A datagram", func() {
		fp := transport.NewFakePair()
		fp.Deliver(datagram(
			dnsRecord(dnsName("_http._tcp.local"), wire.TypePTR, ptrRData("Printer._http._tcp.local")),
			dnsRecord(dnsName("Printer._http._tcp.local"), wire.TypeSRV, srvRData(80, "host1.local")),
			dnsRecord(dnsName("host1.local"), wire.TypeA, aRData([4]byte{192, 168, 1, 7})),
		), fakeSrc)

		r := withFakeConns(fp)

		var ip net.IP
		var port uint16
		r.GetAddress(context.Background(), "Printer._http._tcp.local", func(gotIP net.IP, gotPort uint16) {
			ip, port = gotIP, gotPort
		})

		Expect(ip).NotTo(BeNil())
		Expect(ip.String()).To(Equal("192.168.1.7"))
		Expect(port).To(Equal(uint16(80)))
	})

	It("falls back through SRV then A when the PTR step alone doesn't yield an address", func() {
		step1 := transport.NewFakePair() // PTR scan: nothing useful
		step2 := transport.NewFakePair() // SRV: port + hostname
		step2.Deliver(datagram(
			dnsRecord(dnsName("Dev._x._tcp.local"), wire.TypeSRV, srvRData(1234, "devhost.local")),
		), fakeSrc)
		step4 := transport.NewFakePair() // A of bare instance name: nothing
		step5 := transport.NewFakePair() // A of SRV-learnt hostname
		step5.Deliver(datagram(
			dnsRecord(dnsName("devhost.local"), wire.TypeA, aRData([4]byte{10, 0, 0, 5})),
		), fakeSrc)

		r := withFakeConns(step1, step2, step4, step5)

		var ip net.IP
		var port uint16
		r.GetAddress(context.Background(), "Dev._x._tcp.local", func(gotIP net.IP, gotPort uint16) {
			ip, port = gotIP, gotPort
		})

		Expect(ip).NotTo(BeNil())
		Expect(ip.String()).To(Equal("10.0.0.5"))
		Expect(port).To(Equal(uint16(1234)))
	})

	It("rejects an fqdn whose instance label begins with an underscore", func() {
		r := New()

		called := false
		r.GetAddress(context.Background(), "_http._tcp.local", func(net.IP, uint16) { called = true })

		Expect(called).To(BeFalse())
	})
})

var _ = Describe("TXT decoding", func() {
	It("handles bare keys and explicit-empty values alongside ordinary pairs", func() {
		fp := transport.NewFakePair()
		fp.Deliver(datagram(
			dnsRecord(dnsName("dev.local"), wire.TypeTXT, txtRData("vendor=acme", "model=", "legacy")),
		), fakeSrc)

		r := withFakeConns(fp)

		var got Map
		r.Query(context.Background(), "dev.local", wire.TypeTXT, 0, func(m Map) { got = m })

		entry := got["dev.local"]
		Expect(entry).NotTo(BeNil())
		Expect(entry.Info).To(Equal(map[string]string{"vendor": "acme", "model": "", "legacy": ""}))
	})
})
