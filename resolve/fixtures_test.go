package resolve

import (
	"encoding/binary"
	"strings"

	"mdnsresolve/wire"
)

func dnsLabel(s string) []byte { return append([]byte{byte(len(s))}, s...) }

func dnsName(fqdn string) []byte {
	var buf []byte
	for _, l := range strings.Split(fqdn, ".") {
		buf = append(buf, dnsLabel(l)...)
	}
	return append(buf, 0)
}

func dnsHeader(ancount uint16) []byte {
	h := make([]byte, 12)
	binary.BigEndian.PutUint16(h[2:4], wire.FlagQR|wire.FlagAA)
	binary.BigEndian.PutUint16(h[6:8], ancount)
	return h
}

func dnsRecord(name []byte, rtype uint16, rdata []byte) []byte {
	buf := append([]byte{}, name...)
	tc := make([]byte, 8)
	binary.BigEndian.PutUint16(tc[0:2], rtype)
	binary.BigEndian.PutUint16(tc[2:4], wire.ClassIN)
	buf = append(buf, tc...)
	rdlen := make([]byte, 2)
	binary.BigEndian.PutUint16(rdlen, uint16(len(rdata)))
	buf = append(buf, rdlen...)
	return append(buf, rdata...)
}

func aRData(ip [4]byte) []byte { return ip[:] }

func ptrRData(target string) []byte { return dnsName(target) }

func srvRData(port uint16, target string) []byte {
	buf := make([]byte, 6)
	binary.BigEndian.PutUint16(buf[4:6], port)
	return append(buf, dnsName(target)...)
}

// txtRData builds TXT rdata from pre-formatted items ("key=value", "key=",
// or bare "key"), preserving order and each item's exact "=" presence.
func txtRData(items ...string) []byte {
	var buf []byte
	for _, item := range items {
		buf = append(buf, byte(len(item)))
		buf = append(buf, item...)
	}
	return buf
}

// datagram assembles a response message out of pre-built answer-section
// records (each produced by dnsRecord).
func datagram(records ...[]byte) []byte {
	msg := dnsHeader(uint16(len(records)))
	for _, r := range records {
		msg = append(msg, r...)
	}
	return msg
}
