package wire

import "fmt"

// Header is the 12-byte DNS message header (RFC 1035 §4.1.1).
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsResponse reports whether the QR bit is set.
func (h Header) IsResponse() bool { return h.Flags&FlagQR != 0 }

// IsAuthoritative reports whether the AA bit is set.
func (h Header) IsAuthoritative() bool { return h.Flags&FlagAA != 0 }

// Question is one entry of the question section (RFC 1035 §4.1.2).
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// A is the decoded form of an A record: an IPv4 address as four octets.
type A struct {
	Addr [4]byte
}

// String renders the dotted-quad form.
func (a A) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3])
}

// PTR is the decoded form of a PTR record.
type PTR struct {
	Target string
}

// SRV is the decoded form of an SRV record. Priority and weight are parsed
// but, per spec, not used by anything downstream of the collator.
type SRV struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

// TXTPair is one key/value item of a TXT record, in wire order.
type TXTPair struct {
	Key   string
	Value string
}

// TXT is the decoded form of a TXT record: an ordered list of key/value
// pairs (a plain map would lose the tie-breaking "last write wins" order
// the collator relies on, and would silently drop repeated keys).
type TXT struct {
	Pairs []TXTPair
}

// Map collapses Pairs into a map, last occurrence of a key wins.
func (t TXT) Map() map[string]string {
	m := make(map[string]string, len(t.Pairs))
	for _, p := range t.Pairs {
		m[p.Key] = p.Value
	}
	return m
}

// ResourceRecord is one entry of an answer/authority/additional section
// (RFC 1035 §4.1.3). Decoded is one of A, PTR, SRV, TXT for a recognised
// Type, or nil for a type this package only skips structurally.
type ResourceRecord struct {
	Name    string
	RData   []byte
	Decoded interface{}
	Type    uint16
	Class   uint16
	TTL     uint32
}

// Message is a fully decoded mDNS message.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []ResourceRecord
	Authorities []ResourceRecord
	Additionals []ResourceRecord
}

// Records returns Answers, Authorities and Additionals concatenated in wire
// order, the view the collator folds over.
func (m *Message) Records() []ResourceRecord {
	out := make([]ResourceRecord, 0, len(m.Answers)+len(m.Authorities)+len(m.Additionals))
	out = append(out, m.Answers...)
	out = append(out, m.Authorities...)
	out = append(out, m.Additionals...)
	return out
}
