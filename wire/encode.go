package wire

import "encoding/binary"

// EncodeQuery builds a one-question mDNS query message: a zeroed 12-byte
// header (transaction id 0, all flags 0, qdcount 1, an/ns/arcount 0)
// followed by the question itself. The question's class carries the
// unicast-response-preferred bit OR'd with the Internet class, and its name
// is never compressed — compression in emitted queries is out of scope.
func EncodeQuery(name string, rrtype uint16) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	qname, err := encodeName(name)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, headerSize, headerSize+len(qname)+4)
	// ID, Flags, ANCount, NSCount, ARCount all stay zero.
	binary.BigEndian.PutUint16(buf[4:6], 1) // QDCount

	buf = append(buf, qname...)

	typeBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(typeBytes, rrtype)
	buf = append(buf, typeBytes...)

	classBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(classBytes, UnicastResponseBit|ClassIN)
	buf = append(buf, classBytes...)

	return buf, nil
}
