package wire

import (
	"encoding/binary"

	"mdnsresolve/errs"
)

// DecodeMessage parses a complete mDNS response. A message whose transaction
// id is nonzero, or that lacks either the QR or the AA header bit, is rejected
// outright (the collector treats this identically to a structurally
// malformed datagram: drop it, keep listening). Any other structural
// inconsistency — a length overrun, an oversize label, a forward or
// self-referential compression pointer — aborts the whole batch; there is
// no partial result.
func DecodeMessage(msg []byte) (*Message, error) {
	header, err := decodeHeader(msg)
	if err != nil {
		return nil, err
	}

	if header.ID != 0 {
		return nil, &errs.DecodeError{Operation: "decode message", Offset: 0, Message: "non-zero transaction id"}
	}
	if !header.IsResponse() || !header.IsAuthoritative() {
		return nil, &errs.DecodeError{Operation: "decode message", Offset: 2, Message: "missing QR or AA flag"}
	}

	offset := headerSize

	for i := uint16(0); i < header.QDCount; i++ {
		_, next, err := decodeQuestion(msg, offset)
		if err != nil {
			return nil, err
		}
		offset = next
	}

	answers, offset, err := decodeRecords(msg, offset, header.ANCount)
	if err != nil {
		return nil, err
	}

	authorities, offset, err := decodeRecords(msg, offset, header.NSCount)
	if err != nil {
		return nil, err
	}

	additionals, _, err := decodeRecords(msg, offset, header.ARCount)
	if err != nil {
		return nil, err
	}

	return &Message{
		Header:      header,
		Answers:     answers,
		Authorities: authorities,
		Additionals: additionals,
	}, nil
}

func decodeHeader(msg []byte) (Header, error) {
	if len(msg) < headerSize {
		return Header{}, &errs.DecodeError{Operation: "decode header", Offset: 0, Message: "message shorter than 12 bytes"}
	}

	return Header{
		ID:      binary.BigEndian.Uint16(msg[0:2]),
		Flags:   binary.BigEndian.Uint16(msg[2:4]),
		QDCount: binary.BigEndian.Uint16(msg[4:6]),
		ANCount: binary.BigEndian.Uint16(msg[6:8]),
		NSCount: binary.BigEndian.Uint16(msg[8:10]),
		ARCount: binary.BigEndian.Uint16(msg[10:12]),
	}, nil
}

func decodeQuestion(msg []byte, offset int) (Question, int, error) {
	name, consumed, err := decodeName(msg, offset)
	if err != nil {
		return Question{}, 0, err
	}
	next := offset + consumed

	if next+4 > len(msg) {
		return Question{}, 0, &errs.DecodeError{Operation: "decode question", Offset: next, Message: "truncated question"}
	}

	q := Question{
		Name:  name,
		Type:  binary.BigEndian.Uint16(msg[next : next+2]),
		Class: binary.BigEndian.Uint16(msg[next+2 : next+4]),
	}

	return q, next + 4, nil
}

func decodeRecords(msg []byte, offset int, count uint16) ([]ResourceRecord, int, error) {
	records := make([]ResourceRecord, 0, count)
	for i := uint16(0); i < count; i++ {
		rr, next, err := decodeRecord(msg, offset)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rr)
		offset = next
	}
	return records, offset, nil
}

func decodeRecord(msg []byte, offset int) (ResourceRecord, int, error) {
	name, consumed, err := decodeName(msg, offset)
	if err != nil {
		return ResourceRecord{}, 0, err
	}
	next := offset + consumed

	if next+10 > len(msg) {
		return ResourceRecord{}, 0, &errs.DecodeError{Operation: "decode record", Offset: next, Message: "truncated record header"}
	}

	rtype := binary.BigEndian.Uint16(msg[next : next+2])
	class := binary.BigEndian.Uint16(msg[next+2 : next+4])
	ttl := binary.BigEndian.Uint32(msg[next+4 : next+8])
	rdlength := binary.BigEndian.Uint16(msg[next+8 : next+10])
	next += 10

	if next+int(rdlength) > len(msg) {
		return ResourceRecord{}, 0, &errs.DecodeError{Operation: "decode record", Offset: next, Message: "truncated rdata"}
	}

	rdata := make([]byte, rdlength)
	copy(rdata, msg[next:next+int(rdlength)])

	decoded, err := decodeRData(msg, next, rtype, int(rdlength))
	if err != nil {
		return ResourceRecord{}, 0, err
	}

	rr := ResourceRecord{
		Name:    name,
		Type:    rtype,
		Class:   class,
		TTL:     ttl,
		RData:   rdata,
		Decoded: decoded,
	}

	return rr, next + int(rdlength), nil
}

// decodeRData parses a record's type-specific payload. msg/rdataOffset give
// access to the whole datagram (not just the record's own RData slice) so
// that a PTR target or SRV target using a compression pointer can resolve
// against names that appear earlier in the message, outside the record's
// own rdata span — exactly what RFC 1035 §4.1.4 compression allows, and
// what spec.md requires ("PTR: decode rdata as a name (with compression
// against the full datagram)").
func decodeRData(msg []byte, rdataOffset int, rtype uint16, rdlength int) (interface{}, error) {
	switch rtype {
	case TypeA:
		if rdlength != 4 {
			return nil, &errs.DecodeError{Operation: "decode A", Offset: rdataOffset, Message: "rdlength must be 4"}
		}
		var a A
		copy(a.Addr[:], msg[rdataOffset:rdataOffset+4])
		return a, nil

	case TypePTR:
		target, _, err := decodeName(msg, rdataOffset)
		if err != nil {
			return nil, err
		}
		return PTR{Target: target}, nil

	case TypeSRV:
		if rdlength < 6 {
			return nil, &errs.DecodeError{Operation: "decode SRV", Offset: rdataOffset, Message: "rdata shorter than 6 bytes"}
		}
		priority := binary.BigEndian.Uint16(msg[rdataOffset : rdataOffset+2])
		weight := binary.BigEndian.Uint16(msg[rdataOffset+2 : rdataOffset+4])
		port := binary.BigEndian.Uint16(msg[rdataOffset+4 : rdataOffset+6])
		target, _, err := decodeName(msg, rdataOffset+6)
		if err != nil {
			return nil, err
		}
		return SRV{Priority: priority, Weight: weight, Port: port, Target: target}, nil

	case TypeTXT:
		return decodeTXT(msg[rdataOffset : rdataOffset+rdlength])

	default:
		// Recognised-but-opaque or wholly unknown type: the caller already
		// has the raw RData via the enclosing ResourceRecord.
		return nil, nil
	}
}

func decodeTXT(rdata []byte) (TXT, error) {
	var txt TXT

	offset := 0
	for offset < len(rdata) {
		length := int(rdata[offset])
		offset++

		if offset+length > len(rdata) {
			return TXT{}, &errs.DecodeError{Operation: "decode TXT", Offset: offset, Message: "truncated item"}
		}

		item := string(rdata[offset : offset+length])
		offset += length

		key, value := item, ""
		for i := 0; i < len(item); i++ {
			if item[i] == '=' {
				key, value = item[:i], item[i+1:]
				break
			}
		}

		txt.Pairs = append(txt.Pairs, TXTPair{Key: key, Value: value})
	}

	return txt, nil
}
