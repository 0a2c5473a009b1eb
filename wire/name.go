package wire

import (
	"strings"

	"mdnsresolve/errs"
)

// encodeName serialises name as a sequence of length-prefixed labels
// terminated by a zero byte. Empty segments produced by splitting on "."
// (a leading, trailing, or doubled dot) are skipped rather than rejected,
// matching how a caller-supplied name like "printer.local." is expected to
// round-trip.
func encodeName(name string) ([]byte, error) {
	var labels []string
	for _, seg := range strings.Split(name, ".") {
		if seg == "" {
			continue
		}
		labels = append(labels, seg)
	}

	buf := make([]byte, 0, len(name)+2)
	for _, label := range labels {
		if len(label) > maxLabelLength {
			return nil, &errs.ValidationError{
				Field:   "name",
				Value:   name,
				Message: "label exceeds 63 bytes",
			}
		}
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	buf = append(buf, 0)

	return buf, nil
}

// decodeName decodes a domain name starting at offset within msg, following
// compression pointers per RFC 1035 §4.1.4. It returns the decoded name
// (dot-joined, no trailing dot) and the number of bytes consumed from the
// CURRENT record: once a pointer is followed, nothing past the 2-byte
// pointer itself counts against the enclosing record, regardless of how
// long the jumped-to name turns out to be.
func decodeName(msg []byte, offset int) (name string, consumed int, err error) {
	if offset < 0 || offset >= len(msg) {
		return "", 0, &errs.DecodeError{Operation: "decode name", Offset: offset, Message: "offset out of bounds"}
	}

	var labels []string
	pos := offset
	jumps := 0
	jumped := false
	advance := 0 // bytes consumed in the record that contains `offset`, once known

	for {
		if pos >= len(msg) {
			return "", 0, &errs.DecodeError{Operation: "decode name", Offset: pos, Message: "unexpected end of message"}
		}

		length := msg[pos]

		if length&0xC0 == 0xC0 {
			if pos+1 >= len(msg) {
				return "", 0, &errs.DecodeError{Operation: "decode name", Offset: pos, Message: "truncated compression pointer"}
			}

			target := int(msg[pos]&0x3F)<<8 | int(msg[pos+1])
			if target >= pos {
				return "", 0, &errs.DecodeError{Operation: "decode name", Offset: pos, Message: "compression pointer does not point backwards"}
			}

			if !jumped {
				advance = pos - offset + 2
				jumped = true
			}

			jumps++
			if jumps > maxCompressionPointers {
				return "", 0, &errs.DecodeError{Operation: "decode name", Offset: pos, Message: "too many compression pointer hops"}
			}

			pos = target
			continue
		}

		if length == 0 {
			if !jumped {
				advance = pos - offset + 1
			}
			break
		}

		if length > maxLabelLength {
			return "", 0, &errs.DecodeError{Operation: "decode name", Offset: pos, Message: "label exceeds 63 bytes"}
		}

		start := pos + 1
		end := start + int(length)
		if end > len(msg) {
			return "", 0, &errs.DecodeError{Operation: "decode name", Offset: pos, Message: "truncated label"}
		}

		labels = append(labels, string(msg[start:end]))
		pos = end
	}

	return strings.Join(labels, "."), advance, nil
}
