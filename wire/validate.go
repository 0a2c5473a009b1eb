package wire

import (
	"strings"

	"mdnsresolve/errs"
)

// maxNameLength is the RFC 1035 §3.1 wire-format ceiling: the last label's
// length octet, every label's octet-plus-bytes, and the zero terminator
// must together fit in 255 bytes.
const maxNameLength = 255

// validateName checks a query name's wire-format length up front, so a
// caller gets a clear ValidationError instead of a length-accounting
// mismatch partway through label encoding. Unlike a strict RFC 1035
// hostname, label character sets are not restricted here: DNS-SD instance
// names (RFC 6763 §4.1.1) routinely contain spaces, mixed case and
// punctuation that RFC 1035 §3.1 disallows for ordinary hostnames.
func validateName(name string) error {
	if name == "" {
		return &errs.ValidationError{Field: "name", Value: name, Message: "name must not be empty"}
	}

	trimmed := strings.TrimSuffix(name, ".")
	labels := strings.Split(trimmed, ".")

	wireLength := 1 // zero terminator
	for _, label := range labels {
		if label == "" {
			continue // encodeName skips empty labels from stray/doubled dots
		}
		if len(label) > maxLabelLength {
			return &errs.ValidationError{Field: "name", Value: name, Message: "label exceeds 63 bytes"}
		}
		wireLength += 1 + len(label)
	}

	if wireLength > maxNameLength {
		return &errs.ValidationError{Field: "name", Value: name, Message: "name exceeds 255-byte wire format limit"}
	}

	return nil
}
