// Package collate folds the record lists a Collector cycle gathers into a
// name-keyed aggregate view of discovered services and addresses.
package collate

import (
	"mdnsresolve/wire"
)

// servicesRoot is the well-known DNS-SD meta-query name enumerating
// registered service types on the local network (RFC 6763 §9).
const servicesRoot = "_services._dns-sd._udp.local"

// Entry is the aggregate view of everything learnt about one record name
// across a collection: the fields are all optional and are populated only
// as matching records are seen.
type Entry struct {
	IP           string
	Port         uint16
	HasIP        bool
	HasPort      bool
	Info         map[string]string
	ServiceTypes []string
	Instances    []string
	Hostnames    []string
}

// Collate folds one or more per-datagram record batches into a map keyed
// by record name. Running it twice over the same input yields the same
// map (no hidden ordering-dependent state survives a call).
func Collate(batches ...[]wire.ResourceRecord) map[string]*Entry {
	out := make(map[string]*Entry)

	for _, batch := range batches {
		for _, rec := range batch {
			entry, ok := out[rec.Name]
			if !ok {
				entry = &Entry{}
				out[rec.Name] = entry
			}

			switch decoded := rec.Decoded.(type) {
			case wire.A:
				entry.IP = decoded.String()
				entry.HasIP = true

			case wire.SRV:
				entry.Port = decoded.Port
				entry.HasPort = true
				entry.Hostnames = appendUnique(entry.Hostnames, decoded.Target)

			case wire.PTR:
				if rec.Name == servicesRoot {
					entry.ServiceTypes = appendUnique(entry.ServiceTypes, decoded.Target)
				} else {
					entry.Instances = appendUnique(entry.Instances, decoded.Target)
				}

			case wire.TXT:
				entry.Info = decoded.Map()
			}
		}
	}

	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
