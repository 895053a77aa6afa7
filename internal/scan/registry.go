package scan

import (
	"sort"
	"strings"
)

// Registry is the read-only mapping from competitor domain suffixes to short
// competitor keys. It is built once at startup and injected into the
// components that need it.
type Registry struct {
	domains map[string]string
	keys    []string
}

// NewRegistry builds a Registry from a domain-to-key mapping.
func NewRegistry(domains map[string]string) Registry {
	cloned := make(map[string]string, len(domains))
	keys := make([]string, 0, len(domains))
	for domain, key := range domains {
		cloned[strings.ToLower(domain)] = key
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return Registry{domains: cloned, keys: keys}
}

// DefaultRegistry returns the built-in set of tracked storefronts.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]string{
		"coastalbeauty.ca":  "coastalbeauty",
		"beautywellness.ca": "beautywellness",
		"shopempire.ca":     "shopempire",
		"matandmax.com":     "matandmax",
		"shoptbbs.ca":       "shoptbbs",
		"liviabeauty.ca":    "liviabeauty",
		"aonebeauty.com":    "aonebeauty",
		"cosmeticworld.ca":  "cosmeticworld",
	})
}

// Resolve maps a hostname to a competitor key. The lookup is a substring
// match so subdomains like shop.coastalbeauty.ca still resolve.
func (r Registry) Resolve(host string) (string, bool) {
	host = strings.ToLower(host)
	if host == "" {
		return "", false
	}
	for domain, key := range r.domains {
		if strings.Contains(host, domain) {
			return key, true
		}
	}
	return "", false
}

// Keys returns the competitor keys in stable sorted order.
func (r Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Domains returns the registered domain suffixes in stable sorted order.
func (r Registry) Domains() []string {
	domains := make([]string, 0, len(r.domains))
	for domain := range r.domains {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}

// Len reports the number of registered competitors.
func (r Registry) Len() int {
	return len(r.domains)
}
