package mail

import "strings"

// ValidAddress reports whether value looks like a deliverable address: non-blank
// and containing "@". Anything stricter is left to the provider.
func ValidAddress(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && strings.Contains(value, "@")
}

// FilterAddresses splits the input into valid addresses (trimmed, deduplicated
// case-insensitively, first occurrence wins) and the rejected raw values.
func FilterAddresses(addresses []string) (valid []string, rejected []string) {
	seen := make(map[string]struct{}, len(addresses))
	for _, raw := range addresses {
		if !ValidAddress(raw) {
			rejected = append(rejected, raw)
			continue
		}
		addr := strings.TrimSpace(raw)
		key := strings.ToLower(addr)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, addr)
	}
	return valid, rejected
}
