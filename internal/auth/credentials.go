package auth

import (
	"fmt"
	"strings"
)

// parseCredentials parses a "viewer:secret" style list. Entries are comma
// separated and split at the first colon, so secrets may contain colons.
// The result maps the left side to the right side of each entry.
func parseCredentials(kind, left, right, config string) (map[string]string, error) {
	trimmed := strings.TrimSpace(config)
	if trimmed == "" {
		return nil, fmt.Errorf("%s auth: config must not be empty", kind)
	}

	pairs := make(map[string]string)
	for _, entry := range strings.Split(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		l, r, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("%s auth: invalid entry format, expected %s:%s", kind, left, right)
		}

		l, r = strings.TrimSpace(l), strings.TrimSpace(r)
		if l == "" || r == "" {
			return nil, fmt.Errorf("%s auth: %s and %s must not be empty", kind, left, right)
		}
		pairs[l] = r
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%s auth: no valid entries found", kind)
	}

	return pairs, nil
}
