// Package hash derives broker-safe resource names from user-supplied
// queue names.
package hash

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// maxNameLen caps derived consumer names well under the broker's limit,
// leaving room for prefixes added by callers.
const maxNameLen = 48

// ConsumerName derives a broker-safe consumer name from a prefix and a
// queue name.
//
// Invalid characters in the queue name are replaced with underscores and
// a short XXH3 digest of the original name is appended, so two queue
// names that sanitize to the same string still get distinct consumers.
//
// Parameters:
//   - prefix: Consumer naming prefix (e.g. "reflow")
//   - queue: The user-supplied queue name
//
// Returns:
//   - string: A name safe to use as a NATS consumer name
func ConsumerName(prefix, queue string) string {
	digest := xxh3.HashString(queue)
	name := fmt.Sprintf("%s-%s-%08x", prefix, Sanitize(queue), uint32(digest))
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	return name
}

// Sanitize replaces characters that are invalid in NATS consumer names
// with underscores.
//
// NATS consumer name restrictions:
//   - Cannot contain whitespace
//   - Cannot contain . * > or path separators
//   - Cannot contain non-printable characters
func Sanitize(name string) string {
	var result strings.Builder
	result.Grow(len(name))

	for _, r := range name {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' ||
			r == '.' || r == '*' || r == '>' ||
			r == '/' || r == '\\' ||
			r < 32 || r == 127 {
			result.WriteRune('_')
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
