// Package ulid generates prefixed ULIDs for pullcheck entities.
//
// ULIDs are lexicographically sortable by creation time, which keeps
// review history ordered in the database without a separate sequence.
package ulid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for the different parts of the application
const (
	// PrefixReview is used for review run IDs
	PrefixReview = "rev"

	// PrefixComment is used for extracted comment IDs
	PrefixComment = "cmt"

	// PrefixRequest is used for request IDs
	PrefixRequest = "req"

	// PrefixSeparator separates the prefix from the ULID
	PrefixSeparator = "_"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// Generate creates a new ULID string with the current timestamp
func Generate() string {
	entropyLock.Lock()
	defer entropyLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// GenerateWithPrefix creates a new ULID with the given prefix,
// e.g. "rev_01HV2K3J8Q..."
func GenerateWithPrefix(prefix string) string {
	if prefix == "" {
		return Generate()
	}
	return prefix + PrefixSeparator + Generate()
}

// ReviewID generates an ID for a review run
func ReviewID() string {
	return GenerateWithPrefix(PrefixReview)
}

// CommentID generates an ID for an extracted comment
func CommentID() string {
	return GenerateWithPrefix(PrefixComment)
}

// RequestID generates an ID for an outbound request
func RequestID() string {
	return GenerateWithPrefix(PrefixRequest)
}

// Parse validates a possibly prefixed ULID string and returns its prefix
// and the underlying ULID
func Parse(s string) (prefix string, id ulid.ULID, err error) {
	raw := s
	if idx := strings.LastIndex(s, PrefixSeparator); idx >= 0 {
		prefix = s[:idx]
		raw = s[idx+1:]
	}

	id, err = ulid.ParseStrict(raw)
	if err != nil {
		return "", ulid.ULID{}, fmt.Errorf("parsing ulid %q: %w", s, err)
	}

	return prefix, id, nil
}

// Time extracts the timestamp embedded in a possibly prefixed ULID string
func Time(s string) (time.Time, error) {
	_, id, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()), nil
}
