// Package idgen generates identifiers for readstyle requests and analyses.
// The default is UUIDv7, so IDs sort by creation time in logs.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator returns a new unique identifier on each call.
type Generator func() string

// UUIDv7 generates RFC 9562 version 7 UUIDs.
func UUIDv7() Generator {
	return func() string { return uuid.Must(uuid.NewV7()).String() }
}

// Prefixed tags every ID of gen with prefix ("msg_", "ana_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string { return prefix + gen() }
}

// Default backs New.
var Default Generator = UUIDv7()

// Message and Analysis tag request IDs by origin.
var (
	Message  = Prefixed("msg_", Default)
	Analysis = Prefixed("ana_", Default)
)

// New returns an ID from Default.
func New() string { return Default() }

// Parse checks that s is a UUID and returns its canonical form. Prefixed IDs
// must be stripped first.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("idgen: %q: %w", s, err)
	}
	return u.String(), nil
}
