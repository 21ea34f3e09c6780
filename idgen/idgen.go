// Package idgen provides pluggable ID generation for gcdserver.
//
// Constructors that mint identifiers (the snapshot assembler, the audit
// logger) accept a Generator, making the ID strategy a startup-time decision
// rather than a compile-time one.
package idgen

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv4 returns a Generator producing random RFC 9562 UUID v4 strings.
// Snapshot collection identifiers use this: 122 random bits, no embedded
// ordering, so concurrent generations for the same run can never collide
// on anything but chance.
func UUIDv4() Generator {
	return func() string {
		return uuid.New().String()
	}
}

// NanoID returns a Generator that produces base-36 IDs of the given length.
// Use only where a UUID is too verbose (e.g. short-lived audit event keys).
func NanoID(length int) Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	return func() string {
		b := make([]byte, length)
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		for i := range b {
			b[i] = alphabet[int(buf[i])%len(alphabet)]
		}
		return string(b)
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
// Useful for type-scoped identifiers (e.g. "evt_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is the gcdserver default: random UUIDv4.
var Default Generator = UUIDv4()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// Parse validates a UUID string and returns its canonical form or an error.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID: %w", err)
	}
	return u.String(), nil
}
