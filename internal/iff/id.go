package iff

import (
	"fmt"
	"unicode/utf8"
)

// ID is a 4-byte chunk identifier.
//
// IDs are opaque keys: equality and map use only, no ordering semantics.
type ID [4]byte

// IDOf builds an ID from a 4-character string. It panics on any other
// length, so it is only for package-level constants and literals.
func IDOf(s string) ID {
	if len(s) != 4 {
		panic(fmt.Sprintf("iff: id %q is not 4 bytes", s))
	}
	var id ID
	copy(id[:], s)
	return id
}

// String renders the identifier as text when it is valid UTF-8,
// otherwise as raw bytes.
func (id ID) String() string {
	if utf8.Valid(id[:]) {
		return string(id[:])
	}
	return fmt.Sprintf("% x", id[:])
}
