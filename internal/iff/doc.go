// Package iff parses the IFF-style envelope used by BEAM compiled modules.
//
// An envelope is a "FOR1" magic marker, a big-endian payload size, a "BEAM"
// form type, and a sequence of named length-prefixed chunks padded to 4-byte
// boundaries. Scanning records chunk positions only; chunk bodies are never
// read during the scan.
package iff
