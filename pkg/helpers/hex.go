// Package helpers provides common utility functions used across the codebase.
package helpers

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ObjectIDLength is the canonical byte length of an on-chain object id.
const ObjectIDLength = 32

// HexToBytes converts a hex string (with or without 0x prefix) to bytes.
func HexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

// BytesToHex converts bytes to a hex string with 0x prefix.
func BytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// NormalizeObjectID expands a possibly short hex object id ("0x6") to its
// canonical 0x-prefixed 64-character form, the way on-chain hex literals
// are parsed.
func NormalizeObjectID(id string) (string, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "0x")
	if s == "" {
		return "", fmt.Errorf("empty object id")
	}
	if len(s) > ObjectIDLength*2 {
		return "", fmt.Errorf("object id too long: %s", id)
	}
	padded := leftPadHex(s)
	if _, err := hex.DecodeString(padded); err != nil {
		return "", fmt.Errorf("invalid object id %q: %w", id, err)
	}
	return "0x" + padded, nil
}

// IsObjectID reports whether s parses as a hex object id.
func IsObjectID(s string) bool {
	_, err := NormalizeObjectID(s)
	return err == nil
}

func leftPadHex(s string) string {
	return strings.Repeat("0", ObjectIDLength*2-len(s)) + s
}
