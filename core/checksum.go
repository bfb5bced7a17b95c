package core

import (
	"encoding/binary"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NormalizeContent canonicalizes document body text for checksumming:
// case-folded and with all whitespace runs collapsed to single spaces.
// Two bodies that differ only in casing or spacing normalize identically.
func NormalizeContent(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ChecksumContent computes the content checksum of a document body.
// It is a pure function of the normalized body text.
func ChecksumContent(body string) ID {
	return IDFromContent(NormalizeContent(body))
}
