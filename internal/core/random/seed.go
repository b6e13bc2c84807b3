// Package random provides cryptographic seed generation helpers.
//
// It uses crypto/rand to generate high-entropy base seeds for surveys when
// the caller does not pin one.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}

// Derive mixes a retry attempt into a base seed. Attempt 0 returns seed
// unchanged so the first try of every run stays on its survey seed.
func Derive(seed uint64, attempt int) uint64 {
	if attempt <= 0 {
		return seed
	}
	z := seed + uint64(attempt)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// ParseSeed reads a decimal seed. Surrounding space is ignored.
func ParseSeed(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: must be an unsigned 64-bit integer", s)
	}
	return v, nil
}
