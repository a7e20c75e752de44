// Package gameid mints sortable identifiers for hands and side games.
//
// An id is a TypeID: a short lowercase prefix, an underscore and a UUIDv7
// encoded as 26 characters of Crockford base32, for example
// "hand_01h5n0et5q6mt3v7ms1234abcd". Ids from one generator sort by the time
// they were minted.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/coder/quartz"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

const suffixLen = 26

// Prefixes used across the module.
const (
	PrefixHand     = "hand"
	PrefixSideGame = "sg"
	PrefixTable    = "tbl"
)

// RandSource interface for dependency injection of randomness
type RandSource interface {
	Intn(n int) int
}

// Generator mints ids from a clock and an optional RandSource. A nil
// RandSource reads from crypto/rand.
type Generator struct {
	clock      quartz.Clock
	randSource RandSource
	lastMilli  int64
	seq        uint16
}

// NewGenerator creates a generator. A nil clock uses the real clock.
func NewGenerator(clock quartz.Clock, randSource RandSource) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{clock: clock, randSource: randSource}
}

// New returns a fresh id with the given prefix using the real clock.
func New(prefix string) string {
	return NewGenerator(nil, nil).New(prefix)
}

// New returns a fresh id with the given prefix.
func (g *Generator) New(prefix string) string {
	return prefix + "_" + encodeBase32(g.uuidV7())
}

// uuidV7 builds a 128-bit UUIDv7. Ids minted within the same millisecond
// carry an increasing 12-bit sequence in the rand_a field so they still sort.
func (g *Generator) uuidV7() [16]byte {
	var uuid [16]byte

	now := g.clock.Now().UnixMilli()
	if now <= g.lastMilli {
		now = g.lastMilli
		g.seq++
	} else {
		g.lastMilli = now
		g.seq = 0
	}

	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	if g.randSource != nil {
		for i := 8; i < 16; i++ {
			uuid[i] = byte(g.randSource.Intn(256))
		}
	} else if _, err := rand.Read(uuid[8:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}

	// version 7 in the high nibble, sequence in the remaining 12 bits
	uuid[6] = 0x70 | byte(g.seq>>8)&0x0f
	uuid[7] = byte(g.seq)

	// variant 10
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return uuid
}

// encodeBase32 encodes 128 bits as 26 base32 characters. The leading
// character carries only three bits, so it is always 0-7.
func encodeBase32(data [16]byte) string {
	result := make([]byte, suffixLen)

	// Treat the input as a 130-bit number with two leading zero bits.
	for i := range suffixLen {
		bitOffset := i*5 - 2
		var value uint8
		for b := range 5 {
			pos := bitOffset + b
			if pos < 0 {
				continue
			}
			bit := (data[pos/8] >> (7 - pos%8)) & 1
			value = value<<1 | bit
		}
		if bitOffset < 0 {
			value &= 0x07
		}
		result[i] = alphabet[value]
	}

	return string(result)
}

// Validate checks an id against the expected prefix. An empty prefix accepts
// any lowercase prefix.
func Validate(id, prefix string) error {
	p, suffix, ok := strings.Cut(id, "_")
	if !ok {
		return fmt.Errorf("id %q has no prefix separator", id)
	}
	if prefix != "" && p != prefix {
		return fmt.Errorf("id %q: expected prefix %q, got %q", id, prefix, p)
	}
	if p == "" || strings.ToLower(p) != p {
		return fmt.Errorf("id %q: prefix must be non-empty lowercase", id)
	}

	if len(suffix) != suffixLen {
		return fmt.Errorf("id suffix must be exactly %d characters, got %d", suffixLen, len(suffix))
	}
	if suffix[0] > '7' {
		return fmt.Errorf("id suffix first character must be 0-7, got %c", suffix[0])
	}
	for i, char := range suffix {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}

	return nil
}
