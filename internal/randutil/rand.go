package randutil

import (
	crand "crypto/rand"
	"encoding/binary"
	rand "math/rand/v2"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// Every deck, bot and coin flip in a table derives its stream from here so a
// seeded table replays identically.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns a fresh seed from the operating system's entropy source, for
// tables configured without a fixed seed.
func Seed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("randutil: failed to read entropy: " + err.Error())
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// Fork derives an independent child stream so that consumers sharing a table
// seed (deck, bots, id generation) do not perturb each other's sequences.
func Fork(parent *rand.Rand) *rand.Rand {
	return New(parent.Int64())
}

// Intn adapts a *rand.Rand to the Intn(n) shape used by id generators.
type Intn struct {
	R *rand.Rand
}

func (s Intn) Intn(n int) int {
	return s.R.IntN(n)
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
