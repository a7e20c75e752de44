package gameid

import (
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	id := New(PrefixHand)
	require.True(t, strings.HasPrefix(id, "hand_"))
	assert.Len(t, id, len("hand_")+26)
	assert.NoError(t, Validate(id, PrefixHand))
}

func TestGeneratorSortsWithinSameMillisecond(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	gen := NewGenerator(mClock, NewMockRandSource(9, 9, 9, 9, 9, 9, 9, 9))

	var ids []string
	for range 5 {
		ids = append(ids, gen.New(PrefixSideGame))
	}
	mClock.Advance(time.Millisecond)
	ids = append(ids, gen.New(PrefixSideGame))

	seen := map[string]bool{}
	for i, id := range ids {
		require.NoError(t, Validate(id, PrefixSideGame))
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		if i > 0 {
			assert.Less(t, ids[i-1], id)
		}
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	a := NewGenerator(mClock, NewMockRandSource(1, 2, 3, 4, 5, 6, 7, 8)).New(PrefixHand)
	b := NewGenerator(mClock, NewMockRandSource(1, 2, 3, 4, 5, 6, 7, 8)).New(PrefixHand)
	assert.Equal(t, a, b)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		prefix  string
		wantErr bool
	}{
		{"valid", "hand_01h5n0et5q6mt3v7ms1234abcd", PrefixHand, false},
		{"any prefix", "sg_01h5n0et5q6mt3v7ms1234abcd", "", false},
		{"wrong prefix", "sg_01h5n0et5q6mt3v7ms1234abcd", PrefixHand, true},
		{"missing separator", "01h5n0et5q6mt3v7ms1234abcd", "", true},
		{"too short", "hand_01h5n0et5q6mt3v7ms123", PrefixHand, true},
		{"first char too high", "hand_81h5n0et5q6mt3v7ms1234abcd", PrefixHand, true},
		{"invalid character", "hand_01h5n0et5q6mt3v7ms1234abci", PrefixHand, true},
		{"uppercase prefix", "Hand_01h5n0et5q6mt3v7ms1234abcd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.id, tt.prefix)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAlphabet(t *testing.T) {
	t.Parallel()

	require.Len(t, alphabet, 32)
	seen := make(map[rune]bool)
	for _, char := range alphabet {
		assert.False(t, seen[char], "duplicate character %c", char)
		seen[char] = true
	}
	for _, char := range "ilou" {
		assert.NotContains(t, alphabet, string(char))
	}
}

// MockRandSource for deterministic testing
type MockRandSource struct {
	values []int
	index  int
}

func NewMockRandSource(values ...int) *MockRandSource {
	return &MockRandSource{values: values}
}

func (m *MockRandSource) Intn(n int) int {
	if len(m.values) == 0 {
		return 0
	}
	val := m.values[m.index%len(m.values)] % n
	m.index++
	return val
}
