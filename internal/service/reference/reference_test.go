package reference

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var format = regexp.MustCompile(`^EH-[0-9A-Z]{9}$`)

func TestGenerator_Code(t *testing.T) {
	g := New()

	seen := make(map[string]struct{})
	for range 200 {
		ref, err := g.Code()
		require.NoError(t, err)
		assert.Regexp(t, format, ref)
		seen[ref] = struct{}{}
	}

	assert.Len(t, seen, 200)
}

func TestGenerator_CodeSkipsBiasedBytes(t *testing.T) {
	g := New()
	// 0xFF is above the last full cycle of the charset and must be skipped.
	src := bytes.Repeat([]byte{0xFF, 0x00, 0x0A}, 20)
	g.rand = bytes.NewReader(src)

	ref, err := g.Code()
	require.NoError(t, err)
	assert.Equal(t, "EH-0A0A0A0A0", ref)
}

func TestGenerator_UniqueRetriesOnCollision(t *testing.T) {
	g := New()

	calls := 0
	ref, err := g.Unique(context.Background(), func(ctx context.Context, ref string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.Regexp(t, format, ref)
	assert.Equal(t, 3, calls)
}

func TestGenerator_UniqueExhausted(t *testing.T) {
	g := New()

	_, err := g.Unique(context.Background(), func(ctx context.Context, ref string) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, ErrExhausted)
}
