package uuid

import (
	"testing"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerator_NewID(t *testing.T) {
	t.Parallel()

	gen := New()
	id, err := gen.NewID()
	require.NoError(t, err)

	parsed, err := guuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, guuid.Version(7), parsed.Version())
}

func TestGenerator_NewRawID(t *testing.T) {
	t.Parallel()

	gen := New()
	id, err := gen.NewRawID()
	require.NoError(t, err)
	require.NotEqual(t, guuid.Nil, id)
	require.Equal(t, guuid.Version(7), id.Version())
}

func TestGenerator_IDsAreUnique(t *testing.T) {
	t.Parallel()

	gen := New()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := gen.NewID()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
