package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesAreOrderedAndEventsComeFirst(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	assert.Equal(t, "0001_events.sql", names[0], "claims reference events, so events must be created first")
	assert.IsNonDecreasing(t, names)
}

func TestMigrationsAreNotEmpty(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	for _, name := range names {
		body, err := files.ReadFile(name)
		require.NoError(t, err)
		assert.NotEmpty(t, body, name)
	}
}
