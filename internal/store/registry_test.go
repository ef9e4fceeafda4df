package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriberRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscribers.json")

	r, err := OpenRegistry(path)
	require.NoError(t, err)

	require.NoError(t, r.Add("u2"))
	require.NoError(t, r.Add("u1"))
	require.NoError(t, r.Add("u1"), "re-adding is a no-op")

	assert.True(t, r.Contains("u1"))
	assert.False(t, r.Contains("u3"))
	assert.Equal(t, []string{"u1", "u2"}, r.List())

	require.NoError(t, r.Remove("u2"))
	require.NoError(t, r.Remove("u2"), "re-removing is a no-op")
	assert.Equal(t, []string{"u1"}, r.List())
}

func TestSubscriberRegistryPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscribers.json")

	r, err := OpenRegistry(path)
	require.NoError(t, err)
	require.NoError(t, r.Add("u1"))
	require.NoError(t, r.Add("u2"))

	reopened, err := OpenRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, reopened.List())
}
