package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault_CoversModelLabels(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 22, c.Len())

	for _, label := range []string{"rice", "maize", "jute", "coffee", "kidneybeans"} {
		e, err := c.Lookup(label)
		require.NoError(t, err, label)
		assert.NotEmpty(t, e.Description)
		assert.Equal(t, "/static/images/crops/"+label+".jpg", e.Image)
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	e, err := c.Lookup("  Rice ")
	require.NoError(t, err)
	assert.Equal(t, "rice", e.Label)
}

func TestLookup_Unknown(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.Lookup("durian")
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestParse_RejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte("crops:\n  - label: rice\n  - label: RICE\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("crops:\n  - description: nothing\n"))
	assert.Error(t, err)
}

func TestList_Pages(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	first := c.List(0, 5)
	require.Len(t, first, 5)
	assert.Equal(t, "rice", first[0].Label)

	last := c.List(20, 5)
	assert.Len(t, last, 2)

	assert.Empty(t, c.List(30, 5))
	assert.Empty(t, c.List(0, 0))
}

func TestLoad_FileAndRoundTrip(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	out, err := yaml.Marshal(c)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.Len(), loaded.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
