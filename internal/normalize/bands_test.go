package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceBands_Suspicious(t *testing.T) {
	bands := DefaultBands()

	assert.False(t, bands.Suspicious("ekmek", 10))
	assert.True(t, bands.Suspicious("ekmek", 100))
	assert.True(t, bands.Suspicious("ekmek", 1))
	assert.False(t, bands.Suspicious("Tam Buğday EKMEK", 10), "keyword match is case-insensitive and substring-based")
	assert.False(t, bands.Suspicious("bilinmeyen ürün", 99999), "unknown products are never suspicious")
}

func TestLoadBands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bands.yaml")
	content := `price_bands:
  ekmek:
    min: 3
    max: 15
  süt:
    min: 15
    max: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	bands, err := LoadBands(path)
	require.NoError(t, err)
	assert.Len(t, bands, 2)
	assert.Equal(t, PriceBand{Min: 3, Max: 15}, bands["ekmek"])
	assert.True(t, bands.Suspicious("süt", 60))
}

func TestLoadBands_MissingFile(t *testing.T) {
	_, err := LoadBands("/nonexistent/bands.yaml")
	require.Error(t, err)
}

func TestLoadBands_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("price_bands: {}\n"), 0o644))

	_, err := LoadBands(path)
	require.Error(t, err)
}
