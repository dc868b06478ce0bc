package assets

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	assert.Contains(t, string(Index), "<title>Earthquakes and Tectonic Plates</title>")
	assert.Contains(t, string(Favicon), "<svg")
}

func TestRetryReloadsViewWhenMapMissing(t *testing.T) {
	src, err := os.ReadFile("script.js")
	require.NoError(t, err)

	assert.Contains(t, string(src), `addEventListener("click", retry)`)
	assert.Contains(t, string(src), "map === null ? init() : loadScene()")
}
