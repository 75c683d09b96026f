package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FirstMatchWins(t *testing.T) {
	insta, err := NewCommandExtractor("instagram", `^https://instagram\.com/`, "echo", nil, 0)
	require.NoError(t, err)
	catchAll := NewGalleryDL("gallery-dl", 0)

	r := NewRegistry()
	r.Register(insta)
	r.Register(catchAll)

	assert.Equal(t, "instagram", r.Match("https://instagram.com/p/abc").Name())
	assert.Equal(t, "gallery-dl", r.Match("https://example.com/gallery/1").Name())
	assert.Len(t, r.Extractors(), 2)
}

func TestRegistry_NoMatch(t *testing.T) {
	insta, err := NewCommandExtractor("instagram", `^https://instagram\.com/`, "echo", nil, 0)
	require.NoError(t, err)

	r := NewRegistry()
	r.Register(insta)

	assert.Nil(t, r.Match("https://example.com/x"))
	assert.Nil(t, NewRegistry().Match("https://example.com/x"))
}
