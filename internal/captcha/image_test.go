package captcha

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG("AB12")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, imageWidth, bounds.Dx())
	assert.Equal(t, imageHeight, bounds.Dy())
}

func TestRenderPNG_DiffersPerCode(t *testing.T) {
	a, err := RenderPNG("AAAA")
	require.NoError(t, err)

	b, err := RenderPNG("ZZZZ")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
