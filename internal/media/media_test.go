// ABOUTME: Tests for image loading and encoding
// ABOUTME: Generates images in memory instead of shipping fixtures

package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoad_PNG(t *testing.T) {
	path := writeFile(t, "avatar.png", pngBytes(t, 4, 3))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "avatar.png", img.Filename)
	assert.Equal(t, MIMETypePNG, img.ContentType)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)
}

func TestLoad_DetectsByContent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	path := writeFile(t, "mislabelled.png", buf.Bytes())

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MIMETypeBMP, img.ContentType)
}

func TestLoad_Rejects(t *testing.T) {
	text := writeFile(t, "notes.png", []byte("definitely not an image"))
	_, err := Load(text)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Load(t.TempDir())
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestDataURI(t *testing.T) {
	data := pngBytes(t, 1, 1)
	img, err := Decode("dot.png", data)
	require.NoError(t, err)

	uri := img.DataURI()
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestFit(t *testing.T) {
	img, err := Decode("wide.png", pngBytes(t, 400, 100))
	require.NoError(t, err)

	same, err := img.Fit(400)
	require.NoError(t, err)
	assert.Same(t, img, same, "images within bounds are not re-encoded")

	small, err := img.Fit(100)
	require.NoError(t, err)
	assert.Equal(t, 100, small.Width)
	assert.Equal(t, 25, small.Height)
	assert.Equal(t, MIMETypePNG, small.ContentType)

	check, err := Decode(small.Filename, small.Data)
	require.NoError(t, err)
	assert.Equal(t, 100, check.Width)
}

func TestUpload(t *testing.T) {
	img, err := Decode("me.png", pngBytes(t, 2, 2))
	require.NoError(t, err)

	up := img.Upload()
	assert.Equal(t, "me.png", up.Filename)
	assert.Equal(t, MIMETypePNG, up.ContentType)
	assert.Equal(t, img.Data, up.Data)
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("/tmp/a.JPG"))
	assert.True(t, IsImageFile("b.webp"))
	assert.False(t, IsImageFile("c.json"))
	assert.False(t, IsImageFile("noext"))
}

func TestDescribe(t *testing.T) {
	img := &Image{Filename: "x.png", Width: 10, Height: 20, Data: make([]byte, 2048)}
	assert.Equal(t, "x.png 10x20 2.0 KB", img.Describe())
}
