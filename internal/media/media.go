// ABOUTME: Image loading for post attachments and profile pictures
// ABOUTME: Validates format by content, downsizes oversized images and encodes data URIs

package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/markalston/networkhub/internal/client"
)

const (
	// MaxFileSize caps images read from disk
	MaxFileSize = 10 << 20
	// MaxDimension is the longest edge kept before an image is downscaled
	MaxDimension = 1600

	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
	MIMETypeWebP = "image/webp"
	MIMETypeBMP  = "image/bmp"
	MIMETypeTIFF = "image/tiff"
)

var (
	// ErrUnsupportedType is returned for files that are not a supported image format
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned for files over MaxFileSize
	ErrTooLarge = errors.New("image too large")
)

//nolint:gochecknoglobals
var (
	formatTypes = map[string]string{
		"jpeg": MIMETypeJPEG,
		"png":  MIMETypePNG,
		"gif":  MIMETypeGIF,
		"webp": MIMETypeWebP,
		"bmp":  MIMETypeBMP,
		"tiff": MIMETypeTIFF,
	}

	imageExts = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
		".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
	}

	// formats without an encoder here are re-encoded as PNG
	imageEncoders = map[string]func(io.Writer, image.Image) error{
		MIMETypeJPEG: func(w io.Writer, i image.Image) error { return jpeg.Encode(w, i, &jpeg.Options{Quality: 85}) },
		MIMETypePNG:  png.Encode,
		MIMETypeGIF:  func(w io.Writer, i image.Image) error { return gif.Encode(w, i, nil) },
		MIMETypeBMP:  bmp.Encode,
		MIMETypeTIFF: func(w io.Writer, i image.Image) error { return tiff.Encode(w, i, nil) },
	}
)

// Image is a validated image file held in memory
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// IsImageFile reports whether path has a supported image extension
func IsImageFile(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// Load reads and validates the image at path
func Load(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedType, path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read image: %w", err)
	}
	return Decode(filepath.Base(path), data)
}

// Decode validates data by its content, not its file name
func Decode(filename string, data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filename)
	}
	ctype, ok := formatTypes[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, format)
	}
	return &Image{
		Filename:    filename,
		ContentType: ctype,
		Data:        data,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// Fit downsizes the image so neither edge exceeds maxDim, keeping the aspect
// ratio. Images already within bounds are returned unchanged.
func (img *Image) Fit(maxDim int) (*Image, error) {
	if maxDim <= 0 || (img.Width <= maxDim && img.Height <= maxDim) {
		return img, nil
	}

	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	w, h := img.Width, img.Height
	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	w, h = max(w, 1), max(h, 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	ctype := img.ContentType
	encode, ok := imageEncoders[ctype]
	if !ok {
		ctype = MIMETypePNG
		encode = png.Encode
	}
	var buf bytes.Buffer
	if err := encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	filename := img.Filename
	if ctype != img.ContentType {
		filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".png"
	}
	return &Image{Filename: filename, ContentType: ctype, Data: buf.Bytes(), Width: w, Height: h}, nil
}

// DataURI encodes the image as data:<type>;base64,<payload>
func (img *Image) DataURI() string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Upload converts the image into a multipart upload
func (img *Image) Upload() client.ImageUpload {
	return client.ImageUpload{Filename: img.Filename, ContentType: img.ContentType, Data: img.Data}
}

// Describe returns a short human summary such as "photo.png 640x480 12.0 KB"
func (img *Image) Describe() string {
	return fmt.Sprintf("%s %dx%d %s", img.Filename, img.Width, img.Height, humanSize(len(img.Data)))
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
