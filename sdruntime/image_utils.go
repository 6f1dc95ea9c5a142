package sdruntime

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // remote backends may return JPEG
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// PNG magic bytes for file identification
var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Image validation errors
var (
	ErrImageEmpty       = errors.New("sdruntime: image data is empty")
	ErrImageNotPNG      = errors.New("sdruntime: image data is not a valid PNG")
	ErrImageTooSmall    = errors.New("sdruntime: image data too small to be valid")
	ErrImageDecodeFail  = errors.New("sdruntime: failed to decode image")
	ErrImageInvalidSize = errors.New("sdruntime: invalid image dimensions")
)

// IsPNG checks if the given data starts with PNG magic bytes.
func IsPNG(data []byte) bool {
	if len(data) < len(pngMagic) {
		return false
	}
	return bytes.Equal(data[:len(pngMagic)], pngMagic)
}

// ValidateImageData validates that data is a decodable PNG image.
func ValidateImageData(data []byte) error {
	if len(data) == 0 {
		return ErrImageEmpty
	}

	// signature (8) + IHDR (25) + IEND (12)
	if len(data) < 45 {
		return ErrImageTooSmall
	}

	if !IsPNG(data) {
		return ErrImageNotPNG
	}

	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrImageDecodeFail, err)
	}

	return nil
}

// EncodeToPNG encodes raw RGBA pixels (4 bytes per pixel) to PNG.
func EncodeToPNG(pixels []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrImageInvalidSize, width, height)
	}

	expectedLen := ImageDataSize(width, height)
	if len(pixels) != expectedLen {
		return nil, fmt.Errorf("%w: expected %d bytes for %dx%d RGBA, got %d",
			ErrImageInvalidSize, expectedLen, width, height, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pixels)

	return encodePNG(img)
}

// ToRGBA expands packed pixels with 1 (gray), 3 (RGB) or 4 (RGBA) channels
// to RGBA. Alpha is set opaque when the source has none.
func ToRGBA(pixels []byte, channels int) ([]byte, error) {
	switch channels {
	case 4:
		return pixels, nil
	case 1, 3:
	default:
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrImageInvalidSize, channels)
	}
	if len(pixels)%channels != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d channels",
			ErrImageInvalidSize, len(pixels), channels)
	}

	n := len(pixels) / channels
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		src := pixels[i*channels : i*channels+channels]
		dst := out[i*4 : i*4+4]
		if channels == 1 {
			dst[0], dst[1], dst[2] = src[0], src[0], src[0]
		} else {
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
		}
		dst[3] = 0xff
	}
	return out, nil
}

// ImageDataSize calculates the byte size needed for RGBA image data.
func ImageDataSize(width, height int) int {
	return width * height * 4
}

// NormalizeImage decodes backend output (PNG or JPEG), scales it to exactly
// width x height with Catmull-Rom when the size differs, and returns PNG bytes.
// Data that is already a PNG of the right size is returned unchanged.
func NormalizeImage(data []byte, width, height int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrImageEmpty
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrImageInvalidSize, width, height)
	}

	w, h, err := DecodeSize(data)
	if err != nil {
		return nil, err
	}
	if IsPNG(data) && w == width && h == height {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecodeFail, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return encodePNG(img)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
	return encodePNG(scaled)
}

// DecodeSize returns the pixel dimensions of an encoded image without
// decoding the pixel data.
func DecodeSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrImageDecodeFail, err)
	}
	return cfg.Width, cfg.Height, nil
}

// WriteImageFile writes data to path, creating parent directories. The file
// is written to a temp file in the same directory and renamed into place so
// readers never observe a half-written image.
func WriteImageFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrOutputWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecodeFail, err)
	}
	return buf.Bytes(), nil
}
