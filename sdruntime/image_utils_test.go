package sdruntime

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestIsPNG_ValidPNG(t *testing.T) {
	if !IsPNG(solidPNG(t, 10, 10, color.White)) {
		t.Error("expected IsPNG to return true for valid PNG")
	}
}

func TestIsPNG_InvalidData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"too short", []byte{0x89, 0x50}},
		{"wrong magic", []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"jpeg magic", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsPNG(tt.data) {
				t.Errorf("expected IsPNG to return false for %s", tt.name)
			}
		})
	}
}

func TestValidateImageData_Valid(t *testing.T) {
	err := ValidateImageData(solidPNG(t, 10, 10, color.Black))
	if err != nil {
		t.Errorf("expected no error for valid PNG, got: %v", err)
	}
}

func TestValidateImageData_Empty(t *testing.T) {
	err := ValidateImageData([]byte{})
	if err == nil {
		t.Error("expected error for empty data")
	}
	if !errors.Is(err, ErrImageEmpty) {
		t.Errorf("expected ErrImageEmpty, got: %v", err)
	}
}

func TestValidateImageData_TooSmall(t *testing.T) {
	err := ValidateImageData([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	if err == nil {
		t.Error("expected error for data too small")
	}
	if !errors.Is(err, ErrImageTooSmall) {
		t.Errorf("expected ErrImageTooSmall, got: %v", err)
	}
}

func TestValidateImageData_NotPNG(t *testing.T) {
	// Create data with wrong magic but sufficient length
	data := make([]byte, 100)
	data[0] = 0xFF // JPEG magic start

	err := ValidateImageData(data)
	if err == nil {
		t.Error("expected error for non-PNG data")
	}
	if !errors.Is(err, ErrImageNotPNG) {
		t.Errorf("expected ErrImageNotPNG, got: %v", err)
	}
}

func TestEncodeToPNG_Valid(t *testing.T) {
	width, height := 2, 2
	// Create RGBA pixel data (4 bytes per pixel)
	pixels := []byte{
		255, 0, 0, 255, // red
		0, 255, 0, 255, // green
		0, 0, 255, 255, // blue
		255, 255, 255, 255, // white
	}

	data, err := EncodeToPNG(pixels, width, height)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Verify result is valid PNG
	if !IsPNG(data) {
		t.Error("result should be valid PNG")
	}

	// Decode and verify dimensions
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		t.Errorf("expected %dx%d, got %dx%d", width, height, bounds.Dx(), bounds.Dy())
	}
}

func TestEncodeToPNG_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative width", -1, 10},
		{"negative height", 10, -1},
	}

	pixels := make([]byte, 400) // 10x10x4

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeToPNG(pixels, tt.width, tt.height)
			if err == nil {
				t.Error("expected error for invalid dimensions")
			}
		})
	}
}

func TestEncodeToPNG_WrongPixelDataLength(t *testing.T) {
	pixels := make([]byte, 10) // Wrong length for any reasonable image

	_, err := EncodeToPNG(pixels, 10, 10)
	if err == nil {
		t.Error("expected error for wrong pixel data length")
	}
	if !errors.Is(err, ErrImageInvalidSize) {
		t.Errorf("expected ErrImageInvalidSize, got: %v", err)
	}
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h, c)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeImage_SameSizePNGUnchanged(t *testing.T) {
	data := solidPNG(t, 64, 64, color.RGBA{R: 255, A: 255})

	out, err := NormalizeImage(data, 64, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("expected same-size PNG to pass through unchanged")
	}
}

func TestNormalizeImage_ScalesToRequestedSize(t *testing.T) {
	data := solidPNG(t, 32, 48, color.RGBA{R: 255, A: 255})

	out, err := NormalizeImage(data, 256, 320)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateImageData(out); err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}

	w, h, err := DecodeSize(out)
	if err != nil {
		t.Fatal(err)
	}
	if w != 256 || h != 320 {
		t.Errorf("expected 256x320, got %dx%d", w, h)
	}
}

func TestNormalizeImage_JPEGToPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solidImage(64, 64, color.White), nil); err != nil {
		t.Fatal(err)
	}

	out, err := NormalizeImage(buf.Bytes(), 64, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsPNG(out) {
		t.Error("expected JPEG input to be re-encoded as PNG")
	}
}

func TestNormalizeImage_Errors(t *testing.T) {
	if _, err := NormalizeImage(nil, 64, 64); !errors.Is(err, ErrImageEmpty) {
		t.Errorf("expected ErrImageEmpty, got: %v", err)
	}
	if _, err := NormalizeImage([]byte("not an image at all"), 64, 64); !errors.Is(err, ErrImageDecodeFail) {
		t.Errorf("expected ErrImageDecodeFail, got: %v", err)
	}
	if _, err := NormalizeImage(solidPNG(t, 8, 8, color.White), 0, 64); !errors.Is(err, ErrImageInvalidSize) {
		t.Errorf("expected ErrImageInvalidSize, got: %v", err)
	}
}

func TestWriteImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "generated.png")
	first := solidPNG(t, 8, 8, color.White)
	second := solidPNG(t, 16, 16, color.Black)

	if err := WriteImageFile(path, first); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteImageFile(path, second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, second) {
		t.Error("expected file to hold the second image")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}

func TestWriteImageFile_BadDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	err := WriteImageFile(filepath.Join(blocker, "generated.png"), []byte("x"))
	if !errors.Is(err, ErrOutputWrite) {
		t.Errorf("expected ErrOutputWrite, got: %v", err)
	}
}

func TestImageDataSize(t *testing.T) {
	if got := ImageDataSize(256, 256); got != 262144 {
		t.Errorf("ImageDataSize(256, 256) = %d, want 262144", got)
	}
}

func TestToRGBA(t *testing.T) {
	tests := []struct {
		name     string
		pixels   []byte
		channels int
		want     []byte
	}{
		{"rgb", []byte{1, 2, 3, 4, 5, 6}, 3, []byte{1, 2, 3, 0xff, 4, 5, 6, 0xff}},
		{"gray", []byte{7, 8}, 1, []byte{7, 7, 7, 0xff, 8, 8, 8, 0xff}},
		{"rgba passthrough", []byte{1, 2, 3, 4}, 4, []byte{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToRGBA(tt.pixels, tt.channels)
			if err != nil {
				t.Fatalf("ToRGBA() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ToRGBA() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToRGBA_Errors(t *testing.T) {
	if _, err := ToRGBA([]byte{1, 2}, 2); !errors.Is(err, ErrImageInvalidSize) {
		t.Errorf("2 channels: error = %v, want ErrImageInvalidSize", err)
	}
	if _, err := ToRGBA([]byte{1, 2, 3, 4}, 3); !errors.Is(err, ErrImageInvalidSize) {
		t.Errorf("ragged RGB: error = %v, want ErrImageInvalidSize", err)
	}
}

func TestToRGBA_EncodesToPNG(t *testing.T) {
	rgb := make([]byte, 4*2*3)
	for i := range rgb {
		rgb[i] = 0x80
	}
	rgba, err := ToRGBA(rgb, 3)
	if err != nil {
		t.Fatal(err)
	}
	data, err := EncodeToPNG(rgba, 4, 2)
	if err != nil {
		t.Fatalf("EncodeToPNG() error = %v", err)
	}
	if w, h, err := DecodeSize(data); err != nil || w != 4 || h != 2 {
		t.Errorf("DecodeSize() = %d, %d, %v, want 4, 2", w, h, err)
	}
}
