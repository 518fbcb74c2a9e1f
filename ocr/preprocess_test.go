package ocr

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "contract.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

func TestPreprocessImage(t *testing.T) {
	path := writeTestImage(t, 100, 60)

	out := PreprocessImage(path)
	if out == path {
		t.Fatal("expected a preprocessed copy, got the original path")
	}
	defer os.Remove(out)

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("failed to open preprocessed image: %v", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode preprocessed image: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %s", format)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 60 {
		t.Errorf("small image must keep its size, got %v", img.Bounds())
	}
}

func TestPreprocessImageDownscales(t *testing.T) {
	path := writeTestImage(t, 2400, 1200)

	out := PreprocessImage(path)
	if out == path {
		t.Fatal("expected a preprocessed copy, got the original path")
	}
	defer os.Remove(out)

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("failed to open preprocessed image: %v", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode preprocessed image: %v", err)
	}
	if img.Bounds().Dx() != 2000 || img.Bounds().Dy() != 1000 {
		t.Errorf("expected 2000x1000 after downscale, got %v", img.Bounds())
	}
}

func TestPreprocessImageBadInput(t *testing.T) {
	// Unreadable input falls back to the original path
	if got := PreprocessImage("/nonexistent/contract.jpg"); got != "/nonexistent/contract.jpg" {
		t.Errorf("expected original path back, got %s", got)
	}

	notAnImage := filepath.Join(t.TempDir(), "contract.jpg")
	if err := os.WriteFile(notAnImage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if got := PreprocessImage(notAnImage); got != notAnImage {
		t.Errorf("expected original path back, got %s", got)
	}
}
