package ocr

import (
	"image"
	"testing"
)

func TestTesseractEngineName(t *testing.T) {
	e := NewTesseractEngine()
	if e.Name() != "tesseract" {
		t.Errorf("unexpected engine name: %s", e.Name())
	}
	if len(e.languages) != 1 || e.languages[0] != "chi_sim" {
		t.Errorf("expected chi_sim default, got %v", e.languages)
	}

	e = NewTesseractEngine("chi_sim", "eng")
	if len(e.languages) != 2 {
		t.Errorf("expected 2 languages, got %v", e.languages)
	}
}

func TestQuadFromRect(t *testing.T) {
	q := quadFromRect(image.Rect(10, 20, 110, 50))

	expected := [4]Point{{10, 20}, {110, 20}, {110, 50}, {10, 50}}
	if q != expected {
		t.Errorf("expected %v, got %v", expected, q)
	}
}
