package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine on top of the gosseract client. A fresh
// client is created per call, so the engine itself is safe for concurrent
// use.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine. With no
// languages given it defaults to simplified Chinese, the language of the
// contracts this service reads.
func NewTesseractEngine(languages ...string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"chi_sim"}
	}
	return &TesseractEngine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs OCR over the image at imagePath and returns the recognized
// text lines in scan order plus the elapsed time in seconds.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) ([]Line, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	client := e.clientFactory()
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return nil, 0, fmt.Errorf("set image: %w", err)
	}
	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, 0, fmt.Errorf("set languages: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, 0, fmt.Errorf("recognize: %w", err)
	}

	lines := make([]Line, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		lines = append(lines, Line{
			Text:       text,
			Confidence: b.Confidence / 100,
			Box:        quadFromRect(b.Box),
		})
	}

	return lines, time.Since(start).Seconds(), nil
}

// quadFromRect expands an axis-aligned rectangle into the four-corner
// quadrilateral the recognition result carries, clockwise from the top-left.
func quadFromRect(r image.Rectangle) [4]Point {
	return [4]Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}
