// Package ocr turns photographed paper contracts into structured contract
// records. An Engine produces recognized text lines; the Recognizer
// reconstructs scalar fields and the product price table from them, always
// returning a well-formed result even when most of the page is unreadable.
package ocr

import "context"

// Point is one corner of a recognized line's bounding quadrilateral, in pixel
// coordinates with the origin in the upper-left corner of the image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is a single recognized text fragment. Lines arrive in scan order;
// reading order across table columns is not guaranteed.
type Line struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Box        [4]Point `json:"box"`
}

// Engine is the OCR provider contract: one image in, the recognized lines and
// the elapsed recognition time in seconds out. Implementations must be safe
// for concurrent use or be externally synchronized by the caller.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) ([]Line, float64, error)
}
