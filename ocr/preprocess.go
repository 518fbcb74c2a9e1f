package ocr

import (
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"golang.org/x/image/draw"
)

const (
	preprocessMaxSize  = 2000
	preprocessContrast = 1.5
	preprocessQuality  = 95
)

// PreprocessImage boosts contrast, sharpens and downscales a contract photo
// so the OCR engine reads it more reliably, writing the result to a temp
// file. On any failure the original path is returned and recognition proceeds
// on the unprocessed image.
func PreprocessImage(imagePath string) string {
	f, err := os.Open(imagePath)
	if err != nil {
		slog.Warn("image preprocess skipped", "path", imagePath, "error", err)
		return imagePath
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		slog.Warn("image preprocess skipped", "path", imagePath, "error", err)
		return imagePath
	}

	img := toRGBA(src)
	img = adjustContrast(img, preprocessContrast)
	img = sharpen(img)
	img = downscale(img, preprocessMaxSize)

	out, err := os.CreateTemp("", "contract-*.jpg")
	if err != nil {
		slog.Warn("image preprocess skipped", "path", imagePath, "error", err)
		return imagePath
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: preprocessQuality}); err != nil {
		slog.Warn("image preprocess skipped", "path", imagePath, "error", err)
		os.Remove(out.Name())
		return imagePath
	}

	return out.Name()
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// adjustContrast stretches each channel around the midpoint by the given
// factor.
func adjustContrast(img *image.RGBA, factor float64) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	for i := 0; i+3 < len(img.Pix); i += 4 {
		out.Pix[i] = clampByte((float64(img.Pix[i])-128)*factor + 128)
		out.Pix[i+1] = clampByte((float64(img.Pix[i+1])-128)*factor + 128)
		out.Pix[i+2] = clampByte((float64(img.Pix[i+2])-128)*factor + 128)
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

// sharpen applies a 3x3 unsharp kernel (center 5, cross -1).
func sharpen(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	copy(out.Pix, img.Pix)

	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			for ch := 0; ch < 3; ch++ {
				center := float64(img.Pix[img.PixOffset(x, y)+ch])
				up := float64(img.Pix[img.PixOffset(x, y-1)+ch])
				down := float64(img.Pix[img.PixOffset(x, y+1)+ch])
				left := float64(img.Pix[img.PixOffset(x-1, y)+ch])
				right := float64(img.Pix[img.PixOffset(x+1, y)+ch])
				out.Pix[out.PixOffset(x, y)+ch] = clampByte(5*center - up - down - left - right)
			}
		}
	}
	return out
}

// downscale resizes the image so its longest side is at most maxSize pixels.
func downscale(img *image.RGBA, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxSize {
		return img
	}

	ratio := float64(maxSize) / float64(longest)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*ratio), int(float64(h)*ratio)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
