// Package imageio loads albedo textures and writes preview frames for the
// demo command.
//
// Textures may be PNG, JPEG, TGA, BMP, TIFF or WebP. Frames are written as
// WebP, TIFF, PNG or BMP, selected by file extension.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/gogpu/asvgf/render"
)

// ErrUnsupportedFormat is returned for output paths with an unknown
// extension.
var ErrUnsupportedFormat = errors.New("imageio: unsupported image format")

// Load decodes the image file at path. The decoder is picked by file
// extension: TGA has no magic number, so sniffing would let it claim
// every file.
func Load(path string) (image.Image, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()
	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}
	return img, nil
}

var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".tga":  tga.Decode,
	".bmp":  bmp.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".webp": webp.Decode,
}

// Formats returns the supported output extensions.
func Formats() []string { return []string{".webp", ".tiff", ".tif", ".png", ".bmp"} }

// Encode writes img to w in the format named by ext (".webp", ".png", ...).
func Encode(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".webp":
		return nativewebp.Encode(w, img, nil)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Save writes img to path, creating parent directories as needed.
func Save(path string, img image.Image) error {
	ext := filepath.Ext(path)
	if !isSupported(ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("imageio: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: %w", err)
	}
	if err := Encode(f, ext, img); err != nil {
		f.Close()
		return fmt.Errorf("imageio: encode %s: %w", path, err)
	}
	return f.Close()
}

func isSupported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range Formats() {
		if e == ext {
			return true
		}
	}
	return false
}

// FromLinear encodes a linear RGBA float image to 8-bit sRGB. exposure
// scales the color channels before encoding.
func FromLinear(data []float32, width, height int, exposure float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			img.SetRGBA(x, y, color.RGBA{
				R: render.EncodeSRGB(data[i] * exposure),
				G: render.EncodeSRGB(data[i+1] * exposure),
				B: render.EncodeSRGB(data[i+2] * exposure),
				A: 255,
			})
		}
	}
	return img
}

// Scale resizes img by factor with Catmull-Rom filtering, or nearest
// neighbor when enlarging by an integer factor so pixels stay crisp.
func Scale(img image.Image, factor float64) image.Image {
	if factor == 1 || factor <= 0 {
		return img
	}
	b := img.Bounds()
	w := max(int(float64(b.Dx())*factor+0.5), 1)
	h := max(int(float64(b.Dy())*factor+0.5), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	var s draw.Scaler = draw.CatmullRom
	if factor > 1 && factor == float64(int(factor)) {
		s = draw.NearestNeighbor
	}
	s.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SideBySide places images left to right separated by gap pixels of
// background. Images of different heights are top aligned.
func SideBySide(gap int, bg color.Color, images ...image.Image) *image.RGBA {
	var w, h int
	for i, img := range images {
		if i > 0 {
			w += gap
		}
		w += img.Bounds().Dx()
		h = max(h, img.Bounds().Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	x := 0
	for _, img := range images {
		b := img.Bounds()
		draw.Copy(dst, image.Pt(x, 0), img, b, draw.Src, nil)
		x += b.Dx() + gap
	}
	return dst
}
