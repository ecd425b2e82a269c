package utils

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	// Extra input formats beyond the png, jpeg and gif decoders imaging registers.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImagingResampler shrinks with Lanczos filtering and upscales by pixel replication.
type ImagingResampler struct{}

// Shrink fits img inside bound x bound. Fit leaves images that already fit untouched.
func (ImagingResampler) Shrink(img image.Image, bound int) image.Image {
	return imaging.Fit(img, bound, bound, imaging.Lanczos)
}

// Upscale enlarges img by factor. NearestNeighbor only copies source pixels, so the
// set of colors and the region layout are preserved.
func (ImagingResampler) Upscale(img image.Image, factor int) image.Image {
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.NearestNeighbor)
}

// ReadImage decodes the image at path, applying any EXIF orientation.
func ReadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image in any registered format.
func DecodeBytes(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return img, nil
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// SaveImage writes img to filename, creating parent directories. The format follows the
// file extension.
func SaveImage(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", filename)
	}
	return errors.Wrapf(imaging.Save(img, filename), "save %s", filename)
}

// PaletteImage draws one tileSize square per color, left to right.
func PaletteImage(palette []color.Color, tileSize int) (*image.RGBA, error) {
	if len(palette) == 0 {
		return nil, errors.New("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	w := tileSize * len(palette)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i, c := range palette {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		rgba.A = 255
		x0 := i * tileSize
		x1 := x0 + tileSize
		for y := range h {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, rgba)
			}
		}
	}
	return img, nil
}

// SavePalette writes the PaletteImage swatch to filename.
func SavePalette(palette []color.Color, tileSize int, filename string) error {
	img, err := PaletteImage(palette, tileSize)
	if err != nil {
		return err
	}
	return SaveImage(img, filename)
}
