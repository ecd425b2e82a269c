package utils

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.NRGBA{R: 200, G: 10, B: 10, A: 255}
			if (x+y)%2 == 1 {
				c = color.NRGBA{R: 10, G: 10, B: 200, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// rgba normalizes colors, decoders pick their own image types.
func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestImagingResampler(t *testing.T) {
	var rs ImagingResampler

	t.Run("shrink keeps aspect", func(t *testing.T) {
		out := rs.Shrink(image.NewNRGBA(image.Rect(0, 0, 1200, 600)), 600)
		test.That(t, out.Bounds().Size(), test.ShouldResemble, image.Pt(600, 300))
	})

	t.Run("shrink leaves small images alone", func(t *testing.T) {
		src := checker(5, 3)
		out := rs.Shrink(src, 600)
		test.That(t, out.Bounds().Size(), test.ShouldResemble, image.Pt(5, 3))
		test.That(t, out.At(1, 0), test.ShouldResemble, src.At(1, 0))
	})

	t.Run("upscale replicates pixels", func(t *testing.T) {
		src := checker(3, 2)
		out := rs.Upscale(src, 4)
		test.That(t, out.Bounds().Size(), test.ShouldResemble, image.Pt(12, 8))
		for y := range 8 {
			for x := range 12 {
				test.That(t, out.At(x, y), test.ShouldResemble, src.At(x/4, y/4))
			}
		}
	})
}

func TestImageIO(t *testing.T) {
	src := checker(6, 4)

	t.Run("png bytes", func(t *testing.T) {
		data, err := EncodePNG(src)
		test.That(t, err, test.ShouldBeNil)
		img, err := DecodeBytes(data)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, img.Bounds(), test.ShouldResemble, src.Bounds())
		test.That(t, rgba(img.At(3, 1)), test.ShouldResemble, rgba(src.At(3, 1)))
	})

	t.Run("files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "flat.png")
		test.That(t, SaveImage(src, path), test.ShouldBeNil)
		img, err := ReadImage(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, rgba(img.At(5, 3)), test.ShouldResemble, rgba(src.At(5, 3)))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := ReadImage(filepath.Join(t.TempDir(), "missing.png"))
		test.That(t, err, test.ShouldNotBeNil)
		_, err = DecodeBytes([]byte("not an image"))
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestPalette(t *testing.T) {
	palette := []color.Color{
		color.RGBA{R: 255, A: 255},
		color.RGBA{G: 255, A: 255},
		color.Gray{Y: 128},
	}
	img, err := PaletteImage(palette, 8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Size(), test.ShouldResemble, image.Pt(24, 8))
	test.That(t, img.RGBAAt(3, 3), test.ShouldResemble, color.RGBA{R: 255, A: 255})
	test.That(t, img.RGBAAt(12, 7), test.ShouldResemble, color.RGBA{G: 255, A: 255})
	test.That(t, img.RGBAAt(23, 0), test.ShouldResemble, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	_, err = PaletteImage(nil, 8)
	test.That(t, err, test.ShouldNotBeNil)

	path := filepath.Join(t.TempDir(), "palette.png")
	test.That(t, SavePalette(palette, 0, path), test.ShouldBeNil)
	saved, err := ReadImage(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, saved.Bounds().Dx(), test.ShouldEqual, 3*64)
}
