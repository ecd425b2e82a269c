package main

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/setanarut/pbn/utils"
)

func writeInput(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := range 8 {
		for x := range 16 {
			c := color.RGBA{R: 230, G: 40, B: 40, A: 255}
			if x >= 8 {
				c = color.RGBA{R: 30, G: 40, B: 220, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "in.png")
	test.That(t, utils.SaveImage(img, path), test.ShouldBeNil)
	return path
}

func TestSVGCommand(t *testing.T) {
	in := writeInput(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "template.svg")
	js := filepath.Join(dir, "template.json")

	err := newApp().Run([]string{
		"pbn", "-q", "svg",
		"--input", in, "--output", out, "--json", js,
		"--colors", "2", "--min-area", "4", "--upscale", "2", "--fill",
	})
	test.That(t, err, test.ShouldBeNil)

	data, err := os.ReadFile(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, `viewBox="0 0 32`)
	test.That(t, strings.Count(string(data), "<path"), test.ShouldEqual, 2)

	data, err = os.ReadFile(js)
	test.That(t, err, test.ShouldBeNil)
	var doc struct {
		Width  int      `json:"width"`
		Colors []string `json:"colors"`
	}
	test.That(t, json.Unmarshal(data, &doc), test.ShouldBeNil)
	test.That(t, doc.Width, test.ShouldEqual, 32)
	test.That(t, doc.Colors, test.ShouldResemble, []string{"#e62828", "#1e28dc"})
}

func TestFlattenCommand(t *testing.T) {
	in := writeInput(t)
	out := filepath.Join(t.TempDir(), "flat.png")
	err := newApp().Run([]string{"pbn", "-q", "flatten", "-i", in, "-o", out, "-k", "2", "--upscale", "3"})
	test.That(t, err, test.ShouldBeNil)

	img, err := utils.ReadImage(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Size(), test.ShouldResemble, image.Pt(48, 24))
}

func TestPaletteCommand(t *testing.T) {
	in := writeInput(t)
	out := filepath.Join(t.TempDir(), "palette.png")
	err := newApp().Run([]string{
		"pbn", "-q", "palette", "-i", in, "-o", out, "-k", "2", "--tile-size", "10", "--method", "kmeans",
	})
	test.That(t, err, test.ShouldBeNil)

	img, err := utils.ReadImage(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Size(), test.ShouldResemble, image.Pt(20, 10))
}

func TestCommandErrors(t *testing.T) {
	in := writeInput(t)
	err := newApp().Run([]string{"pbn", "-q", "svg", "-i", in, "--method", "octree"})
	test.That(t, err, test.ShouldNotBeNil)

	err = newApp().Run([]string{"pbn", "-q", "flatten", "-i", in, "--min-area", "0"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEnvVars(t *testing.T) {
	test.That(t, envVars(flagMinArea), test.ShouldResemble, []string{"PBN_MIN_AREA"})
	test.That(t, envVars(flagColors), test.ShouldResemble, []string{"PBN_COLORS"})
}
