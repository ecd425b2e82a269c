package pbn

import (
	"image"
	"math/rand/v2"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/setanarut/pbn/utils"
)

type Options struct {
	// Palette size k.
	// Ideal start: 8-16. Higher values keep more detail but produce more, smaller regions
	// and longer legends.
	NumColors int
	// Smallest region area, in shrunk-image pixels, that survives consolidation.
	// Ideal start: ~MaxSize^2/12000 (30 at 600). Too low leaves unpaintable specks; too
	// high swallows thin features such as eyes and lettering.
	MinArea int
	// Longest side the input is shrunk to before quantization. Images that already fit
	// are left alone. Bigger values cost time roughly linearly in pixels.
	MaxSize int
	// Nearest-neighbour scale applied after consolidation and before tracing.
	// Ideal start: 4. 1 traces the working grid directly; higher gives smoother
	// outlines and more room for labels at the cost of SVG size.
	Upscale int
	// Palette extraction method. PaletteKMeansPP is the only exact k-means++ path.
	Method PaletteMethod
	// Seed for the palette random source. Equal seeds on equal input give equal output.
	Seed uint64
}

func DefaultOptions() Options {
	return Options{
		NumColors: 10,
		MinArea:   30,
		MaxSize:   600,
		Upscale:   4,
		Method:    PaletteKMeansPP,
		Seed:      1,
	}
}

// OptionsFromSize scales MinArea to the working resolution the image will be shrunk to.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	w, h := size.X, size.Y
	if m := max(w, h); m > opt.MaxSize {
		w = w * opt.MaxSize / m
		h = h * opt.MaxSize / m
	}
	opt.MinArea = max(8, min(200, w*h/12000))
	return opt
}

// Validate rejects settings the pipeline cannot run with.
func (o Options) Validate() error {
	switch {
	case o.NumColors <= 0:
		return errors.Wrapf(ErrInvalidParameter, "num colors %d", o.NumColors)
	case o.MinArea <= 0:
		return errors.Wrapf(ErrInvalidParameter, "min area %d", o.MinArea)
	case o.MaxSize <= 0:
		return errors.Wrapf(ErrInvalidParameter, "max size %d", o.MaxSize)
	case o.Upscale <= 0:
		return errors.Wrapf(ErrInvalidParameter, "upscale %d", o.Upscale)
	}
	return nil
}

// Rand returns a fresh random source seeded from Seed.
func (o Options) Rand() *rand.Rand {
	return rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))
}

// Resampler changes image resolution around the grid stages.
type Resampler interface {
	// Shrink fits img within bound x bound keeping aspect ratio, returning it unchanged
	// when it already fits.
	Shrink(img image.Image, bound int) image.Image
	// Upscale enlarges img by an integer factor without introducing new colors.
	Upscale(img image.Image, factor int) image.Image
}

type Builder struct {
	InputImage image.Image
	Options    Options
	Resampler  Resampler

	// Stage outputs, filled by Build.
	Working      *Grid
	Palette      Palette
	Posterized   *Grid
	Consolidated *Grid
	Report       ConsolidationReport
	Scaled       *Grid
	Document     *Document

	logger *zap.SugaredLogger
}

// NewBuilder prepares a pipeline over input. A nil logger discards output.
func NewBuilder(input image.Image, opt Options, logger *zap.SugaredLogger) *Builder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Builder{
		InputImage: input,
		Options:    opt,
		Resampler:  utils.ImagingResampler{},
		logger:     logger,
	}
}

// Build runs every stage. Anomalies found along the way are logged and kept on Report
// and Document; they do not fail the build.
func (b *Builder) Build() error {
	if err := b.Flatten(); err != nil {
		return err
	}
	return b.Trace()
}

// Flatten runs the raster stages: shrink, palette, recolor and consolidate.
func (b *Builder) Flatten() error {
	opt := b.Options
	if err := opt.Validate(); err != nil {
		return err
	}
	if b.InputImage == nil || b.InputImage.Bounds().Empty() {
		return errors.Wrap(ErrEmptyInput, "build")
	}

	small := b.Resampler.Shrink(b.InputImage, opt.MaxSize)
	b.Working = GridFromImage(small)
	b.logger.Infow("shrunk input",
		"from", b.InputImage.Bounds().Size(), "to", image.Pt(b.Working.W, b.Working.H))

	k := min(opt.NumColors, len(b.Working.Pix))
	palette, err := ExtractPalette(b.Working, k, opt.Method, opt.Rand())
	if err != nil {
		return errors.Wrap(err, "palette")
	}
	b.Palette = palette
	b.logger.Infow("palette", "method", opt.Method, "k", k, "colors", HexColors(palette))

	if b.Posterized, err = Recolor(b.Working, palette); err != nil {
		return errors.Wrap(err, "recolor")
	}
	regionsBefore := b.Posterized.Regions()

	if b.Consolidated, b.Report, err = Consolidate(b.Posterized, opt.MinArea); err != nil {
		return errors.Wrap(err, "consolidate")
	}
	b.logger.Infow("consolidated",
		"min_area", opt.MinArea,
		"regions_before", regionsBefore,
		"regions_after", b.Report.Regions,
		"merged", b.Report.Merged,
		"undersized", len(b.Report.Undersized))
	if err := b.Report.Err(); err != nil {
		b.logger.Warnw("consolidation anomalies", "count", len(b.Report.Anomalies), "error", err)
	}
	return nil
}

// Trace upscales the consolidated grid and vectorizes it. Flatten must have run.
func (b *Builder) Trace() error {
	if b.Consolidated == nil {
		return errors.Wrap(ErrEmptyInput, "trace before flatten")
	}
	b.Scaled = b.Consolidated
	if f := b.Options.Upscale; f > 1 {
		b.Scaled = GridFromImage(b.Resampler.Upscale(b.Consolidated.Image(), f))
	}

	doc, err := Vectorize(b.Scaled)
	if err != nil {
		return errors.Wrap(err, "vectorize")
	}
	b.Document = doc
	st := doc.Stats()
	b.logger.Infow("vectorized",
		"size", image.Pt(doc.Width, doc.Height),
		"regions", st.Regions,
		"colors", st.Colors,
		"median_area", st.MedianArea)
	if err := doc.Err(); err != nil {
		b.logger.Warnw("incomplete rings", "count", st.Incomplete, "error", err)
	}
	return nil
}
