// Package main is the pbn command line tool.
package main

import (
	"bytes"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/setanarut/pbn"
	"github.com/setanarut/pbn/render"
	"github.com/setanarut/pbn/utils"
)

const (
	flagInput     = "input"
	flagOutput    = "output"
	flagColors    = "colors"
	flagMinArea   = "min-area"
	flagMaxSize   = "max-size"
	flagUpscale   = "upscale"
	flagMethod    = "method"
	flagSeed      = "seed"
	flagAutoSize  = "auto-min-area"
	flagJSON      = "json"
	flagFill      = "fill"
	flagLegend    = "legend"
	flagStroke    = "stroke"
	flagLabel     = "label-color"
	flagFontSize  = "font-size"
	flagTileSize  = "tile-size"
	flagDebug     = "debug"
	flagQuiet     = "quiet"
	envVarPrefix  = "PBN_"
	defaultOutput = "out"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var logger *zap.SugaredLogger

	return &cli.App{
		Name:  "pbn",
		Usage: "turn images into paint by numbers templates",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:    flagQuiet,
				Aliases: []string{"q"},
				Usage:   "disable logging",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			logger, err = newLogger(c.Bool(flagDebug), c.Bool(flagQuiet))
			return err
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				//nolint:errcheck
				logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "flatten",
				Usage:     "write the consolidated, upscaled raster as an image",
				UsageText: "pbn flatten --input photo.jpg --output flat.png",
				Flags:     pipelineFlags(defaultOutput + ".png"),
				Action: func(c *cli.Context) error {
					b, err := runPipeline(c, logger, false)
					if err != nil {
						return err
					}
					out := b.Consolidated
					if f := b.Options.Upscale; f > 1 {
						return utils.SaveImage(b.Resampler.Upscale(out.Image(), f), c.String(flagOutput))
					}
					return utils.SaveImage(out.Image(), c.String(flagOutput))
				},
			},
			{
				Name:      "svg",
				Usage:     "run the full pipeline and write the template as SVG",
				UsageText: "pbn svg --input photo.jpg --output template.svg --json template.json",
				Flags: append(pipelineFlags(defaultOutput+".svg"),
					&cli.StringFlag{
						Name:    flagJSON,
						Usage:   "also write the document as JSON to `FILE`",
						EnvVars: envVars(flagJSON),
					},
					&cli.BoolFlag{
						Name:    flagFill,
						Usage:   "fill regions with their colors",
						EnvVars: envVars(flagFill),
					},
					&cli.BoolFlag{
						Name:    flagLegend,
						Value:   true,
						Usage:   "append a numbered color legend",
						EnvVars: envVars(flagLegend),
					},
					&cli.StringFlag{
						Name:    flagStroke,
						Value:   render.DefaultOptions().Stroke,
						Usage:   "outline color",
						EnvVars: envVars(flagStroke),
					},
					&cli.StringFlag{
						Name:    flagLabel,
						Value:   render.DefaultOptions().LabelColor,
						Usage:   "label color",
						EnvVars: envVars(flagLabel),
					},
					&cli.IntFlag{
						Name:    flagFontSize,
						Value:   render.DefaultOptions().FontSize,
						Usage:   "label font size",
						EnvVars: envVars(flagFontSize),
					},
				),
				Action: func(c *cli.Context) error {
					b, err := runPipeline(c, logger, true)
					if err != nil {
						return err
					}
					ropt := render.DefaultOptions()
					ropt.Fill = c.Bool(flagFill)
					ropt.Legend = c.Bool(flagLegend)
					ropt.Stroke = c.String(flagStroke)
					ropt.LabelColor = c.String(flagLabel)
					ropt.FontSize = c.Int(flagFontSize)

					var buf bytes.Buffer
					if err := render.SVG(&buf, b.Document, ropt); err != nil {
						return err
					}
					if err := writeFile(c.String(flagOutput), buf.Bytes()); err != nil {
						return err
					}
					if path := c.String(flagJSON); path != "" {
						buf.Reset()
						if err := render.JSON(&buf, b.Document); err != nil {
							return err
						}
						return writeFile(path, buf.Bytes())
					}
					return nil
				},
			},
			{
				Name:      "palette",
				Usage:     "extract the palette and write it as a swatch image",
				UsageText: "pbn palette --input photo.jpg --colors 12 --output palette.png",
				Flags: append(pipelineFlags(defaultOutput+"-palette.png"),
					&cli.IntFlag{
						Name:    flagTileSize,
						Value:   64,
						Usage:   "swatch tile size in pixels",
						EnvVars: envVars(flagTileSize),
					},
				),
				Action: func(c *cli.Context) error {
					opt, err := optionsFromFlags(c)
					if err != nil {
						return err
					}
					img, err := utils.ReadImage(c.String(flagInput))
					if err != nil {
						return err
					}
					g := pbn.GridFromImage(utils.ImagingResampler{}.Shrink(img, opt.MaxSize))
					palette, err := pbn.ExtractPalette(g, min(opt.NumColors, len(g.Pix)), opt.Method, opt.Rand())
					if err != nil {
						return err
					}
					logger.Infow("palette", "colors", pbn.HexColors(palette))
					return utils.SavePalette(palette.Colors(), c.Int(flagTileSize), c.String(flagOutput))
				},
			},
		},
	}
}

func pipelineFlags(output string) []cli.Flag {
	def := pbn.DefaultOptions()
	return []cli.Flag{
		&cli.StringFlag{
			Name:     flagInput,
			Aliases:  []string{"i"},
			Usage:    "read the source image from `FILE`",
			Required: true,
			EnvVars:  envVars(flagInput),
		},
		&cli.StringFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Value:   output,
			Usage:   "write the result to `FILE`",
			EnvVars: envVars(flagOutput),
		},
		&cli.IntFlag{
			Name:    flagColors,
			Aliases: []string{"k"},
			Value:   def.NumColors,
			Usage:   "palette size",
			EnvVars: envVars(flagColors),
		},
		&cli.IntFlag{
			Name:    flagMinArea,
			Value:   def.MinArea,
			Usage:   "smallest region area in working pixels",
			EnvVars: envVars(flagMinArea),
		},
		&cli.BoolFlag{
			Name:    flagAutoSize,
			Usage:   "derive the minimum area from the image size, overrides --" + flagMinArea,
			EnvVars: envVars(flagAutoSize),
		},
		&cli.IntFlag{
			Name:    flagMaxSize,
			Value:   def.MaxSize,
			Usage:   "longest side of the working image",
			EnvVars: envVars(flagMaxSize),
		},
		&cli.IntFlag{
			Name:    flagUpscale,
			Value:   def.Upscale,
			Usage:   "scale factor applied before tracing",
			EnvVars: envVars(flagUpscale),
		},
		&cli.StringFlag{
			Name:    flagMethod,
			Value:   def.Method.String(),
			Usage:   "palette method: kmeans++, kmeans or dominantcolor",
			EnvVars: envVars(flagMethod),
		},
		&cli.Uint64Flag{
			Name:    flagSeed,
			Value:   def.Seed,
			Usage:   "palette random seed",
			EnvVars: envVars(flagSeed),
		},
	}
}

func optionsFromFlags(c *cli.Context) (pbn.Options, error) {
	opt := pbn.DefaultOptions()
	opt.MinArea = c.Int(flagMinArea)
	opt.NumColors = c.Int(flagColors)
	opt.MaxSize = c.Int(flagMaxSize)
	opt.Upscale = c.Int(flagUpscale)
	opt.Seed = c.Uint64(flagSeed)
	method, err := pbn.ParsePaletteMethod(c.String(flagMethod))
	if err != nil {
		return opt, err
	}
	opt.Method = method
	return opt, opt.Validate()
}

func runPipeline(c *cli.Context, logger *zap.SugaredLogger, trace bool) (*pbn.Builder, error) {
	opt, err := optionsFromFlags(c)
	if err != nil {
		return nil, err
	}
	img, err := utils.ReadImage(c.String(flagInput))
	if err != nil {
		return nil, err
	}
	if c.Bool(flagAutoSize) {
		sized := pbn.OptionsFromSize(img.Bounds().Size())
		opt.MinArea = sized.MinArea
	}

	b := pbn.NewBuilder(img, opt, logger)
	if trace {
		err = b.Build()
	} else {
		err = b.Flatten()
	}
	return b, err
}

func newLogger(debug, quiet bool) (*zap.SugaredLogger, error) {
	if quiet {
		return zap.NewNop().Sugar(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.DisableStacktrace = true
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "create logger")
	}
	return l.Sugar(), nil
}

func envVars(flag string) []string {
	return []string{envVarPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))}
}

func writeFile(path string, data []byte) error {
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
