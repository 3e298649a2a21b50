package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/gogpu/asvgf"
	"github.com/gogpu/asvgf/internal/imageio"
	"github.com/gogpu/asvgf/internal/synth"
	"github.com/gogpu/asvgf/render"
)

var renderFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: synth.DefaultConfig().Width,
		Usage: "frame width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: synth.DefaultConfig().Height,
		Usage: "frame height",
	},
	cli.IntFlag{
		Name:  "frames, n",
		Value: 16,
		Usage: "number of frames to render",
	},
	cli.Uint64Flag{
		Name:  "seed",
		Value: synth.DefaultConfig().Seed,
		Usage: "random seed of the noisy renderer",
	},
	cli.StringFlag{
		Name:  "out, o",
		Value: "denoised.webp",
		Usage: "image filename for the denoised frame",
	},
	cli.StringFlag{
		Name:  "props, p",
		Usage: "JSON file with filter properties",
	},
	cli.IntFlag{
		Name:  "downsample",
		Value: 3,
		Usage: "gradient downsample factor",
	},
	cli.StringFlag{
		Name:  "backend, b",
		Usage: "filter backend (cpu, wgpu); empty selects the GPU when available",
	},
	cli.IntFlag{
		Name:  "workers",
		Usage: "CPU worker goroutines (0 uses GOMAXPROCS)",
	},
	cli.StringFlag{
		Name:  "albedo",
		Usage: "ground texture image (png, jpeg, tga, webp)",
	},
	cli.BoolFlag{
		Name:  "no-samples",
		Usage: "do not attach renderer gradient samples; gradients come from reprojected history",
	},
	cli.Float64Flag{
		Name:  "exposure",
		Value: 1.0,
		Usage: "exposure applied before sRGB encoding",
	},
	cli.Float64Flag{
		Name:  "scale",
		Value: 1.0,
		Usage: "resize factor for written images",
	},
	cli.BoolFlag{
		Name:  "compare",
		Usage: "write the noisy input, the denoised frame and the reference side by side",
	},
	cli.IntFlag{
		Name:  "reference",
		Value: 64,
		Usage: "samples per pixel of the reference used for error reporting (0 disables)",
	},
}

// renderAnimation renders the synthetic animation and denoises every frame.
func renderAnimation(ctx *cli.Context) error {
	setupLogging(ctx)

	frames := ctx.Int("frames")
	if frames < 1 {
		return errors.New("frames must be positive")
	}
	out := ctx.String("out")
	perFrame := strings.Contains(out, "%")

	cfg := synth.DefaultConfig()
	cfg.Width = ctx.Int("width")
	cfg.Height = ctx.Int("height")
	cfg.Seed = ctx.Uint64("seed")
	cfg.Workers = ctx.Int("workers")
	if !ctx.Bool("no-samples") {
		cfg.GradientDownsample = ctx.Int("downsample")
	}
	if path := ctx.String("albedo"); path != "" {
		tex, err := imageio.Load(path)
		if err != nil {
			return err
		}
		cfg.Texture = tex
	}
	sc, err := synth.New(cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	params := asvgf.DefaultParams()
	if path := ctx.String("props"); path != "" {
		if params, err = loadProperties(path, params); err != nil {
			return err
		}
	}

	pass, err := asvgf.New(
		asvgf.WithParams(params),
		asvgf.WithGradientDownsample(ctx.Int("downsample")),
		asvgf.WithBackendName(ctx.String("backend")),
		asvgf.WithWorkers(ctx.Int("workers")),
	)
	if err != nil {
		return err
	}
	defer pass.Close()
	logger.Info("denoiser ready", "backend", pass.Backend(), "width", cfg.Width, "height", cfg.Height)

	if err := pass.Compile(cfg.Width, cfg.Height); err != nil {
		return err
	}
	pass.SetScene(sc)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exposure := float32(ctx.Float64("exposure"))
	target := render.NewHalfFloatTarget(cfg.Width, cfg.Height)
	var (
		last    = frames - 1
		noisy   []float32
		elapsed time.Duration
	)
	for i := 0; i < frames; i++ {
		start := time.Now()
		frame := sc.Render(i)
		renderTime := time.Since(start)

		if err := pass.Execute(runCtx, frame, target); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		stats := pass.Stats()
		elapsed += stats.Total
		logger.Debug("frame denoised", "frame", i, "render", renderTime, "filter", stats.Total)

		if perFrame {
			img := imageio.FromLinear(target.Float32(), cfg.Width, cfg.Height, exposure)
			if err := imageio.Save(fmt.Sprintf(out, i), imageio.Scale(img, ctx.Float64("scale"))); err != nil {
				return err
			}
		}
		if i == last {
			noisy = frame.Color
		}
	}

	denoised := target.Float32()
	var reference []float32
	if spp := ctx.Int("reference"); spp > 0 {
		reference = sc.Reference(last, spp)
		logger.Info("error against reference",
			"samples", spp,
			"noisy", synth.RMSE(noisy, reference),
			"denoised", synth.RMSE(denoised, reference))
	}

	if !perFrame {
		img := image.Image(imageio.FromLinear(denoised, cfg.Width, cfg.Height, exposure))
		if ctx.Bool("compare") {
			images := []image.Image{imageio.FromLinear(noisy, cfg.Width, cfg.Height, exposure), img}
			if reference != nil {
				images = append(images, imageio.FromLinear(reference, cfg.Width, cfg.Height, exposure))
			}
			img = imageio.SideBySide(4, color.Black, images...)
		}
		if err := imageio.Save(out, imageio.Scale(img, ctx.Float64("scale"))); err != nil {
			return err
		}
	}

	fmt.Println(statsTable(pass.Stats(), elapsed/time.Duration(frames), noisy, denoised, reference))
	return nil
}

func loadProperties(path string, params asvgf.Params) (asvgf.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return params, err
	}
	props, err := asvgf.ParseProperties(data)
	if err != nil {
		return params, err
	}
	return params.Apply(props)
}
