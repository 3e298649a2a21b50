// Command asvgf denoises a synthetic path-traced animation with the A-SVGF
// filter and writes the result.
//
// Usage:
//
//	asvgf render --frames 30 --out denoised.webp
//	asvgf -v render --backend wgpu --props props.json --out frame_%03d.png
//	asvgf props > props.json
//	asvgf controls
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	_ "github.com/gogpu/asvgf/gpu" // registers the wgpu backend
)

func main() {
	app := cli.NewApp()
	app.Name = "asvgf"
	app.Usage = "denoise path-traced frames with adaptive spatiotemporal variance-guided filtering"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render and denoise a synthetic animation",
			Description: `
Render an animated scene of spheres on a ground plane under a moving area
light with one noisy sample per pixel, and run every frame through the
denoiser. The last frame is written to --out; include a printf verb in the
name (frame_%03d.png) to write every frame.

The output format follows the file extension: .webp, .tiff, .png or .bmp.`,
			Flags:  renderFlags,
			Action: renderAnimation,
		},
		{
			Name:   "props",
			Usage:  "print the default filter properties as JSON",
			Action: printProperties,
		},
		{
			Name:   "controls",
			Usage:  "list the filter UI controls",
			Action: printControls,
		},
		{
			Name:   "backends",
			Usage:  "list the registered filter backends",
			Action: printBackends,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "asvgf: %v\n", err)
		os.Exit(1)
	}
}
