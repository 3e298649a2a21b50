package main

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/gogpu/asvgf"
	"github.com/gogpu/asvgf/internal/synth"
)

// statsTable formats the stage timings of the last frame.
func statsTable(stats asvgf.Stats, avg time.Duration, noisy, denoised, reference []float32) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "backend %s, %dx%d, gradients %dx%d, %.1f MiB of targets\n",
		stats.Backend, stats.Width, stats.Height, stats.GradWidth, stats.GradHeight,
		float64(stats.Bytes)/(1<<20))

	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Dispatches", "Time", "% of frame"})
	for _, st := range stats.Stages {
		if st.Dispatches == 0 {
			continue
		}
		table.Append([]string{
			st.Stage.String(),
			strconv.Itoa(st.Dispatches),
			st.Duration.String(),
			fmt.Sprintf("%02.1f %%", percent(st.Duration, stats.Total)),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", stats.Total.String()})
	table.Render()

	fmt.Fprintf(&buf, "average filter time %s over frame %d\n", avg, stats.Frame)
	if reference != nil {
		fmt.Fprintf(&buf, "RMSE noisy %.5f, denoised %.5f\n",
			synth.RMSE(noisy, reference), synth.RMSE(denoised, reference))
	}
	return buf.String()
}

func percent(d, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(d) / float64(total)
}
