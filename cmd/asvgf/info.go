package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/gogpu/asvgf"
)

func printProperties(ctx *cli.Context) error {
	setupLogging(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(asvgf.DefaultParams().Properties())
}

func printControls(ctx *cli.Context) error {
	setupLogging(ctx)
	defaults := asvgf.DefaultParams().Properties()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Label", "Key", "Widget", "Range", "Default"})
	for _, c := range asvgf.Controls() {
		var rng string
		switch c.Kind {
		case asvgf.ControlInt, asvgf.ControlFloat:
			rng = fmt.Sprintf("%g .. %g (step %g)", c.Min, c.Max, c.Step)
		case asvgf.ControlDropdown:
			rng = strings.Join(c.Options, ", ")
		}
		table.Append([]string{c.Label, c.Key, c.Kind.String(), rng, fmt.Sprint(defaults[c.Key])})
	}
	table.Render()
	return nil
}

func printBackends(ctx *cli.Context) error {
	setupLogging(ctx)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Backend"})
	for i, name := range asvgf.Backends() {
		table.Append([]string{strconv.Itoa(i + 1), name})
	}
	table.Render()
	return nil
}
