package main

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tomek7667/serachart/internal/canvas"
	"github.com/tomek7667/serachart/internal/history"
	"github.com/tomek7667/serachart/internal/json"
	"github.com/tomek7667/serachart/internal/source"
)

func cmdRender() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render a history JSON file to PNG or SVG",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Required: true, Usage: "history batch file"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "output file, .svg or .png"},
			&cli.StringFlag{Name: "metric", Aliases: []string{"m"}, Usage: "metric id, defaults to the batch's"},
			&cli.Float64Flag{Name: "width", Value: history.DefaultWidth},
			&cli.Float64Flag{Name: "height", Value: history.DefaultHeight},
			&cli.Float64Flag{Name: "dpr", Value: 1, Usage: "device pixel ratio for PNG output"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			batch, err := json.ReadBatch(c.String("in"))
			if err != nil {
				return err
			}
			metric := c.String("metric")
			if metric == "" {
				metric = batch.Metric
			}
			renderer, err := newRenderer(cfg, cfg.Catalog(source.HostMetrics...))
			if err != nil {
				return err
			}
			if _, ok := renderer.Catalog.Lookup(metric); !ok {
				fmt.Fprintf(os.Stderr, "unknown metric %q, the chart will be empty\n", metric)
			}

			samples := history.Filter(batch.Points)
			out := c.String("out")
			var body bytes.Buffer
			var state *history.RenderState
			switch strings.ToLower(filepath.Ext(out)) {
			case ".svg":
				surface := canvas.NewSVG(c.Float64("width"), c.Float64("height"))
				state = renderer.Render(surface, samples, metric)
				_, err = surface.WriteTo(&body)
			case ".png":
				surface := canvas.NewRaster(c.Float64("width"), c.Float64("height"), c.Float64("dpr"))
				surface.Background = color.White
				state = renderer.Render(surface, samples, metric)
				err = surface.EncodePNG(&body)
			default:
				return fmt.Errorf("unsupported output %q, use .png or .svg", out)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, body.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			sum := history.Summarize(samples, renderer.Catalog, metric)
			fmt.Printf("%s: %s points, min %s, max %s, last %s", out, sum.Count, sum.Min, sum.Max, sum.Last)
			if state.Clipped > 0 {
				fmt.Printf(", %d outside the display range", state.Clipped)
			}
			fmt.Println()
			return nil
		},
	}
}
