package main

import (
	"fmt"
	"log"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tomek7667/serachart/internal/history"
	"github.com/tomek7667/serachart/internal/json"
)

func cmdExport() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Fetch history batches and write them to a directory for offline rendering",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Value: "./history", Usage: "target directory"},
			&cli.StringSliceFlag{Name: "metric", Aliases: []string{"m"}, Usage: "metric ids, defaults to every catalogued metric"},
			&cli.StringFlag{Name: "range", Aliases: []string{"r"}, Value: history.DefaultWindow},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			win, ok := history.LookupWindow(c.String("range"))
			if !ok {
				return fmt.Errorf("unknown range %q", c.String("range"))
			}
			store, err := json.New(c.String("dir"))
			if err != nil {
				return err
			}
			w, err := wireSources(c.Context, cfg, nil, false)
			if err != nil {
				return err
			}

			metrics := c.StringSlice("metric")
			if len(metrics) == 0 {
				for _, spec := range w.catalog.Specs() {
					metrics = append(metrics, spec.ID)
				}
			}

			from, to := win.Bounds(time.Now())
			var failed int
			for _, id := range metrics {
				batch, err := w.router.History(c.Context, id, from, to)
				if err != nil {
					log.Printf("export of %s failed: %v", id, err)
					failed++
					continue
				}
				if len(history.Filter(batch.Points)) == 0 {
					// keep the directory free of empty charts
					if err := store.DeleteBatch(id); err != nil {
						return err
					}
					log.Printf("%s: no data in the last %s", id, win.Key)
					continue
				}
				if err := store.SaveBatch(batch); err != nil {
					return err
				}
				log.Printf("%s: %d points written", id, len(batch.Points))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d metrics failed to export", failed, len(metrics))
			}
			return nil
		},
	}
}
