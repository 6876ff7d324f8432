package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"catalogbridge/lib/fetch"
	"catalogbridge/lib/harvest"
	"catalogbridge/lib/images"
	"catalogbridge/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Harvests the configured listing site and writes the raw item snapshot.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cfg.SeedURL == "" {
			serviceutil.Fatal("no seed_url configured", os.ErrInvalid)
		}

		fetcher, err := fetch.NewClient(fetch.Options{})
		if err != nil {
			serviceutil.Fatal("failed to initialize http client", err)
		}

		var acquirer *images.Acquirer
		if cfg.Scrape.DownloadImages {
			acquirer = images.NewAcquirer(fetcher, cfg.Scrape.ImageDir)
		}

		harvester := harvest.New(fetcher, acquirer, harvest.Options{
			MaxPages:     cfg.Scrape.MaxPages,
			PageDelay:    seconds(cfg.Scrape.PageDelaySeconds),
			DetailDelay:  seconds(cfg.Scrape.DetailDelaySeconds),
			FetchDetails: cfg.Scrape.FetchDetails,
			ItemLimit:    cfg.Scrape.ItemLimit,
		})

		t1 := time.Now()
		items := harvester.Run(cmd.Context(), cfg.SeedURL)
		slog.Info("harvest finished", "items", len(items), "seconds", time.Since(t1).Seconds())

		if err := os.MkdirAll(filepath.Dir(cfg.Scrape.RawFile), 0o755); err != nil {
			serviceutil.Fatal("cannot create raw output directory", err)
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			serviceutil.Fatal("cannot encode raw items", err)
		}
		if err := os.WriteFile(cfg.Scrape.RawFile, buf.Bytes(), 0o644); err != nil {
			serviceutil.Fatal("cannot write raw items", err)
		}
		slog.Info("raw snapshot written", "file", cfg.Scrape.RawFile)
	},
}
