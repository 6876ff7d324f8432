package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"catalogbridge/lib/configutil"
	"catalogbridge/lib/serviceutil"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "catalogbridge",
	Short: "catalogbridge harvests a product listing site into a canonical catalog and syncs it to the remote API.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Config is the pipeline configuration, read from config.json5 with a
// config.local.json5 override carrying the real token.
type Config struct {
	SeedURL string `json:"seed_url"`

	Scrape struct {
		FetchDetails       bool    `json:"fetch_details"`
		DownloadImages     bool    `json:"download_images"`
		MaxPages           int     `json:"max_pages"`
		ItemLimit          int     `json:"item_limit"`
		ImageDir           string  `json:"image_dir"`
		RawFile            string  `json:"raw_file"`
		PageDelaySeconds   float64 `json:"page_delay_seconds"`
		DetailDelaySeconds float64 `json:"detail_delay_seconds"`
	} `json:"scrape"`

	Catalog struct {
		Dir             string `json:"dir"`
		File            string `json:"file"`
		PerProductFiles bool   `json:"per_product_files"`
		ImagePathPrefix string `json:"image_path_prefix"`
	} `json:"catalog"`

	API struct {
		URL                string  `json:"url"`
		Token              string  `json:"token"`
		TimeoutSeconds     float64 `json:"timeout_seconds"`
		MaxRetries         int     `json:"max_retries"`
		RecordDelaySeconds float64 `json:"record_delay_seconds"`
	} `json:"api"`
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to load config.json5", err)
	}
	if cfg.Scrape.RawFile == "" {
		cfg.Scrape.RawFile = "datos/raw/items.json"
	}
	if cfg.Scrape.ImageDir == "" {
		cfg.Scrape.ImageDir = "datos/imagenes_descargadas"
	}
	if cfg.Catalog.Dir == "" {
		cfg.Catalog.Dir = "datos/json"
	}
	if cfg.Catalog.File == "" {
		cfg.Catalog.File = "productos.json"
	}
	return cfg
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
