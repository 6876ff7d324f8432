package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"catalogbridge/lib/catalog"
	"catalogbridge/lib/serviceutil"
	"catalogbridge/lib/store"
	"catalogbridge/lib/transform"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Transforms the raw snapshot into canonical products and merges them into the catalog.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		data, err := os.ReadFile(cfg.Scrape.RawFile)
		if err != nil {
			serviceutil.Fatal(fmt.Sprintf("cannot read raw snapshot %s, run `catalogbridge scrape` first", cfg.Scrape.RawFile), err)
		}
		var items []catalog.RawItem
		if err := json.Unmarshal(data, &items); err != nil {
			serviceutil.Fatal("raw snapshot is malformed", err)
		}

		engine := transform.New(transform.Config{
			ImagePathPrefix: cfg.Catalog.ImagePathPrefix,
		})
		products := make([]catalog.Product, len(items))
		for i, item := range items {
			products[i] = engine.Product(item)
		}

		st := store.New(cfg.Catalog.Dir, cfg.Catalog.File, cfg.Catalog.PerProductFiles)
		report, err := st.Merge(cmd.Context(), products)
		if err != nil {
			serviceutil.Fatal("merge failed", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Previous", "Added", "Duplicates", "Total"})
		t.AppendRow(table.Row{report.Previous, report.Added, report.Skipped, report.Total})
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
