package commands

import (
	"encoding/json"
	"log/slog"
	"os"

	"catalogbridge/lib/catalog"
	"catalogbridge/lib/serviceutil"
	"catalogbridge/lib/store"
	"catalogbridge/lib/upload"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var uploadFile *string

func init() {
	uploadFile = uploadCmd.Flags().String("file", "", "Upload a single product JSON file instead of the whole catalog.")
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload [--file <product.json>]",
	Short: "Posts the canonical catalog to the remote API and writes an upload report.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		client := upload.New(upload.Config{
			Endpoint:    cfg.API.URL,
			Token:       cfg.API.Token,
			Timeout:     seconds(cfg.API.TimeoutSeconds),
			MaxRetries:  cfg.API.MaxRetries,
			RecordDelay: seconds(cfg.API.RecordDelaySeconds),
		})

		if err := client.Probe(cmd.Context()); err != nil {
			serviceutil.Fatal("server is not reachable", err)
		}

		var products []catalog.Product
		if *uploadFile != "" {
			data, err := os.ReadFile(*uploadFile)
			if err != nil {
				serviceutil.Fatal("cannot read product file", err)
			}
			var p catalog.Product
			if err := json.Unmarshal(data, &p); err != nil {
				serviceutil.Fatal("product file is malformed", err)
			}
			products = []catalog.Product{p}
		} else {
			st := store.New(cfg.Catalog.Dir, cfg.Catalog.File, false)
			var err error
			products, err = st.Load(cmd.Context())
			if err != nil {
				serviceutil.Fatal("cannot load catalog", err)
			}
			if len(products) == 0 {
				serviceutil.Fatal("catalog is empty, run `catalogbridge convert` first", os.ErrNotExist)
			}
		}

		report := client.PushAll(cmd.Context(), products)

		path, err := upload.SaveReport(cfg.Catalog.Dir, report)
		if err != nil {
			slog.Warn("cannot persist upload report", "err", err)
		} else {
			slog.Info("upload report written", "file", path)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Total", "Succeeded", "Duplicates", "Failed", "Seconds"})
		t.AppendRow(table.Row{report.Total, report.Succeeded, report.Duplicates, report.Failed, report.Seconds})
		t.SetStyle(table.StyleRounded)
		t.Render()

		if report.Failed > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"SKU", "Name", "Error"})
			for i, item := range report.FailedItems {
				if i == 10 {
					break
				}
				t.AppendRow(table.Row{item.SKU, item.Name, item.Error})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
		}
	},
}
