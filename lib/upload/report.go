package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"catalogbridge/lib/catalog"
)

// ReportItem identifies one affected product in a report sample.
type ReportItem struct {
	SKU   string `json:"sku"`
	Name  string `json:"nombre"`
	Error string `json:"error,omitempty"`
}

// Report is the persisted snapshot of one upload run.
type Report struct {
	ImportedAt string  `json:"fecha_importacion"`
	Server     string  `json:"servidor"`
	Total      int     `json:"total_productos"`
	Succeeded  int     `json:"exitosos"`
	Duplicates int     `json:"duplicados"`
	Failed     int     `json:"fallidos"`
	Seconds    float64 `json:"tiempo_segundos"`
	// samples are bounded so a huge run cannot balloon the artifact;
	// failures are kept in full for diagnosis
	SucceededItems []ReportItem `json:"productos_exitosos"`
	FailedItems    []ReportItem `json:"productos_fallidos"`
	DuplicateItems []ReportItem `json:"productos_duplicados"`
}

const maxReportSamples = 100

// PushAll uploads the batch record by record with a politeness delay
// in between. An authentication failure stops the batch: every
// following record would fail identically.
func (c *Client) PushAll(ctx context.Context, products []catalog.Product) Report {
	report := Report{
		ImportedAt:     time.Now().Format("2006-01-02 15:04:05"),
		Server:         c.cfg.Endpoint,
		Total:          len(products),
		SucceededItems: []ReportItem{},
		FailedItems:    []ReportItem{},
		DuplicateItems: []ReportItem{},
	}
	start := time.Now()

	for i, p := range products {
		if ctx.Err() != nil {
			// untried records are not counted as failures
			slog.WarnContext(ctx, "interrupted, stopping batch",
				"attempted", i, "remaining", len(products)-i)
			break
		}

		slog.InfoContext(ctx, "uploading product",
			"index", i+1, "total", len(products), "sku", p.SKU, "name", p.Name)

		res := c.Push(ctx, p)
		item := ReportItem{SKU: p.SKU, Name: p.Name, Error: res.Message}

		switch res.Outcome {
		case Success:
			report.Succeeded++
			if len(report.SucceededItems) < maxReportSamples {
				item.Error = ""
				report.SucceededItems = append(report.SucceededItems, item)
			}
		case Duplicate:
			report.Duplicates++
			if len(report.DuplicateItems) < maxReportSamples {
				report.DuplicateItems = append(report.DuplicateItems, item)
			}
		default:
			report.Failed++
			report.FailedItems = append(report.FailedItems, item)
		}

		slog.InfoContext(ctx, "upload outcome",
			"sku", p.SKU, "outcome", res.Outcome.String(), "message", res.Message)

		if res.Outcome == AuthFailed {
			slog.ErrorContext(ctx, "authentication failed, aborting batch")
			break
		}
		if i < len(products)-1 {
			select {
			case <-time.After(c.cfg.RecordDelay):
			case <-ctx.Done():
			}
		}
	}

	report.Seconds = float64(int(time.Since(start).Seconds()*100)) / 100
	return report
}

// SaveReport persists the run report as a timestamped artifact next to
// the catalog data and returns its path.
func SaveReport(dir string, report Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf(
		"reporte_importacion_%s.json", time.Now().Format("20060102_150405"),
	))

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
