// Package store reconciles newly transformed products against the
// persisted catalog. Dedup is keyed by product name: an existing entry
// is never overwritten, re-running the same batch is a no-op.
package store

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
	"catalogbridge/lib/textutil"
)

// MergeReport is the persisted snapshot of one merge run. Field names
// are the artifact format consumed by existing tooling.
type MergeReport struct {
	UpdatedAt    string   `json:"fecha_actualizacion"`
	Previous     int      `json:"productos_anteriores"`
	Added        int      `json:"productos_nuevos"`
	Skipped      int      `json:"productos_ignorados"`
	Total        int      `json:"total_productos"`
	NewSKUs      []string `json:"skus_nuevos"`
	SkippedNames []string `json:"nombres_ignorados"`
}

const maxSkippedSamples = 10

type Store struct {
	// dir holds the catalog file, the per-product files and the merge
	// reports
	dir         string
	catalogName string
	// perProduct also writes one standalone JSON file per new product
	perProduct bool
}

func New(dir, catalogName string, perProduct bool) *Store {
	return &Store{dir: dir, catalogName: catalogName, perProduct: perProduct}
}

func (s *Store) CatalogPath() string {
	return filepath.Join(s.dir, s.catalogName)
}

// Load reads the persisted catalog. A missing file is an empty
// catalog; a malformed file is an error and nothing gets written on
// top of it.
func (s *Store) Load(ctx context.Context) ([]catalog.Product, error) {
	data, err := os.ReadFile(s.CatalogPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("catalog file %s is malformed: %w", s.CatalogPath(), err)
	}
	return products, nil
}

// Merge folds the new products into the catalog. Products whose name
// already exists are counted as duplicates and discarded; the merged
// catalog and a timestamped report are persisted.
func (s *Store) Merge(ctx context.Context, products []catalog.Product) (MergeReport, error) {
	existing, err := s.Load(ctx)
	if err != nil {
		return MergeReport{}, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return MergeReport{}, err
	}

	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Name] = true
	}

	report := MergeReport{
		UpdatedAt: time.Now().Format("2006-01-02 15:04:05"),
		Previous:  len(existing),
		NewSKUs:   []string{},
	}

	// never nil, the persisted form must always be an array
	merged := make([]catalog.Product, 0, len(existing)+len(products))
	merged = append(merged, existing...)
	for _, p := range products {
		if seen[p.Name] {
			report.Skipped++
			if len(report.SkippedNames) < maxSkippedSamples {
				report.SkippedNames = append(report.SkippedNames, p.Name)
			}
			slog.DebugContext(ctx, "skipping duplicate product", "name", p.Name)
			continue
		}
		seen[p.Name] = true
		merged = append(merged, p)
		report.Added++
		report.NewSKUs = append(report.NewSKUs, p.SKU)

		if s.perProduct {
			if err := s.writeProductFile(p); err != nil {
				slog.WarnContext(ctx, "cannot write per-product file", "sku", p.SKU, "err", err)
			}
		}
	}
	report.Total = len(merged)

	if err := writeJSON(s.CatalogPath(), merged); err != nil {
		return MergeReport{}, err
	}

	reportPath := filepath.Join(s.dir, fmt.Sprintf(
		"reporte_actualizacion_%s.json", time.Now().Format("20060102_150405"),
	))
	if err := writeJSON(reportPath, report); err != nil {
		return MergeReport{}, err
	}

	slog.InfoContext(ctx, "merge complete",
		"previous", report.Previous,
		"added", report.Added,
		"duplicates", report.Skipped,
		"total", report.Total,
	)
	return report, nil
}

func (s *Store) writeProductFile(p catalog.Product) error {
	name := fmt.Sprintf("%s_%s.json", p.SKU, textutil.TruncateRunes(p.Slug, 30))
	return writeJSON(filepath.Join(s.dir, name), p)
}

// writeJSON persists pretty-printed UTF-8 JSON atomically via a
// temp-file rename, so a crash mid-write never truncates the catalog.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
