package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalogbridge/lib/catalog"
	"catalogbridge/lib/telemetry"
	"catalogbridge/lib/transform"

	"github.com/stretchr/testify/require"
)

func product(name, sku, slug string) catalog.Product {
	return catalog.Product{
		SKU:         sku,
		Name:        name,
		Slug:        slug,
		Category:    "OTROS",
		Subcategory: "Varios",
		Active:      true,
		Variants: []catalog.Variant{{
			Name: "Estándar", Unit: "unidades", Price: 1000,
			SKU: sku + "-VAR001", Default: true,
		}},
	}
}

func TestMergeIntoEmptyCatalog(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:store")
	defer cleanup()

	dir := t.TempDir()
	s := New(dir, "productos.json", true)
	ctx := context.Background()

	report, err := s.Merge(ctx, []catalog.Product{
		product("Mochila Azul", "MOC-OTRO-VAR-111", "mochila-azul"),
		product("Candado TSA", "CAN-OTRO-VAR-222", "candado-tsa"),
	})
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, 0, report.Previous)
	require.Equal(t, 2, report.Added)
	require.Equal(t, 0, report.Skipped)
	require.Equal(t, 2, report.Total)
	require.Equal(t, []string{"MOC-OTRO-VAR-111", "CAN-OTRO-VAR-222"}, report.NewSKUs)

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, loaded, 2)
	require.Equal(t, "Mochila Azul", loaded[0].Name)

	// one standalone file per new product
	require.FileExists(t, filepath.Join(dir, "MOC-OTRO-VAR-111_mochila-azul.json"))
	require.FileExists(t, filepath.Join(dir, "CAN-OTRO-VAR-222_candado-tsa.json"))

	reports, err := filepath.Glob(filepath.Join(dir, "reporte_actualizacion_*.json"))
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, reports, 1)
}

func TestMergeSkipsExistingNames(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "productos.json", false)
	ctx := context.Background()

	batch := []catalog.Product{
		product("Mochila Azul", "MOC-OTRO-VAR-111", "mochila-azul"),
	}
	if _, err := s.Merge(ctx, batch); err != nil {
		t.Fatal(err)
	}

	// same name, different SKU: the stored product wins
	report, err := s.Merge(ctx, []catalog.Product{
		product("Mochila Azul", "MOC-OTRO-VAR-999", "mochila-azul"),
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 1, report.Previous)
	require.Equal(t, 0, report.Added)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, []string{"Mochila Azul"}, report.SkippedNames)
	require.Equal(t, 1, report.Total)

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, loaded, 1)
	require.Equal(t, "MOC-OTRO-VAR-111", loaded[0].SKU)
}

func TestMergeDeduplicatesWithinBatch(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "productos.json", false)

	report, err := s.Merge(context.Background(), []catalog.Product{
		product("Mochila Azul", "MOC-OTRO-VAR-111", "mochila-azul"),
		product("Mochila Azul", "MOC-OTRO-VAR-222", "mochila-azul"),
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 1, report.Added)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, []string{"MOC-OTRO-VAR-111"}, report.NewSKUs)
}

func TestMergeEmptyBatchWritesArray(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "productos.json", false)

	report, err := s.Merge(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 0, report.Total)

	// the catalog artifact is a JSON array even when empty
	data, err := os.ReadFile(s.CatalogPath())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestLoadMalformedCatalog(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "productos.json", false)

	if err := os.WriteFile(s.CatalogPath(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(context.Background())
	require.ErrorContains(t, err, "malformed")

	// a merge on top of a corrupt catalog must not write anything
	_, err = s.Merge(context.Background(), []catalog.Product{
		product("Mochila Azul", "MOC-OTRO-VAR-111", "mochila-azul"),
	})
	require.Error(t, err)
}

func TestLoadMissingCatalog(t *testing.T) {
	s := New(t.TempDir(), "productos.json", false)
	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	require.Nil(t, loaded)
}

// Re-running a full transform+merge over the same raw snapshot must
// leave the catalog untouched.
func TestRepeatedPipelineRunsAddNothing(t *testing.T) {
	raw := []catalog.RawItem{
		{Ordinal: 1, Title: "Mochila Azul", PriceText: "12.990"},
		{Ordinal: 2, Title: "Candado TSA", PriceText: "4.990"},
		{Ordinal: 3, Title: "Botella Térmica", PriceText: "14.990"},
	}

	engine := transform.New(transform.Config{})
	s := New(t.TempDir(), "productos.json", false)
	ctx := context.Background()

	run := func() MergeReport {
		var products []catalog.Product
		for _, item := range raw {
			products = append(products, engine.Product(item))
		}
		report, err := s.Merge(ctx, products)
		if err != nil {
			t.Fatal(err)
		}
		return report
	}

	first := run()
	require.Equal(t, 3, first.Added)

	second := run()
	require.Equal(t, 0, second.Added)
	require.Equal(t, 3, second.Skipped)
	require.Equal(t, 3, second.Total)
}
