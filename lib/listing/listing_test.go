package listing

import (
	"context"
	"testing"

	"catalogbridge/lib/telemetry"

	_ "embed"

	"github.com/stretchr/testify/require"
)

//go:embed testdata/standard_layout.html
var standardLayout []byte

//go:embed testdata/anchor_fallback.html
var anchorFallback []byte

//go:embed testdata/structured_only.html
var structuredOnly []byte

func TestExtractStandardLayout(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:listing")
	defer cleanup()

	page, err := ExtractPage(context.Background(), standardLayout, "https://listado.mercadolibre.cl/tienda/", Options{})
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, page.Items, 3)

	first := page.Items[0]
	require.Equal(t, 1, first.Ordinal)
	require.Equal(t, "Mochila de Viaje Impermeable 40L", first.Title)
	require.Equal(t, "12990", first.PriceText)
	// the lazy-load attribute wins over the inline data URI
	require.Equal(t, "https://http2.mlstatic.com/D_123-I.jpg", first.ImageURL)
	require.Equal(t, "https://listado.mercadolibre.cl/p/MLC12345", first.Link)
	require.Equal(t, "Santiago", first.Location)

	second := page.Items[1]
	require.Equal(t, "Almohada Cervical de Viaje", second.Title)
	require.Equal(t, "5490.50", second.PriceText)
	require.Equal(t, "https://listado.mercadolibre.cl/MLC-67890-almohada", second.Link)
	require.Equal(t, "Envío gratis", second.Shipping)

	// no title anywhere yields a synthesized placeholder
	third := page.Items[2]
	require.Equal(t, "Producto 3", third.Title)
	require.Equal(t, "3.990", third.PriceText)

	require.Equal(t, "https://listado.mercadolibre.cl/pagina/tienda?page=2", page.NextURL)
}

func TestExtractOrdinalsContinueAcrossPages(t *testing.T) {
	page, err := ExtractPage(context.Background(), standardLayout, "https://listado.mercadolibre.cl/tienda/", Options{StartOrdinal: 5})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, page.Items, 3)
	require.Equal(t, 6, page.Items[0].Ordinal)
	require.Equal(t, "Producto 8", page.Items[2].Title)
}

func TestExtractAnchorFallback(t *testing.T) {
	page, err := ExtractPage(context.Background(), anchorFallback, "https://listado.mercadolibre.cl/tienda/", Options{})
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, page.Items, 2)
	require.Equal(t, "Candado TSA para Maleta", page.Items[0].Title)
	require.Equal(t, "$ 4990", page.Items[0].PriceText)
	require.Equal(t, "Adaptador Universal de Enchufe", page.Items[1].Title)
	require.Equal(t, "", page.NextURL)
}

func TestExtractAnchorFallbackSuffixedContainerClass(t *testing.T) {
	// generated class variants like poly-card--grid still count as
	// containers
	body := `<html><body>
<div class="poly-card--grid">
  <a href="/p/MLC555"><h3>Correa para Maleta</h3></a>
  <span class="poly-price__current">2.990</span>
</div>
</body></html>`

	page, err := ExtractPage(context.Background(), []byte(body), "https://listado.mercadolibre.cl/tienda/", Options{})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, page.Items, 1)
	require.Equal(t, "Correa para Maleta", page.Items[0].Title)
	require.Equal(t, "2990", page.Items[0].PriceText)
}

func TestExtractStructuredFallback(t *testing.T) {
	page, err := ExtractPage(context.Background(), structuredOnly, "https://listado.mercadolibre.cl/tienda/", Options{})
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, page.Items, 1)
	item := page.Items[0]
	require.Equal(t, "Botella Térmica 750ml", item.Title)
	require.Equal(t, "14990", item.PriceText)
	require.Equal(t, "https://articulo.mercadolibre.cl/MLC-333", item.Link)
	require.Equal(t, "https://http2.mlstatic.com/D_789-F.jpg", item.ImageURL)
}

func TestExtractEmptyDocument(t *testing.T) {
	page, err := ExtractPage(context.Background(), []byte("<html><body><p>nada</p></body></html>"), "https://example.com/", Options{})
	if err != nil {
		t.Fatal(err)
	}
	require.Empty(t, page.Items)
	require.Equal(t, "", page.NextURL)
}
