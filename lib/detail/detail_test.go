package detail

import (
	"context"
	"strings"
	"testing"

	"catalogbridge/lib/catalog"
	"catalogbridge/lib/telemetry"

	_ "embed"

	"github.com/stretchr/testify/require"
)

//go:embed testdata/product_page.html
var productPage []byte

func TestExtractProductPage(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:detail")
	defer cleanup()

	d := Extract(context.Background(), productPage)
	require.False(t, d.Empty())

	require.Equal(t,
		"Mochila de viaje con compartimento acolchado para notebook, "+
			"cierre impermeable y correas ajustables. Ideal para trekking y viajes cortos.",
		d.Description)

	// later table rows overwrite earlier ones with the same label, and
	// structured-data properties land at the end of the primary block
	require.Equal(t, catalog.SpecBlock{
		{Label: "Marca", Value: "Quechua Forclaz"},
		{Label: "Capacidad", Value: "40 L"},
		{Label: "Material", Value: "Poliéster"},
		{Label: "Litros", Value: "40"},
	}, d.Primary)

	require.Equal(t, catalog.SpecBlock{
		{Label: "Garantía", Value: "6 meses"},
	}, d.Sales)

	require.Equal(t, catalog.SpecBlock{
		{Label: "Peso", Value: "950 g"},
		{Label: "Alto", Value: "55 cm"},
	}, d.Other)
}

func TestExtractStructuredDescriptionFallback(t *testing.T) {
	page := `<html><body>
		<script type="application/ld+json">
		{"@type":"Product","description":"  Solo datos estructurados.  "}
		</script>
	</body></html>`

	d := Extract(context.Background(), []byte(page))
	require.Equal(t, "Solo datos estructurados.", d.Description)
	require.Empty(t, d.Primary)
}

func TestExtractDescriptionTruncated(t *testing.T) {
	long := strings.Repeat("á", 600)
	page := `<html><body><div class="ui-pdp-description">` + long + `</div></body></html>`

	d := Extract(context.Background(), []byte(page))
	require.Equal(t, strings.Repeat("á", 500), d.Description)
}

func TestExtractEmptyPage(t *testing.T) {
	d := Extract(context.Background(), []byte("<html><body><h1>404</h1></body></html>"))
	require.True(t, d.Empty())
}
