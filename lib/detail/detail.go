// Package detail extracts the description and specification blocks
// from one product detail page. Unlike the listing cascade, the spec
// methods are cumulative: each structural strategy contributes its own
// block and the results are merged. An all-empty result means the
// detail page revealed nothing, not that extraction failed.
package detail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"catalogbridge/lib/catalog"
	"catalogbridge/lib/htmlutil"
	"catalogbridge/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("detail")

const maxDescriptionRunes = 500

// Details is what one detail page yields.
type Details struct {
	Description string
	// Primary holds the standard spec table pairs plus any
	// structured-data additional properties.
	Primary catalog.SpecBlock
	// Sales holds the highlighted spec card pairs.
	Sales catalog.SpecBlock
	// Other holds the technical spec section pairs.
	Other catalog.SpecBlock
}

func (d Details) Empty() bool {
	return d.Description == "" && len(d.Primary) == 0 && len(d.Sales) == 0 && len(d.Other) == 0
}

// Extract parses one product page. Parse problems degrade to whatever
// was accumulated so far; the caller decides what an empty result
// means.
func Extract(ctx context.Context, body []byte) Details {
	_, span := tracer.Start(ctx, "Extract")
	defer span.End()

	var d Details
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return d
	}

	d.Description = extractDescription(doc)
	d.Primary = extractSpecTable(doc)
	d.Sales = extractHighlightedSpecs(doc)
	d.Other = extractTechSpecs(doc)
	mergeStructuredData(doc, &d)

	span.SetAttributes(
		attribute.Int("primary_specs", len(d.Primary)),
		attribute.Int("sales_specs", len(d.Sales)),
		attribute.Int("other_specs", len(d.Other)),
		attribute.Bool("has_description", d.Description != ""),
	)
	return d
}

func extractDescription(doc *goquery.Document) string {
	for _, sel := range []string{
		`div[class*="ui-pdp-description"]`,
		`div[class*="item-description"]`,
		`p[class*="ui-pdp-description__content"]`,
	} {
		if text := htmlutil.CleanText(doc.Find(sel).First()); text != "" {
			return textutil.TruncateRunes(text, maxDescriptionRunes)
		}
	}
	return ""
}

// extractSpecTable reads the generic two-column spec table: each row's
// first two cells become a label/value pair.
func extractSpecTable(doc *goquery.Document) catalog.SpecBlock {
	var block catalog.SpecBlock
	table := doc.Find(`table[class*="andes-table"], table[class*="specs"]`).First()
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		label := htmlutil.CleanText(cells.Eq(0))
		value := htmlutil.CleanText(cells.Eq(1))
		if label != "" {
			block = block.Set(label, value)
		}
	})
	return block
}

func extractHighlightedSpecs(doc *goquery.Document) catalog.SpecBlock {
	var block catalog.SpecBlock
	doc.Find(`div[class*="ui-pdp-highlighted-specs"], div[class*="ui-vpp-highlighted-specs"]`).
		Each(func(_ int, container *goquery.Selection) {
			container.Find(`div[class*="ui-pdp-highlighted-specs__item"]`).
				Each(func(_ int, item *goquery.Selection) {
					label := htmlutil.CleanText(item.Find(`span[class*="label"]`).First())
					value := htmlutil.CleanText(item.Find(`span[class*="value"]`).First())
					if label != "" && value != "" {
						block = block.Set(label, value)
					}
				})
		})
	return block
}

func extractTechSpecs(doc *goquery.Document) catalog.SpecBlock {
	var block catalog.SpecBlock
	doc.Find(`div[class*="ui-pdp-specs"]`).Each(func(_ int, section *goquery.Selection) {
		section.Find("tr").Each(func(_ int, row *goquery.Selection) {
			label := htmlutil.CleanText(row.Find("th").First())
			value := htmlutil.CleanText(row.Find("td").First())
			if label != "" && value != "" {
				block = block.Set(label, value)
			}
		})
	})
	return block
}

// mergeStructuredData scans embedded JSON-LD blocks. The description
// is only taken from there when the markup cascade came up empty;
// additional properties are merged into the primary block.
func mergeStructuredData(doc *goquery.Document, d *Details) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, script *goquery.Selection) {
		text := ""
		for _, node := range script.Nodes {
			text = htmlutil.GetText(node)
		}

		var data struct {
			Description        string `json:"description"`
			AdditionalProperty []struct {
				Name  string `json:"name"`
				Value any    `json:"value"`
			} `json:"additionalProperty"`
		}
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			return
		}

		if d.Description == "" && data.Description != "" {
			d.Description = textutil.TruncateRunes(strings.TrimSpace(data.Description), maxDescriptionRunes)
		}
		for _, prop := range data.AdditionalProperty {
			if prop.Name == "" || prop.Value == nil {
				continue
			}
			d.Primary = d.Primary.Set(prop.Name, fmt.Sprint(prop.Value))
		}
	})
}
