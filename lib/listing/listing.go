// Package listing extracts product entries from one listing page.
// The target markup changes between layout experiments, so every field
// is resolved through an ordered cascade of selector strategies; the
// first non-empty match wins. Extraction is pure: network and file I/O
// belong to callers.
package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"catalogbridge/lib/catalog"
	"catalogbridge/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("listing")

// Page is the outcome of extracting one listing document.
type Page struct {
	Items []catalog.RawItem
	// NextURL is the absolute address of the next listing page, or ""
	// when the pagination control is absent.
	NextURL string
}

type Options struct {
	// StartOrdinal is the number of items already harvested on
	// previous pages. Ordinals keep counting across pages so
	// placeholder titles and image names stay unique per run.
	StartOrdinal int
}

// candidate container classes for the anchor-walk fallback
var fallbackContainerSelector = "div[class*=poly-card], div[class*=ui-search], div[class*=shops]"

const maxFallbackAnchors = 50

// ExtractPage parses one listing document. pageURL is used to resolve
// relative links. A malformed item never aborts the page; it is
// logged and skipped.
func ExtractPage(ctx context.Context, body []byte, pageURL string, opts Options) (Page, error) {
	ctx, span := tracer.Start(ctx, "ExtractPage")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	containers := findContainers(ctx, doc)

	var page Page
	if containers == nil {
		// structured-data last resort, the page likely renders its
		// grid with JavaScript
		page.Items = ExtractStructured(doc, opts.StartOrdinal)
	} else {
		containers.Each(func(i int, item *goquery.Selection) {
			ordinal := opts.StartOrdinal + len(page.Items) + 1
			raw, ok := extractItem(ctx, item, base, ordinal)
			if !ok {
				return
			}
			page.Items = append(page.Items, raw)
		})
	}

	page.NextURL = findNextLink(doc, base)

	span.SetAttributes(
		attribute.Int("items", len(page.Items)),
		attribute.Bool("has_next", page.NextURL != ""),
	)
	return page, nil
}

// findContainers tries the known layout variants in order and falls
// back to walking up from product anchors. Returns nil when nothing
// plausible was found.
func findContainers(ctx context.Context, doc *goquery.Document) *goquery.Selection {
	for _, sel := range []string{
		"li.ui-search-layout__item",
		"div.ui-search-result__wrapper",
		"div.andes-card",
		"div.shops__layout-item",
		"article:not([class])",
	} {
		items := doc.Find(sel)
		if items.Length() > 0 {
			return items
		}
	}

	anchors := doc.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		return strings.Contains(href, "/p/") || strings.Contains(href, "/MLC")
	})
	if anchors.Length() == 0 {
		slog.WarnContext(ctx, "no product containers or anchors matched, page may require javascript")
		return nil
	}
	slog.DebugContext(ctx, "falling back to product anchor scan", "anchors", anchors.Length())

	seen := map[*html.Node]bool{}
	var nodes *goquery.Selection
	anchors.Slice(0, min(anchors.Length(), maxFallbackAnchors)).
		Each(func(_ int, a *goquery.Selection) {
			parent := a.Closest(fallbackContainerSelector)
			if parent.Length() == 0 || seen[parent.Nodes[0]] {
				return
			}
			seen[parent.Nodes[0]] = true
			if nodes == nil {
				nodes = parent
			} else {
				nodes = nodes.AddSelection(parent)
			}
		})
	return nodes
}

var priceJunk = regexp.MustCompile(`[^\d,.]`)

func extractItem(ctx context.Context, item *goquery.Selection, base *url.URL, ordinal int) (raw catalog.RawItem, ok bool) {
	// one broken entry must not take the whole page down
	defer func() {
		if r := recover(); r != nil {
			slog.WarnContext(ctx, "skipping malformed listing item", "ordinal", ordinal, "panic", r)
			ok = false
		}
	}()

	raw.Ordinal = ordinal
	raw.Title = extractTitle(item)
	if raw.Title == "" {
		slog.WarnContext(ctx, "no title found, synthesizing placeholder", "ordinal", ordinal)
		raw.Title = fmt.Sprintf("Producto %d", ordinal)
	}

	raw.PriceText = extractPrice(item)

	link := item.Find(`a[href*="/p/"], a[href*="/MLC"], a[href*="/up/"]`).First()
	raw.Link = htmlutil.Absolutize(base, link.AttrOr("href", ""))

	img := item.Find("img").First()
	imageURL := img.AttrOr("data-src", "")
	if imageURL == "" {
		imageURL = img.AttrOr("src", "")
	}
	if strings.HasPrefix(imageURL, "data:") {
		// inline placeholder thumbnails are useless downstream
		imageURL = ""
	}
	raw.ImageURL = htmlutil.Absolutize(base, imageURL)

	raw.Location = htmlutil.CleanText(item.Find(`span[class*="location"]`).First())
	raw.Condition = htmlutil.CleanText(item.Find(`span[class*="condition"]`).First())
	raw.Shipping = htmlutil.CleanText(item.Find(`span[class*="shipping"], span[class*="envio"]`).First())

	return raw, true
}

func extractTitle(item *goquery.Selection) string {
	if t := htmlutil.CleanText(item.Find(`a[class*="poly-component__title"]`).First()); t != "" {
		return t
	}
	if t := htmlutil.CleanText(item.Find(`h2[class*="ui-search-item__title"], h2[class*="poly-component__title"]`).First()); t != "" {
		return t
	}
	if t := strings.TrimSpace(item.Find("a[title]").First().AttrOr("title", "")); t != "" {
		return t
	}
	return htmlutil.CleanText(item.Find("h3").First())
}

// extractPrice resolves the price text cascade. The integer fraction
// element is preferred; a cents element, when present, is concatenated
// as "fraction.cents". Unparsable markup yields "0".
func extractPrice(item *goquery.Selection) string {
	stripSep := strings.NewReplacer(".", "", ",", "")

	container := item.Find("span.andes-money-amount__fraction").First()
	if container.Length() == 0 {
		container = item.Find(`span[class*="price"]`).First()
	}
	if container.Length() > 0 {
		price := stripSep.Replace(htmlutil.CleanText(container))
		cents := htmlutil.CleanText(item.Find("span.andes-money-amount__cents").First())
		if cents != "" {
			price = fmt.Sprintf("%s.%s", price, cents)
		}
		return price
	}

	if div := item.Find(`div[class*="price"]`).First(); div.Length() > 0 {
		return priceJunk.ReplaceAllString(htmlutil.CleanText(div), "")
	}
	return "0"
}

var nextTitleRegex = regexp.MustCompile(`(?i)siguiente|next`)

func findNextLink(doc *goquery.Document, base *url.URL) string {
	next := doc.Find("a[title]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return nextTitleRegex.MatchString(a.AttrOr("title", ""))
	}).First()
	if next.Length() == 0 {
		next = doc.Find(`a[class*="andes-pagination__button--next"]`).First()
	}
	href := next.AttrOr("href", "")
	if href == "" {
		return ""
	}
	return htmlutil.Absolutize(base, href)
}

// ExtractStructured pulls product entries out of embedded JSON-LD
// blocks. Some layouts ship the grid data-first and render it client
// side; the structured data is all the server gives us then.
func ExtractStructured(doc *goquery.Document, startOrdinal int) []catalog.RawItem {
	var items []catalog.RawItem
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, script *goquery.Selection) {
		var data struct {
			Type   string `json:"@type"`
			Name   string `json:"name"`
			Image  string `json:"image"`
			URL    string `json:"url"`
			Offers struct {
				Price json.Number `json:"price"`
			} `json:"offers"`
		}
		if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
			return
		}
		if data.Type != "Product" {
			return
		}
		items = append(items, catalog.RawItem{
			Ordinal:   startOrdinal + len(items) + 1,
			Title:     data.Name,
			PriceText: data.Offers.Price.String(),
			ImageURL:  data.Image,
			Link:      data.URL,
		})
	})
	return items
}
