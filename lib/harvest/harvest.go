// Package harvest walks a paginated listing from a seed URL and
// produces the full raw item stream. Harvesting is deliberately
// single-threaded with politeness delays between requests; the
// page-then-in-page order of the result is significant downstream.
package harvest

import (
	"context"
	"log/slog"
	"time"

	"catalogbridge/lib/catalog"
	"catalogbridge/lib/detail"
	"catalogbridge/lib/fetch"
	"catalogbridge/lib/images"
	"catalogbridge/lib/listing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("harvest")

type state int

const (
	stateFetching state = iota
	stateDone
)

type Options struct {
	// MaxPages guards against pagination loops. Defaults to 10.
	MaxPages int
	// PageDelay is slept between listing pages. Defaults to 2s.
	PageDelay time.Duration
	// DetailDelay is slept after each detail fetch. Defaults to 500ms.
	DetailDelay time.Duration
	// FetchDetails enriches every item with its detail page.
	FetchDetails bool
	// ItemLimit stops the run after this many items when positive.
	ItemLimit int
}

type Harvester struct {
	fetcher  *fetch.Client
	acquirer *images.Acquirer
	opts     Options
}

// New builds a harvester. acquirer may be nil to skip image downloads.
func New(fetcher *fetch.Client, acquirer *images.Acquirer, opts Options) *Harvester {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	if opts.PageDelay == 0 {
		opts.PageDelay = 2 * time.Second
	}
	if opts.DetailDelay == 0 {
		opts.DetailDelay = 500 * time.Millisecond
	}
	return &Harvester{fetcher: fetcher, acquirer: acquirer, opts: opts}
}

// Run harvests pages starting at seedURL until the listing is
// exhausted, the page ceiling is reached, or a transport failure
// occurs. Partial results are returned, never discarded.
func (h *Harvester) Run(ctx context.Context, seedURL string) []catalog.RawItem {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	var items []catalog.RawItem
	current := seedURL
	pageNum := 1
	st := stateFetching

	for st == stateFetching {
		slog.InfoContext(ctx, "fetching listing page", "page", pageNum, "url", current)

		body, err := h.fetcher.Get(ctx, current)
		if err != nil {
			slog.ErrorContext(ctx, "listing page fetch failed, stopping", "page", pageNum, "err", err)
			st = stateDone
			break
		}

		page, err := listing.ExtractPage(ctx, body, current, listing.Options{StartOrdinal: len(items)})
		if err != nil {
			slog.ErrorContext(ctx, "listing page parse failed, stopping", "page", pageNum, "err", err)
			st = stateDone
			break
		}
		if len(page.Items) == 0 {
			// either the end of content or a markup mismatch, both
			// terminal
			slog.WarnContext(ctx, "no items on page, stopping", "page", pageNum)
			st = stateDone
			break
		}

		for i := range page.Items {
			h.enrich(ctx, &page.Items[i])
			items = append(items, page.Items[i])
			if h.opts.ItemLimit > 0 && len(items) >= h.opts.ItemLimit {
				slog.InfoContext(ctx, "item limit reached", "limit", h.opts.ItemLimit)
				st = stateDone
				break
			}
		}
		if st == stateDone {
			break
		}

		if page.NextURL == "" {
			slog.InfoContext(ctx, "no further pages")
			st = stateDone
			break
		}
		if pageNum >= h.opts.MaxPages {
			slog.WarnContext(ctx, "page ceiling reached", "max_pages", h.opts.MaxPages)
			st = stateDone
			break
		}

		current = page.NextURL
		pageNum++
		time.Sleep(h.opts.PageDelay)
	}

	span.SetAttributes(
		attribute.Int("pages", pageNum),
		attribute.Int("items", len(items)),
	)
	return items
}

// enrich fills an item's detail fields and local image path in place.
func (h *Harvester) enrich(ctx context.Context, item *catalog.RawItem) {
	if h.opts.FetchDetails && item.Link != "" {
		body, err := h.fetcher.Get(ctx, item.Link)
		if err != nil {
			slog.WarnContext(ctx, "detail page unavailable", "url", item.Link, "err", err)
		} else {
			d := detail.Extract(ctx, body)
			if d.Empty() {
				slog.DebugContext(ctx, "detail page yielded nothing", "url", item.Link)
			}
			item.Description = d.Description
			item.PrimarySpec = d.Primary
			item.SalesSpec = d.Sales
			item.OtherSpec = d.Other
		}
		time.Sleep(h.opts.DetailDelay)
	}

	if h.acquirer != nil && item.ImageURL != "" {
		item.LocalImage = h.acquirer.Fetch(ctx, item.ImageURL, item.Title, item.Ordinal)
	}
}
