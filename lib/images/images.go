// Package images downloads product images into a local cache keyed by
// deterministic filenames. A failed download is never an error worth
// aborting an item over; callers get an empty path and move on.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"catalogbridge/lib/fetch"
	"catalogbridge/lib/textutil"
)

// thumbnail size markers in image URLs, rewritten to the full-size
// variant before fetching
var thumbSuffix = regexp.MustCompile(`-[IOD]\..*$`)

type Acquirer struct {
	fetcher *fetch.Client
	dir     string
}

func NewAcquirer(fetcher *fetch.Client, dir string) *Acquirer {
	return &Acquirer{fetcher: fetcher, dir: dir}
}

// FullSizeURL normalizes a known thumbnail suffix to the full-size
// image variant.
func FullSizeURL(imageURL string) string {
	return thumbSuffix.ReplaceAllString(imageURL, "-F.jpg")
}

// Filename computes the stable cache name for an item's image:
// `{ordinal}_{sanitized-title}.jpg`.
func Filename(ordinal int, title string) string {
	return fmt.Sprintf("%d_%s.jpg", ordinal, textutil.SanitizeFilename(title))
}

// Fetch downloads imageURL into the cache directory and returns the
// local path. The fetch is skipped entirely when the file already
// exists, which makes re-runs idempotent. On any failure it returns ""
// and no error.
func (a *Acquirer) Fetch(ctx context.Context, imageURL, title string, ordinal int) string {
	if imageURL == "" {
		return ""
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		slog.WarnContext(ctx, "cannot create image directory", "dir", a.dir, "err", err)
		return ""
	}

	path := filepath.Join(a.dir, Filename(ordinal, title))
	if _, err := os.Stat(path); err == nil {
		return path
	}

	body, err := a.fetcher.Get(ctx, FullSizeURL(imageURL))
	if err != nil {
		slog.WarnContext(ctx, "image download failed", "url", imageURL, "err", err)
		return ""
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		slog.WarnContext(ctx, "cannot persist image", "path", path, "err", err)
		return ""
	}
	return path
}
