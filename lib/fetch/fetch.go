// Package fetch provides the shared HTTP client used by the listing
// harvester, the image acquirer and the connectivity probes. Transport
// failures surface as regular errors; non-2xx responses surface as
// *StatusError so callers can tell the two apart.
package fetch

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"catalogbridge/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// StatusError reports a completed request that came back with a
// non-success status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.URL)
}

type Options struct {
	// Timeout defaults to 15s, the listing pages are slow to render
	// server-side.
	Timeout time.Duration
}

type Client struct {
	http *resty.Client
}

// NewClient builds a resty client with browser-like headers. Listing
// sites reject obvious bot traffic, so the client carries a desktop
// user agent and the cloudflare bypass transport.
func NewClient(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetTimeout(timeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeaders(map[string]string{
		"User-Agent":                "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "es-CL,es;q=0.9,en;q=0.8",
		"DNT":                       "1",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Cache-Control":             "max-age=0",
	})

	telemetry.InstrumentResty(client, "fetch")

	return &Client{http: client}, nil
}

// Get fetches one resource. The returned body is valid only when err
// is nil.
func (c *Client) Get(ctx context.Context, link string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, &StatusError{Code: res.StatusCode(), URL: link}
	}
	return res.Body(), nil
}
