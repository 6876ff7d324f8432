// Package upload posts canonical products to the remote catalog API
// one at a time, classifies every response and retries transient
// timeouts with exponential backoff. Synchronization is best-effort,
// at-least-once per record.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"time"

	"catalogbridge/lib/catalog"
	"catalogbridge/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("upload")

type Outcome int

const (
	Success Outcome = iota
	Duplicate
	AuthFailed
	Invalid
	Timeout
	Unreachable
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Duplicate:
		return "duplicate"
	case AuthFailed:
		return "auth_failed"
	case Invalid:
		return "invalid"
	case Timeout:
		return "timeout"
	case Unreachable:
		return "unreachable"
	default:
		return "failed"
	}
}

// Result is the classified outcome of pushing one record.
type Result struct {
	Outcome Outcome
	Message string
}

type Config struct {
	// Endpoint is the product collection URL, e.g.
	// http://localhost:4000/api/products
	Endpoint string
	Token    string
	// Timeout bounds each POST. Defaults to 30s.
	Timeout time.Duration
	// MaxRetries bounds the timeout retry loop. Defaults to 3.
	MaxRetries int
	// RecordDelay is slept between records regardless of outcome.
	// Defaults to 500ms.
	RecordDelay time.Duration
	// BackoffBase scales the 2^attempt backoff wait. Defaults to 1s.
	BackoffBase time.Duration
}

type Client struct {
	http *resty.Client
	cfg  Config
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RecordDelay == 0 {
		cfg.RecordDelay = 500 * time.Millisecond
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Second
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetAuthToken(cfg.Token)
	client.SetHeader("Content-Type", "application/json")
	telemetry.InstrumentResty(client, "upload")

	return &Client{http: client, cfg: cfg}
}

// Probe checks that the server behind the endpoint is reachable at
// all before a batch starts. It hits the server root, not the product
// collection, so it works without credentials.
func (c *Client) Probe(ctx context.Context) error {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.cfg.Endpoint, err)
	}
	u.Path = "/"

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = c.http.R().SetContext(ctx).Get(u.String())
	if err != nil {
		return fmt.Errorf("server unreachable at %s: %w", u.String(), err)
	}
	return nil
}

// Push uploads one product. Timeouts are retried with a 2^attempt
// backoff up to MaxRetries; every other failure is final for the
// record.
func (c *Client) Push(ctx context.Context, p catalog.Product) Result {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()
	span.SetAttributes(attribute.String("sku", p.SKU))

	for attempt := 0; ; attempt++ {
		res, err := c.http.R().
			SetContext(ctx).
			SetBody(p).
			Post(c.cfg.Endpoint)

		if err != nil {
			if isTimeout(err) {
				if attempt < c.cfg.MaxRetries {
					wait := c.cfg.BackoffBase * (1 << attempt)
					slog.WarnContext(ctx, "timeout, backing off",
						"sku", p.SKU, "attempt", attempt+1, "wait", wait)
					select {
					case <-time.After(wait):
						continue
					case <-ctx.Done():
						return Result{Outcome: Unreachable, Message: ctx.Err().Error()}
					}
				}
				return Result{Outcome: Timeout, Message: "server timed out on every attempt"}
			}
			return Result{Outcome: Unreachable, Message: err.Error()}
		}

		return classify(res)
	}
}

func classify(res *resty.Response) Result {
	switch res.StatusCode() {
	case 200, 201:
		return Result{Outcome: Success}
	case 409:
		return Result{Outcome: Duplicate, Message: "product already exists"}
	case 401:
		return Result{Outcome: AuthFailed, Message: "token invalid or expired"}
	case 400:
		msg := "validation error"
		var body struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(res.Body(), &body); err == nil && body.Message != "" {
			msg = body.Message
		}
		return Result{Outcome: Invalid, Message: msg}
	default:
		body := res.String()
		if len(body) > 100 {
			body = body[:100]
		}
		return Result{Outcome: Failed, Message: fmt.Sprintf("HTTP %d: %s", res.StatusCode(), body)}
	}
}

func isTimeout(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded)
}
