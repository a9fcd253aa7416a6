// Package oneframe is the client for the OneFrame quote provider. One batch
// GET covers every tracked ordered pair, so the daily request budget is spent
// per refresh cycle rather than per lookup.
package oneframe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sawpanic/fxproxy/internal/domain"
)

// ErrLookupFailed wraps any failure to obtain rates after retries are spent.
var ErrLookupFailed = fmt.Errorf("oneframe: lookup failed")

const initialBackoff = 100 * time.Millisecond

// Config holds the upstream connection settings.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int // additional attempts after the first
}

// Client fetches the full tracked quote set. It is stateless with respect to
// callers and safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
	now  func() time.Time
}

// NewClient builds a client with a per-request timeout from cfg.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger.With().Str("component", "oneframe").Logger(),
		now:  time.Now,
	}
}

// oneFrameRate mirrors the upstream record shape. Only price is consumed;
// bid/ask are decoded and discarded.
type oneFrameRate struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Price     decimal.Decimal `json:"price"`
	TimeStamp string          `json:"time_stamp"`
}

// FetchAll requests all 72 tracked ordered pairs in one call, retrying on any
// transport error, non-2xx status, or decode failure. The delay before each
// retry starts at 100ms and doubles, and is interruptible via ctx.
func (c *Client) FetchAll(ctx context.Context) ([]domain.Rate, error) {
	reqURL, err := c.buildURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Debug().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying upstream fetch")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrLookupFailed, ctx.Err())
			}
			backoff *= 2
		}

		rates, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			return rates, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrLookupFailed, lastErr)
}

func (c *Client) buildURL() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for _, p := range domain.TrackedPairs() {
		q.Add("pair", p.String())
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string) ([]domain.Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("token", c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	var raw []oneFrameRate
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}
	return c.mapRates(raw), nil
}

// mapRates converts upstream records to domain rates, silently dropping rows
// whose currencies fail the whitelist. Order is preserved.
func (c *Client) mapRates(raw []oneFrameRate) []domain.Rate {
	out := make([]domain.Rate, 0, len(raw))
	for _, r := range raw {
		from, err := domain.ParseCurrency(r.From)
		if err != nil {
			c.log.Debug().Str("from", r.From).Str("to", r.To).Msg("dropping rate with unknown currency")
			continue
		}
		to, err := domain.ParseCurrency(r.To)
		if err != nil {
			c.log.Debug().Str("from", r.From).Str("to", r.To).Msg("dropping rate with unknown currency")
			continue
		}
		out = append(out, domain.Rate{
			Pair:      domain.Pair{From: from, To: to},
			Price:     r.Price,
			Timestamp: c.parseTimestamp(r.TimeStamp),
		})
	}
	return out
}

// parseTimestamp falls back to the local clock when the upstream timestamp is
// unparseable. Permissive on purpose; see the service README for the caveat.
func (c *Client) parseTimestamp(s string) time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		c.log.Warn().Str("time_stamp", s).Msg("unparseable upstream timestamp, using local clock")
		return c.now()
	}
	return ts
}
