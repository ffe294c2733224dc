// Package rates supplies currency conversion for price display. The
// monthly price is charged in BRL; clients showing the app in another
// language convert it through the table served here. The external rate
// service is an optional collaborator: when it cannot be reached the
// hardcoded fallback table is used, so price display never breaks.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Table maps ISO currency codes to their value per 1 BRL.
type Table map[string]float64

// Fallback is the static table used when no provider is configured or
// the fetch fails. Data, not logic: refreshed by hand on release.
var Fallback = Table{
	"BRL": 1.0,
	"USD": 0.18,
	"EUR": 0.17,
	"ARS": 160.0,
}

// Provider fetches a conversion table with BRL as the base currency.
type Provider interface {
	Rates(ctx context.Context) (Table, error)
}

// HTTPProvider fetches rates from a JSON endpoint shaped like
// {"base":"BRL","rates":{"USD":0.18,...}}.
type HTTPProvider struct {
	URL    string
	Client *http.Client
}

func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (p *HTTPProvider) Rates(ctx context.Context) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates: unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Base  string `json:"base"`
		Rates Table  `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates: empty table")
	}
	body.Rates["BRL"] = 1.0
	return body.Rates, nil
}

// Cached decorates a Provider with a Redis cache so the external
// service is hit at most once per TTL. A nil client disables caching.
type Cached struct {
	Inner Provider
	RDB   *redis.Client
	TTL   time.Duration
	Key   string
}

func NewCached(inner Provider, rdb *redis.Client, ttl time.Duration) *Cached {
	return &Cached{Inner: inner, RDB: rdb, TTL: ttl, Key: "rates:brl"}
}

func (c *Cached) Rates(ctx context.Context) (Table, error) {
	if c.RDB != nil {
		if raw, err := c.RDB.Get(ctx, c.Key).Bytes(); err == nil {
			var t Table
			if json.Unmarshal(raw, &t) == nil && len(t) > 0 {
				return t, nil
			}
		}
	}
	t, err := c.Inner.Rates(ctx)
	if err != nil {
		return nil, err
	}
	if c.RDB != nil {
		if raw, err := json.Marshal(t); err == nil {
			c.RDB.Set(ctx, c.Key, raw, c.TTL)
		}
	}
	return t, nil
}

// Static wraps a fixed table as a Provider.
type Static struct{ Table Table }

func (s Static) Rates(context.Context) (Table, error) { return s.Table, nil }

// Convert turns an amount in BRL into the target currency. The second
// return is false when the currency is not in the table.
func Convert(t Table, amountBRL float64, currency string) (float64, bool) {
	r, ok := t[currency]
	if !ok {
		return 0, false
	}
	return amountBRL * r, true
}
