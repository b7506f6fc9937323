// Package rates fetches bank exchange quotes from an external HTTP source.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a single currency's buy/sell price in BYN.
type Quote struct {
	Currency string
	Buy      decimal.Decimal
	Sell     decimal.Decimal
}

// QuoteFetcher retrieves the current set of quotes.
type QuoteFetcher interface {
	Fetch(ctx context.Context) ([]Quote, error)
}

// MyfinClient fetches quotes from the myfin.by exchange endpoint.
type MyfinClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewMyfinClient creates a client for the given endpoint URL. A nil
// httpClient gets a default with a 10 second timeout.
func NewMyfinClient(baseURL string, httpClient *http.Client) *MyfinClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &MyfinClient{httpClient: httpClient, baseURL: baseURL}
}

// quotePayload tolerates both numeric and string-encoded prices.
type quotePayload struct {
	Buy  json.Number `json:"buy"`
	Sell json.Number `json:"sell"`
}

// Fetch performs a single request. No retries: the caller decides what
// happens on failure.
func (c *MyfinClient) Fetch(ctx context.Context) ([]Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching quotes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading quote response: %w", err)
	}

	var payload map[string]quotePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding quote response: %w", err)
	}

	quotes := make([]Quote, 0, len(payload))
	for _, currency := range sortedCurrencies(payload) {
		p := payload[currency]
		buy, err := parsePrice(p.Buy)
		if err != nil {
			return nil, fmt.Errorf("parsing %s buy price: %w", currency, err)
		}
		sell, err := parsePrice(p.Sell)
		if err != nil {
			return nil, fmt.Errorf("parsing %s sell price: %w", currency, err)
		}
		quotes = append(quotes, Quote{Currency: currency, Buy: buy, Sell: sell})
	}
	return quotes, nil
}

func sortedCurrencies(payload map[string]quotePayload) []string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parsePrice(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}
