package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultFrankfurterURL = "https://api.frankfurter.app"
	frankfurterUserAgent  = "famcoin-bot"
)

var errRateMissing = errors.New("conversion rate missing in response")

// FrankfurterClient reads daily ECB reference rates from frankfurter.app. It
// backs the local currency hint shown next to coin amounts.
type FrankfurterClient struct {
	baseURL    string
	httpClient *http.Client
}

type frankfurterResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// NewFrankfurterClient creates a client whose requests are traced as
// "frankfurter latest" spans.
func NewFrankfurterClient(baseURL string, timeout time.Duration) *FrankfurterClient {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultFrankfurterURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "frankfurter " + strings.TrimPrefix(r.URL.Path, "/")
		}),
	)
	return &FrankfurterClient{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
	}
}

func (c *FrankfurterClient) latestURL(from, to string) string {
	q := url.Values{"from": {from}, "to": {to}}
	return c.baseURL + "/latest?" + q.Encode()
}

// Rate returns the latest rate for the currency pair.
func (c *FrankfurterClient) Rate(ctx context.Context, fromCurrency, toCurrency string) (Rate, error) {
	from, to := normalizeCurrency(fromCurrency), normalizeCurrency(toCurrency)
	if from == "" || to == "" {
		return Rate{}, errors.New("from and to currencies are required")
	}
	if from == to {
		return Rate{From: from, To: to, Value: decimal.NewFromInt(1), Date: time.Now().UTC()}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.latestURL(from, to), nil)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to create rate request: %w", err)
	}
	req.Header.Set("User-Agent", frankfurterUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to request rate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("exchange API returned status %d", resp.StatusCode)
	}

	rate, err := decodeRate(resp.Body, to)
	if err != nil {
		return Rate{}, err
	}
	rate.From = from
	return rate, nil
}

// decodeRate reads a /latest payload and picks the rate quoted for to.
func decodeRate(body io.Reader, to string) (Rate, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var payload frankfurterResponse
	if err := dec.Decode(&payload); err != nil {
		return Rate{}, fmt.Errorf("failed to decode rate response: %w", err)
	}

	raw, ok := payload.Rates[to]
	if !ok {
		return Rate{}, errRateMissing
	}
	value, err := decimal.NewFromString(raw.String())
	if err != nil {
		return Rate{}, fmt.Errorf("failed to parse rate: %w", err)
	}
	if err := validateRate(value); err != nil {
		return Rate{}, err
	}
	date, err := time.Parse(time.DateOnly, payload.Date)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to parse rate date: %w", err)
	}

	return Rate{From: normalizeCurrency(payload.Base), To: to, Value: value, Date: date}, nil
}
