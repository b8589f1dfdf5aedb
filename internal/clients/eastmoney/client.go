// Package eastmoney is a client for the Eastmoney push2 quote endpoints.
package eastmoney

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/aristath/ashare-monitor/internal/domain"
)

// Endpoint defaults. Tests point these at an httptest server.
const (
	DefaultQuoteURL = "https://push2.eastmoney.com/api/qt/ulist.np/get"
	DefaultKlineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
)

// Quote fields: f2 price, f3 change pct, f6 volume, f12 code, f14 name,
// f23 turnover, f62 main net inflow, f164 5-day main net inflow.
const (
	quoteFields    = "f2,f3,f6,f12,f14,f23"
	fundFlowFields = "f12,f14,f62,f164"
)

const (
	requestTimeout = 10 * time.Second
	maxRetries     = 3
	retryDelay     = 500 * time.Millisecond

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer   = "https://quote.eastmoney.com/"
)

// Client is an Eastmoney market data client. It implements the collector's
// QuoteProvider interface.
type Client struct {
	client   *http.Client
	quoteURL string
	klineURL string
	log      zerolog.Logger
}

// NewClient creates a new Eastmoney client.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: requestTimeout,
		},
		quoteURL: DefaultQuoteURL,
		klineURL: DefaultKlineURL,
		log:      log.With().Str("client", "eastmoney").Logger(),
	}
}

// SecID converts an A-share code to an Eastmoney secid: Shanghai codes get
// the "0." market prefix, Shenzhen codes get "1.".
func SecID(code string) string {
	if code != "" && code[0] == '6' {
		return "0." + code
	}
	return "1." + code
}

// GetQuote fetches the realtime quote for one code.
func (c *Client) GetQuote(ctx context.Context, code string) (domain.Quote, error) {
	url := fmt.Sprintf("%s?secids=%s&fields=%s", c.quoteURL, SecID(code), quoteFields)

	body, err := c.get(ctx, url)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote request for %s: %w", code, err)
	}

	quote, err := parseQuote(body, code)
	if err != nil {
		return domain.Quote{}, err
	}
	return quote, nil
}

// GetDailyKlines fetches up to `days` daily bars, forward adjusted, oldest
// first.
func (c *Client) GetDailyKlines(ctx context.Context, code string, days int) ([]domain.Kline, error) {
	if days <= 0 {
		return nil, fmt.Errorf("invalid kline count %d", days)
	}
	if days > 1000 {
		days = 1000
	}

	url := fmt.Sprintf("%s?secid=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56&klt=101&fqt=1&lmt=%d",
		c.klineURL, SecID(code), days)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("kline request for %s: %w", code, err)
	}

	return parseKlines(body, code)
}

// GetFundFlow fetches main-capital net inflow figures, converted to units of
// ten thousand yuan.
func (c *Client) GetFundFlow(ctx context.Context, code string) (domain.FundFlow, error) {
	url := fmt.Sprintf("%s?secids=%s&fields=%s", c.quoteURL, SecID(code), fundFlowFields)

	body, err := c.get(ctx, url)
	if err != nil {
		return domain.FundFlow{}, fmt.Errorf("fund flow request for %s: %w", code, err)
	}

	return parseFundFlow(body, code)
}

// get performs a GET with browser-like headers, retrying transient failures.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Debug().Int("attempt", attempt).Str("url", url).Msg("Retrying request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Referer", referer)
		req.Header.Set("Accept", "application/json, text/plain, */*")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}

// parseQuote extracts the single data.diff row for a code. Change percent
// comes back as a percentage and is converted to a fraction.
func parseQuote(body []byte, code string) (domain.Quote, error) {
	diff := gjson.GetBytes(body, "data.diff")
	if !diff.Exists() || !diff.IsArray() {
		return domain.Quote{}, fmt.Errorf("no quote data for %s", code)
	}

	for _, row := range diff.Array() {
		if row.Get("f12").String() != code {
			continue
		}
		return domain.Quote{
			Code:         code,
			Name:         row.Get("f14").String(),
			CurrentPrice: row.Get("f2").Float(),
			ChangePct:    row.Get("f3").Float() / 100,
			Volume:       row.Get("f6").Int(),
			Turnover:     row.Get("f23").Float(),
		}, nil
	}
	return domain.Quote{}, fmt.Errorf("code %s not in quote response", code)
}

// parseKlines parses the comma-joined bar strings under data.klines:
// date,open,close,high,low,volume.
func parseKlines(body []byte, code string) ([]domain.Kline, error) {
	klines := gjson.GetBytes(body, "data.klines")
	if !klines.Exists() || !klines.IsArray() {
		return nil, fmt.Errorf("no kline data for %s", code)
	}

	rows := klines.Array()
	out := make([]domain.Kline, 0, len(rows))
	for _, row := range rows {
		s := strings.TrimSpace(row.String())
		if s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		if len(parts) < 6 {
			continue
		}

		open, _ := strconv.ParseFloat(parts[1], 64)
		closeVal, _ := strconv.ParseFloat(parts[2], 64)
		high, _ := strconv.ParseFloat(parts[3], 64)
		low, _ := strconv.ParseFloat(parts[4], 64)
		volume, _ := strconv.ParseInt(parts[5], 10, 64)

		out = append(out, domain.Kline{
			Date:   parts[0],
			Open:   open,
			Close:  closeVal,
			High:   high,
			Low:    low,
			Volume: volume,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("empty kline series for %s", code)
	}
	return out, nil
}

// parseFundFlow extracts main net inflow (f62) and its 5-day sum (f164),
// scaled from yuan to ten thousand yuan.
func parseFundFlow(body []byte, code string) (domain.FundFlow, error) {
	diff := gjson.GetBytes(body, "data.diff")
	if !diff.Exists() || !diff.IsArray() {
		return domain.FundFlow{}, fmt.Errorf("no fund flow data for %s", code)
	}

	for _, row := range diff.Array() {
		if row.Get("f12").String() != code {
			continue
		}
		return domain.FundFlow{
			Code:           code,
			Name:           row.Get("f14").String(),
			MainNetInflow:  row.Get("f62").Float() / 10000,
			MainNetInflow5: row.Get("f164").Float() / 10000,
		}, nil
	}
	return domain.FundFlow{}, fmt.Errorf("code %s not in fund flow response", code)
}
