package eastmoney

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecID(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"600519", "0.600519"}, // Shanghai
		{"601318", "0.601318"},
		{"000001", "1.000001"}, // Shenzhen main board
		{"300750", "1.300750"}, // ChiNext
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, SecID(tt.code))
		})
	}
}

func newTestClient(quoteURL, klineURL string) *Client {
	c := NewClient(zerolog.Nop())
	if quoteURL != "" {
		c.quoteURL = quoteURL
	}
	if klineURL != "" {
		c.klineURL = klineURL
	}
	return c
}

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0.600519", r.URL.Query().Get("secids"))
		w.Write([]byte(`{"data":{"diff":[
			{"f2":1500.5,"f3":1.23,"f6":123456,"f12":"600519","f14":"贵州茅台","f23":1.85e9}
		]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	quote, err := c.GetQuote(context.Background(), "600519")

	require.NoError(t, err)
	assert.Equal(t, "600519", quote.Code)
	assert.Equal(t, "贵州茅台", quote.Name)
	assert.Equal(t, 1500.5, quote.CurrentPrice)
	assert.InDelta(t, 0.0123, quote.ChangePct, 1e-9, "percent converted to fraction")
	assert.Equal(t, int64(123456), quote.Volume)
	assert.Equal(t, 1.85e9, quote.Turnover)
}

func TestGetQuoteCodeMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"diff":[{"f12":"000001","f2":10}]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.GetQuote(context.Background(), "600519")
	assert.Error(t, err)
}

func TestGetQuoteEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.GetQuote(context.Background(), "600519")
	assert.Error(t, err)
}

func TestGetDailyKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.000001", r.URL.Query().Get("secid"))
		assert.Equal(t, "101", r.URL.Query().Get("klt"))
		w.Write([]byte(`{"data":{"klines":[
			"2026-02-27,10.00,10.20,10.30,9.95,123456",
			"2026-03-02,10.20,10.50,10.60,10.10,234567"
		]}}`))
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	klines, err := c.GetDailyKlines(context.Background(), "000001", 100)

	require.NoError(t, err)
	require.Len(t, klines, 2)
	assert.Equal(t, "2026-02-27", klines[0].Date)
	assert.Equal(t, 10.0, klines[0].Open)
	assert.Equal(t, 10.2, klines[0].Close)
	assert.Equal(t, 10.3, klines[0].High)
	assert.Equal(t, 9.95, klines[0].Low)
	assert.Equal(t, int64(123456), klines[0].Volume)
	assert.Equal(t, 10.5, klines[1].Close)
}

func TestGetDailyKlinesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"klines":[]}}`))
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	_, err := c.GetDailyKlines(context.Background(), "000001", 100)
	assert.Error(t, err)
}

func TestGetDailyKlinesInvalidCount(t *testing.T) {
	c := NewClient(zerolog.Nop())
	_, err := c.GetDailyKlines(context.Background(), "000001", 0)
	assert.Error(t, err)
}

func TestGetFundFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"diff":[
			{"f12":"600519","f14":"贵州茅台","f62":15000000,"f164":42000000}
		]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	flow, err := c.GetFundFlow(context.Background(), "600519")

	require.NoError(t, err)
	assert.Equal(t, "600519", flow.Code)
	assert.InDelta(t, 1500.0, flow.MainNetInflow, 1e-9, "scaled to ten thousand yuan")
	assert.InDelta(t, 4200.0, flow.MainNetInflow5, 1e-9)
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":{"diff":[{"f2":10.0,"f3":0,"f6":1,"f12":"600519","f14":"m","f23":1}]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	quote, err := c.GetQuote(context.Background(), "600519")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 10.0, quote.CurrentPrice)
}

func TestRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.GetQuote(context.Background(), "600519")
	assert.Error(t, err)
}
