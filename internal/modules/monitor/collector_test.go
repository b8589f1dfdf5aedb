package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ashare-monitor/internal/domain"
	"github.com/aristath/ashare-monitor/internal/modules/signals"
)

type fakeProvider struct {
	quote      domain.Quote
	quoteErr   error
	klines     []domain.Kline
	klinesErr  error
	flow       domain.FundFlow
	flowErr    error
	quoteCalls int
	klineCalls int
	flowCalls  int
}

func (f *fakeProvider) GetQuote(_ context.Context, _ string) (domain.Quote, error) {
	f.quoteCalls++
	return f.quote, f.quoteErr
}

func (f *fakeProvider) GetDailyKlines(_ context.Context, _ string, _ int) ([]domain.Kline, error) {
	f.klineCalls++
	return f.klines, f.klinesErr
}

func (f *fakeProvider) GetFundFlow(_ context.Context, _ string) (domain.FundFlow, error) {
	f.flowCalls++
	return f.flow, f.flowErr
}

// flatKlines returns n bars closing at the given price with steady volume.
func flatKlines(n int, close float64) []domain.Kline {
	bars := make([]domain.Kline, n)
	for i := range bars {
		bars[i] = domain.Kline{
			Date:   fmt.Sprintf("2026-01-%02d", i%28+1),
			Close:  close,
			Volume: 1_000_000,
		}
	}
	return bars
}

func newTestCollector(p QuoteProvider) *Collector {
	return NewCollector(p, DefaultCollectorConfig(), signals.DefaultStrategyParams(), zerolog.Nop())
}

func TestSnapshotAssemblesStockData(t *testing.T) {
	provider := &fakeProvider{
		quote: domain.Quote{
			Code:         "600519",
			Name:         "Kweichow Moutai",
			CurrentPrice: 10.5,
			ChangePct:    0.012,
			Volume:       123456,
			Turnover:     9.9e7,
		},
		klines: flatKlines(80, 10.0),
		flow:   domain.FundFlow{Code: "600519", MainNetInflow: 1500.0, MainNetInflow5: 4200.0},
	}
	c := newTestCollector(provider)

	data, err := c.Snapshot(context.Background(), "600519")

	require.NoError(t, err)
	assert.Equal(t, "600519", data.Code)
	assert.Equal(t, "Kweichow Moutai", data.Name)
	assert.Equal(t, 10.5, data.CurrentPrice)
	assert.Equal(t, int64(123456), data.Volume)

	// Flat series: every MA equals the close, volume ratio is neutral.
	assert.InDelta(t, 10.0, data.MA5, 1e-9)
	assert.InDelta(t, 10.0, data.MA20, 1e-9)
	assert.InDelta(t, 10.0, data.MA60, 1e-9)
	assert.InDelta(t, 1.0, data.VolumeRatio, 1e-9)
	assert.InDelta(t, 0.0, data.MA20Slope, 1e-9)
	assert.Equal(t, 50.0, data.RSI, "flat series has no gains or losses")

	assert.Equal(t, 1500.0, data.MainFundFlow)
	assert.Equal(t, 4200.0, data.FundFlow5D)
	assert.False(t, data.UpdatedAt.IsZero())
}

func TestSnapshotQuoteFailure(t *testing.T) {
	provider := &fakeProvider{quoteErr: errors.New("upstream down")}
	c := newTestCollector(provider)

	_, err := c.Snapshot(context.Background(), "600519")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "600519")
	assert.Equal(t, 0, provider.klineCalls, "no kline fetch after quote failure")
}

func TestSnapshotInsufficientHistory(t *testing.T) {
	provider := &fakeProvider{
		quote:  domain.Quote{Code: "600519", CurrentPrice: 10},
		klines: flatKlines(59, 10.0), // one bar short of MA60
	}
	c := newTestCollector(provider)

	_, err := c.Snapshot(context.Background(), "600519")

	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestSnapshotFundFlowFailureIsNotFatal(t *testing.T) {
	provider := &fakeProvider{
		quote:   domain.Quote{Code: "600519", CurrentPrice: 10},
		klines:  flatKlines(80, 10.0),
		flowErr: errors.New("endpoint flaky"),
	}
	c := newTestCollector(provider)

	data, err := c.Snapshot(context.Background(), "600519")

	require.NoError(t, err)
	assert.Equal(t, 0.0, data.MainFundFlow)
	assert.Equal(t, 0.0, data.FundFlow5D)
}

func TestSnapshotUsesCaches(t *testing.T) {
	provider := &fakeProvider{
		quote:  domain.Quote{Code: "600519", CurrentPrice: 10},
		klines: flatKlines(80, 10.0),
	}
	c := newTestCollector(provider)

	_, err := c.Snapshot(context.Background(), "600519")
	require.NoError(t, err)
	_, err = c.Snapshot(context.Background(), "600519")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.quoteCalls, "second snapshot served from cache")
	assert.Equal(t, 1, provider.klineCalls)
	assert.Equal(t, 1, provider.flowCalls)

	stats := c.CacheStats()
	assert.Equal(t, int64(1), stats["quotes"].Hits)
	assert.Equal(t, int64(1), stats["history"].Hits)
}

func TestClearCachesForcesRefetch(t *testing.T) {
	provider := &fakeProvider{
		quote:  domain.Quote{Code: "600519", CurrentPrice: 10},
		klines: flatKlines(80, 10.0),
	}
	c := newTestCollector(provider)

	_, err := c.Snapshot(context.Background(), "600519")
	require.NoError(t, err)
	c.ClearCaches()
	_, err = c.Snapshot(context.Background(), "600519")
	require.NoError(t, err)

	assert.Equal(t, 2, provider.quoteCalls)
	assert.Equal(t, 2, provider.klineCalls)
}

func TestSnapshotBatchSkipsFailures(t *testing.T) {
	good := &fakeProvider{
		quote:  domain.Quote{Code: "600519", CurrentPrice: 10},
		klines: flatKlines(80, 10.0),
	}
	c := newTestCollector(good)

	results := c.SnapshotBatch(context.Background(), []string{"600519"})
	assert.Len(t, results, 1)

	bad := newTestCollector(&fakeProvider{quoteErr: errors.New("down")})
	results = bad.SnapshotBatch(context.Background(), []string{"600519", "000001"})
	assert.Empty(t, results)
}

func TestSnapshotBatchStopsOnCancelledContext(t *testing.T) {
	provider := &fakeProvider{
		quote:  domain.Quote{Code: "600519", CurrentPrice: 10},
		klines: flatKlines(80, 10.0),
	}
	c := newTestCollector(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := c.SnapshotBatch(ctx, []string{"600519", "000001"})
	assert.Empty(t, results)
	assert.Equal(t, 0, provider.quoteCalls)
}
