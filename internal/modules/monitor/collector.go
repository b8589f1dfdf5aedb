package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ashare-monitor/internal/cache"
	"github.com/aristath/ashare-monitor/internal/domain"
	"github.com/aristath/ashare-monitor/internal/modules/signals"
	"github.com/aristath/ashare-monitor/pkg/formulas"
)

// ErrInsufficientHistory is returned when a code has fewer daily bars than
// the longest moving-average window needs.
var ErrInsufficientHistory = errors.New("insufficient kline history")

// QuoteProvider supplies market data for a single code. Implementations are
// expected to be safe for concurrent use.
type QuoteProvider interface {
	GetQuote(ctx context.Context, code string) (domain.Quote, error)
	GetDailyKlines(ctx context.Context, code string, days int) ([]domain.Kline, error)
	GetFundFlow(ctx context.Context, code string) (domain.FundFlow, error)
}

// CollectorConfig tunes the collector's caches and history depth.
type CollectorConfig struct {
	QuoteTTL      time.Duration
	HistoryTTL    time.Duration
	FundFlowTTL   time.Duration
	HistoryDays   int
	CacheCapacity int
}

// DefaultCollectorConfig returns the production cache windows: quotes 30s,
// kline history 1h, fund flows 5m.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		QuoteTTL:      30 * time.Second,
		HistoryTTL:    time.Hour,
		FundFlowTTL:   5 * time.Minute,
		HistoryDays:   100,
		CacheCapacity: 100,
	}
}

// Collector assembles per-code StockData snapshots: realtime quote plus
// indicators derived from daily kline history, with fund flow attached on a
// best-effort basis. Each upstream concern has its own TTL cache so a
// refresh cycle only re-fetches what actually went stale.
type Collector struct {
	provider  QuoteProvider
	cfg       CollectorConfig
	params    signals.StrategyParams
	quotes    *cache.Cache[domain.Quote]
	history   *cache.Cache[[]domain.Kline]
	fundFlows *cache.Cache[domain.FundFlow]
	log       zerolog.Logger
	now       func() time.Time
}

// NewCollector creates a collector on top of a quote provider.
func NewCollector(provider QuoteProvider, cfg CollectorConfig, params signals.StrategyParams, log zerolog.Logger) *Collector {
	return &Collector{
		provider:  provider,
		cfg:       cfg,
		params:    params,
		quotes:    cache.New[domain.Quote](cfg.CacheCapacity),
		history:   cache.New[[]domain.Kline](cfg.CacheCapacity),
		fundFlows: cache.New[domain.FundFlow](cfg.CacheCapacity),
		log:       log.With().Str("component", "collector").Logger(),
		now:       time.Now,
	}
}

// Snapshot builds a full StockData for one code. Quote and history failures
// fail the snapshot; a fund flow failure degrades to zero values.
func (c *Collector) Snapshot(ctx context.Context, code string) (domain.StockData, error) {
	quote, err := c.quote(ctx, code)
	if err != nil {
		return domain.StockData{}, fmt.Errorf("fetch quote for %s: %w", code, err)
	}

	klines, err := c.klines(ctx, code)
	if err != nil {
		return domain.StockData{}, fmt.Errorf("fetch klines for %s: %w", code, err)
	}
	if len(klines) < c.params.MA60Period {
		c.log.Warn().
			Str("code", code).
			Int("bars", len(klines)).
			Int("needed", c.params.MA60Period).
			Msg("Not enough history for indicators")
		return domain.StockData{}, fmt.Errorf("%w: %s has %d bars", ErrInsufficientHistory, code, len(klines))
	}

	closes := make([]float64, len(klines))
	volumes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
		volumes[i] = float64(k.Volume)
	}

	flow := c.fundFlow(ctx, code)

	p := c.params
	return domain.StockData{
		Code:         code,
		Name:         quote.Name,
		CurrentPrice: quote.CurrentPrice,
		ChangePct:    quote.ChangePct,
		Volume:       quote.Volume,
		Turnover:     quote.Turnover,
		MA5:          formulas.MovingAverage(closes, p.MA5Period),
		MA10:         formulas.MovingAverage(closes, p.MA10Period),
		MA20:         formulas.MovingAverage(closes, p.MA20Period),
		MA60:         formulas.MovingAverage(closes, p.MA60Period),
		RSI:          formulas.RSI(closes, p.RSIPeriod),
		VolumeRatio:  formulas.VolumeRatio(volumes, p.VolumeRatioPeriod),
		MA20Slope:    formulas.MASlopeFromPrices(closes, p.MA20Period, p.MASlopePeriod),
		MainFundFlow: flow.MainNetInflow,
		FundFlow5D:   flow.MainNetInflow5,
		UpdatedAt:    c.now(),
	}, nil
}

// SnapshotBatch builds snapshots for many codes, skipping the ones that
// fail. The returned map holds only the successes.
func (c *Collector) SnapshotBatch(ctx context.Context, codes []string) map[string]domain.StockData {
	results := make(map[string]domain.StockData, len(codes))
	for _, code := range codes {
		if ctx.Err() != nil {
			break
		}
		data, err := c.Snapshot(ctx, code)
		if err != nil {
			c.log.Warn().Err(err).Str("code", code).Msg("Snapshot failed")
			continue
		}
		results[code] = data
	}

	c.log.Info().
		Int("ok", len(results)).
		Int("requested", len(codes)).
		Msg("Snapshot batch complete")
	return results
}

// ClearCaches drops all cached upstream data.
func (c *Collector) ClearCaches() {
	c.quotes.Clear()
	c.history.Clear()
	c.fundFlows.Clear()
}

// CacheStats reports per-cache statistics keyed by cache name.
func (c *Collector) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"quotes":     c.quotes.Stats(),
		"history":    c.history.Stats(),
		"fund_flows": c.fundFlows.Stats(),
	}
}

func (c *Collector) quote(ctx context.Context, code string) (domain.Quote, error) {
	key := "quote_" + code
	if cached, ok := c.quotes.Get(key); ok {
		return cached, nil
	}

	quote, err := c.provider.GetQuote(ctx, code)
	if err != nil {
		return domain.Quote{}, err
	}
	c.quotes.Set(key, quote, c.cfg.QuoteTTL)
	return quote, nil
}

func (c *Collector) klines(ctx context.Context, code string) ([]domain.Kline, error) {
	key := fmt.Sprintf("hist_%s_%d", code, c.cfg.HistoryDays)
	if cached, ok := c.history.Get(key); ok {
		return cached, nil
	}

	klines, err := c.provider.GetDailyKlines(ctx, code, c.cfg.HistoryDays)
	if err != nil {
		return nil, err
	}
	c.history.Set(key, klines, c.cfg.HistoryTTL)
	return klines, nil
}

// fundFlow never fails the snapshot: on error it logs and returns zeros.
func (c *Collector) fundFlow(ctx context.Context, code string) domain.FundFlow {
	key := "flow_" + code
	if cached, ok := c.fundFlows.Get(key); ok {
		return cached
	}

	flow, err := c.provider.GetFundFlow(ctx, code)
	if err != nil {
		c.log.Debug().Err(err).Str("code", code).Msg("Fund flow unavailable")
		return domain.FundFlow{Code: code}
	}
	c.fundFlows.Set(key, flow, c.cfg.FundFlowTTL)
	return flow
}
