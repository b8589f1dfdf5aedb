package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ashare-monitor/internal/domain"
	"github.com/aristath/ashare-monitor/internal/metrics"
	"github.com/aristath/ashare-monitor/internal/modules/journal"
	"github.com/aristath/ashare-monitor/internal/modules/market"
	"github.com/aristath/ashare-monitor/internal/modules/monitor"
	"github.com/aristath/ashare-monitor/internal/modules/signals"
	"github.com/aristath/ashare-monitor/internal/notify"
)

// PollCycleJob is the heart of the monitor: on every tick during a trading
// session it refreshes stock data for the watchlist, pushes prices into the
// open positions, and runs the signal engine over both sides.
type PollCycleJob struct {
	log       zerolog.Logger
	monitor   *monitor.Service
	collector *monitor.Collector
	engine    *signals.Engine
	market    *market.Detector
	journal   *journal.Repository
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	timeout   time.Duration

	mu  sync.Mutex
	now func() time.Time
}

// PollCycleConfig holds configuration for the poll cycle job. Journal,
// Notifier and Metrics are optional.
type PollCycleConfig struct {
	Log       zerolog.Logger
	Monitor   *monitor.Service
	Collector *monitor.Collector
	Engine    *signals.Engine
	Market    *market.Detector
	Journal   *journal.Repository
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Timeout   time.Duration
}

// NewPollCycleJob creates a poll cycle job.
func NewPollCycleJob(cfg PollCycleConfig) *PollCycleJob {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &PollCycleJob{
		log:       cfg.Log.With().Str("job", "poll_cycle").Logger(),
		monitor:   cfg.Monitor,
		collector: cfg.Collector,
		engine:    cfg.Engine,
		market:    cfg.Market,
		journal:   cfg.Journal,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *PollCycleJob) Name() string {
	return "poll_cycle"
}

// Run executes one polling cycle. Outside trading hours it is a no-op; an
// already-running cycle makes the tick a no-op too.
func (j *PollCycleJob) Run() error {
	status := j.market.Status(j.now())
	if j.metrics != nil {
		if status.IsOpen {
			j.metrics.MarketOpen.Set(1)
		} else {
			j.metrics.MarketOpen.Set(0)
		}
	}
	if !status.IsOpen {
		j.log.Debug().Str("state", string(status.State)).Msg("Market closed, skipping cycle")
		return nil
	}

	if !j.mu.TryLock() {
		j.log.Warn().Msg("Previous cycle still running, skipping tick")
		return nil
	}
	defer j.mu.Unlock()

	started := j.now()
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	codes := j.targetCodes()
	if len(codes) == 0 {
		j.log.Debug().Msg("Nothing to monitor")
		return nil
	}

	snapshots := j.collector.SnapshotBatch(ctx, codes)

	// Push fresh prices into the ledger before evaluating exits, so pnl and
	// peak tracking see the same tick the signals are computed from.
	prices := make(map[string]float64, len(snapshots))
	for code, data := range snapshots {
		if j.monitor.HasPosition(code) {
			prices[code] = data.CurrentPrice
		}
	}
	j.monitor.UpdateAllPrices(prices)

	buys, sells := 0, 0
	for code, data := range snapshots {
		if pos, ok := j.monitor.Position(code); ok {
			sells += j.evaluateSell(pos, data)
			continue
		}
		buys += j.evaluateBuy(data)
	}

	if j.metrics != nil {
		j.metrics.PollCycles.Inc()
		j.metrics.SnapshotsTotal.Add(float64(len(snapshots)))
		j.metrics.OpenPositions.Set(float64(j.monitor.PositionCount()))
		j.metrics.WatchlistSize.Set(float64(j.monitor.WatchlistSize()))
		if len(snapshots) < len(codes) {
			j.metrics.PollErrors.Inc()
		}
	}

	j.log.Info().
		Int("codes", len(codes)).
		Int("snapshots", len(snapshots)).
		Int("buy_signals", buys).
		Int("sell_signals", sells).
		Dur("elapsed", time.Since(started)).
		Msg("Poll cycle complete")
	return nil
}

// targetCodes is the watchlist plus any position codes that fell off it.
func (j *PollCycleJob) targetCodes() []string {
	codes := j.monitor.Watchlist()
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		seen[code] = true
	}
	for code := range j.monitor.Positions() {
		if !seen[code] {
			codes = append(codes, code)
		}
	}
	return codes
}

func (j *PollCycleJob) evaluateBuy(data domain.StockData) int {
	signal := j.engine.GenerateBuySignal(data)
	if signal == nil {
		return 0
	}

	if j.journal != nil {
		if err := j.journal.RecordBuy(*signal); err != nil {
			j.log.Error().Err(err).Str("code", signal.Code).Msg("Failed to journal buy signal")
		}
	}
	if j.notifier != nil {
		j.notifier.NotifyBuy(*signal)
	}
	if j.metrics != nil {
		j.metrics.SignalsTotal.WithLabelValues("buy", "buy_entry").Inc()
	}
	return 1
}

func (j *PollCycleJob) evaluateSell(pos domain.Position, data domain.StockData) int {
	generated := j.engine.GenerateSellSignals(pos, data)
	for _, signal := range generated {
		if j.journal != nil {
			if err := j.journal.RecordSell(signal); err != nil {
				j.log.Error().Err(err).Str("code", signal.Code).Msg("Failed to journal sell signal")
			}
		}
		if j.notifier != nil {
			j.notifier.NotifySell(signal)
		}
		if j.metrics != nil {
			j.metrics.SignalsTotal.WithLabelValues("sell", string(signal.Type)).Inc()
		}
	}
	return len(generated)
}
