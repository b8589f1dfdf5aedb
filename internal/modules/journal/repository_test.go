package journal

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ashare-monitor/internal/database"
	"github.com/aristath/ashare-monitor/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestRecordAndReadBack(t *testing.T) {
	repo := newTestRepo(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.RecordBuy(domain.BuySignal{
		Code:           "600519",
		Name:           "Kweichow Moutai",
		SignalStrength: 100,
		EntryPrice:     10.2,
		GeneratedAt:    at,
	}))
	require.NoError(t, repo.RecordSell(domain.SellSignal{
		Code:         "000001",
		Name:         "Ping An Bank",
		CurrentPrice: 9.5,
		PnLPct:       -0.05,
		Type:         domain.SignalStopLoss,
		Urgency:      domain.UrgencyHigh,
		Reason:       "stop loss line breached (-4.6%)",
		Action:       domain.ActionImmediateSell,
		GeneratedAt:  at.Add(time.Minute),
	}))

	entries, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	sell := entries[0]
	assert.Equal(t, "000001", sell.Code)
	assert.Equal(t, SideSell, sell.Side)
	assert.Equal(t, "stop_loss", sell.SignalType)
	assert.Equal(t, "high", sell.Urgency)
	assert.Equal(t, "immediate_sell", sell.Action)
	assert.InDelta(t, -0.05, sell.PnLPct, 1e-9)

	buy := entries[1]
	assert.Equal(t, "600519", buy.Code)
	assert.Equal(t, SideBuy, buy.Side)
	assert.Equal(t, 100, buy.Strength)
	assert.Equal(t, 10.2, buy.Price)
}

func TestRecentLimit(t *testing.T) {
	repo := newTestRepo(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.RecordBuy(domain.BuySignal{
			Code:           "600519",
			Name:           "m",
			SignalStrength: 83,
			EntryPrice:     10,
			GeneratedAt:    at.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.Recent(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRecentForCode(t *testing.T) {
	repo := newTestRepo(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.RecordBuy(domain.BuySignal{Code: "600519", Name: "a", SignalStrength: 100, EntryPrice: 10, GeneratedAt: at}))
	require.NoError(t, repo.RecordBuy(domain.BuySignal{Code: "000001", Name: "b", SignalStrength: 83, EntryPrice: 20, GeneratedAt: at}))

	entries, err := repo.RecentForCode("600519", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "600519", entries[0].Code)
}

func TestRecentEmpty(t *testing.T) {
	repo := newTestRepo(t)

	entries, err := repo.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
