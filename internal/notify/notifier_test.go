package notify

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/ashare-monitor/internal/domain"
)

type recordingNotifier struct {
	buys  []domain.BuySignal
	sells []domain.SellSignal
}

func (r *recordingNotifier) NotifyBuy(s domain.BuySignal)   { r.buys = append(r.buys, s) }
func (r *recordingNotifier) NotifySell(s domain.SellSignal) { r.sells = append(r.sells, s) }

func TestLogNotifierWritesSignals(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	n.NotifyBuy(domain.BuySignal{Code: "600519", SignalStrength: 100})
	n.NotifySell(domain.SellSignal{Code: "600519", Type: domain.SignalStopLoss})

	out := buf.String()
	assert.Contains(t, out, "BUY signal")
	assert.Contains(t, out, "SELL signal")
	assert.Contains(t, out, "600519")
}

func TestMultiFansOutToEverySink(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{}
	m := Multi{a, b}

	m.NotifyBuy(domain.BuySignal{Code: "600519"})
	m.NotifySell(domain.SellSignal{Code: "000001"})

	for _, r := range []*recordingNotifier{a, b} {
		assert.Len(t, r.buys, 1)
		assert.Len(t, r.sells, 1)
		assert.Equal(t, "600519", r.buys[0].Code)
		assert.Equal(t, "000001", r.sells[0].Code)
	}
}
