// Package monitor owns the watchlist and the in-memory position ledger.
package monitor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ashare-monitor/internal/domain"
)

// Config bounds the monitor.
type Config struct {
	MaxWatchlistSize int
}

// DefaultConfig returns the standard 20-entry watchlist bound.
func DefaultConfig() Config {
	return Config{MaxWatchlistSize: 20}
}

// Service tracks the watchlist and open positions. At most one position per
// code. A single lock guards both collections; every public method is safe for
// concurrent use. Validation failures are reported as boolean returns, never
// as errors, so callers can report precise per-item outcomes.
type Service struct {
	mu        sync.RWMutex
	cfg       Config
	watchlist []string
	positions map[string]*domain.Position
	log       zerolog.Logger
}

// NewService creates a monitor service.
func NewService(cfg Config, log zerolog.Logger) *Service {
	if cfg.MaxWatchlistSize <= 0 {
		cfg.MaxWatchlistSize = DefaultConfig().MaxWatchlistSize
	}
	return &Service{
		cfg:       cfg,
		positions: make(map[string]*domain.Position),
		log:       log.With().Str("component", "monitor").Logger(),
	}
}

// ValidateCode reports whether code is a well-formed A-share code: exactly
// six digits, first digit 0, 3 or 6.
func ValidateCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	switch code[0] {
	case '0', '3', '6':
		return true
	}
	return false
}

// ==================== Watchlist ====================

// AddToWatchlist appends a code. Fails if the code is malformed, already
// present or the watchlist is at capacity.
func (s *Service) AddToWatchlist(code string) bool {
	if !ValidateCode(code) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addToWatchlistLocked(code)
}

func (s *Service) addToWatchlistLocked(code string) bool {
	for _, c := range s.watchlist {
		if c == code {
			return false
		}
	}
	if len(s.watchlist) >= s.cfg.MaxWatchlistSize {
		return false
	}

	s.watchlist = append(s.watchlist, code)
	s.log.Debug().Str("code", code).Int("size", len(s.watchlist)).Msg("Added to watchlist")
	return true
}

// RemoveFromWatchlist removes a code, reporting whether it was present.
func (s *Service) RemoveFromWatchlist(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.watchlist {
		if c == code {
			s.watchlist = append(s.watchlist[:i], s.watchlist[i+1:]...)
			return true
		}
	}
	return false
}

// InWatchlist reports whether a code is being watched.
func (s *Service) InWatchlist(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.watchlist {
		if c == code {
			return true
		}
	}
	return false
}

// ClearWatchlist removes all watched codes.
func (s *Service) ClearWatchlist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchlist = nil
}

// Watchlist returns a copy of the watched codes.
func (s *Service) Watchlist() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.watchlist))
	copy(out, s.watchlist)
	return out
}

// WatchlistSize returns the number of watched codes.
func (s *Service) WatchlistSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchlist)
}

// ==================== Positions ====================

// OpenPosition creates a position. Fails if the code is malformed, the cost
// price or quantity is not positive, or a position already exists for the
// code. On success the code is also added to the watchlist; a full watchlist
// does not fail the open.
func (s *Service) OpenPosition(code, name string, costPrice float64, quantity int64, buyDate time.Time) bool {
	if !ValidateCode(code) {
		return false
	}
	if costPrice <= 0 || quantity <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.positions[code]; exists {
		return false
	}

	if buyDate.IsZero() {
		buyDate = time.Now()
	}
	pos := domain.NewPosition(code, name, costPrice, quantity, buyDate)
	s.positions[code] = &pos

	s.addToWatchlistLocked(code)

	s.log.Info().
		Str("code", code).
		Float64("cost_price", costPrice).
		Int64("quantity", quantity).
		Msg("Position opened")
	return true
}

// UpdatePosition updates only the supplied fields. A nil pointer leaves the
// field untouched; a supplied non-positive cost price or quantity fails the
// whole call without applying anything.
func (s *Service) UpdatePosition(code string, costPrice *float64, quantity *int64, name *string) bool {
	if costPrice != nil && *costPrice <= 0 {
		return false
	}
	if quantity != nil && *quantity <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, exists := s.positions[code]
	if !exists {
		return false
	}

	if costPrice != nil {
		pos.CostPrice = *costPrice
	}
	if quantity != nil {
		pos.Quantity = *quantity
	}
	if name != nil {
		pos.Name = *name
	}
	return true
}

// ClosePosition removes a position, reporting whether it existed.
func (s *Service) ClosePosition(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.positions[code]; !exists {
		return false
	}
	delete(s.positions, code)
	s.log.Info().Str("code", code).Msg("Position closed")
	return true
}

// Position returns a copy of the position for code.
func (s *Service) Position(code string) (domain.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, exists := s.positions[code]
	if !exists {
		return domain.Position{}, false
	}
	return *pos, true
}

// HasPosition reports whether a position exists for code.
func (s *Service) HasPosition(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.positions[code]
	return exists
}

// Positions returns copies of all open positions, keyed by code.
func (s *Service) Positions() map[string]domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Position, len(s.positions))
	for code, pos := range s.positions {
		out[code] = *pos
	}
	return out
}

// PositionCount returns the number of open positions.
func (s *Service) PositionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

// ClearPositions removes all positions.
func (s *Service) ClearPositions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = make(map[string]*domain.Position)
}

// ==================== Price tracking ====================

// UpdateCurrentPrice sets the current price and raises the peak price in the
// same step, so the two fields never observe an inconsistent intermediate
// state. Fails for an unknown code or a non-positive price.
func (s *Service) UpdateCurrentPrice(code string, price float64) bool {
	if price <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, exists := s.positions[code]
	if !exists {
		return false
	}

	pos.SetCurrentPrice(price)
	return true
}

// UpdateAllPrices applies UpdateCurrentPrice per entry and collects the
// individual outcomes. The batch is not atomic as a whole: a failure for one
// code does not roll back or block the others.
func (s *Service) UpdateAllPrices(prices map[string]float64) map[string]bool {
	results := make(map[string]bool, len(prices))
	for code, price := range prices {
		results[code] = s.UpdateCurrentPrice(code, price)
	}
	return results
}

// PeakPrice returns the tracked peak price for code.
func (s *Service) PeakPrice(code string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, exists := s.positions[code]
	if !exists {
		return 0, false
	}
	return pos.PeakPrice, true
}

// ResetPeak sets the peak price back to the current price. Used after a
// manual re-entry.
func (s *Service) ResetPeak(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, exists := s.positions[code]
	if !exists {
		return false
	}
	pos.PeakPrice = pos.CurrentPrice
	return true
}

// ==================== Aggregates ====================

// TotalMarketValue sums the market value of all positions.
func (s *Service) TotalMarketValue() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0.0
	for _, pos := range s.positions {
		total += pos.MarketValue()
	}
	return total
}

// TotalCostValue sums the cost value of all positions.
func (s *Service) TotalCostValue() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0.0
	for _, pos := range s.positions {
		total += pos.CostValue()
	}
	return total
}

// TotalPnL sums the unrealized profit and loss of all positions.
func (s *Service) TotalPnL() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0.0
	for _, pos := range s.positions {
		total += pos.PnL()
	}
	return total
}

// TotalPnLPct is total pnl over total cost, or 0 when nothing is invested.
func (s *Service) TotalPnLPct() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cost := 0.0
	pnl := 0.0
	for _, pos := range s.positions {
		cost += pos.CostValue()
		pnl += pos.PnL()
	}
	if cost <= 0 {
		return 0.0
	}
	return pnl / cost
}

// Summary returns the combined aggregate view of the ledger.
func (s *Service) Summary() domain.PositionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.PositionSummary{PositionCount: len(s.positions)}
	for _, pos := range s.positions {
		summary.TotalMarketValue += pos.MarketValue()
		summary.TotalCostValue += pos.CostValue()
		summary.TotalPnL += pos.PnL()
	}
	if summary.TotalCostValue > 0 {
		summary.TotalPnLPct = summary.TotalPnL / summary.TotalCostValue
	}
	return summary
}
