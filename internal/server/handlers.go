package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/ashare-monitor/internal/domain"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "ashare-monitor",
	})
}

// handleMarketStatus reports the current trading session state.
func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.market.Status(time.Now()))
}

// ==================== Watchlist ====================

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	codes := s.monitor.Watchlist()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"codes": codes,
		"size":  len(codes),
	})
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.monitor.AddToWatchlist(req.Code) {
		s.writeError(w, http.StatusUnprocessableEntity, "code rejected: invalid, duplicate, or watchlist full")
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"code": req.Code})
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.monitor.RemoveFromWatchlist(code) {
		s.writeError(w, http.StatusNotFound, "code not in watchlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWatchlistClear(w http.ResponseWriter, r *http.Request) {
	s.monitor.ClearWatchlist()
	w.WriteHeader(http.StatusNoContent)
}

// ==================== Positions ====================

// positionView is a Position plus its derived figures.
type positionView struct {
	domain.Position
	MarketValue      float64 `json:"market_value"`
	CostValue        float64 `json:"cost_value"`
	PnL              float64 `json:"pnl"`
	PnLPct           float64 `json:"pnl_pct"`
	PeakPnLPct       float64 `json:"peak_pnl_pct"`
	DrawdownFromPeak float64 `json:"drawdown_from_peak"`
	HoldingDays      int     `json:"holding_days"`
}

func newPositionView(pos domain.Position) positionView {
	return positionView{
		Position:         pos,
		MarketValue:      pos.MarketValue(),
		CostValue:        pos.CostValue(),
		PnL:              pos.PnL(),
		PnLPct:           pos.PnLPct(),
		PeakPnLPct:       pos.PeakPnLPct(),
		DrawdownFromPeak: pos.DrawdownFromPeak(),
		HoldingDays:      pos.HoldingDays(),
	}
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions := s.monitor.Positions()
	views := make(map[string]positionView, len(positions))
	for code, pos := range positions {
		views[code] = newPositionView(pos)
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handlePositionOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code      string  `json:"code"`
		Name      string  `json:"name"`
		CostPrice float64 `json:"cost_price"`
		Quantity  int64   `json:"quantity"`
		BuyDate   string  `json:"buy_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	buyDate := time.Now()
	if req.BuyDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.BuyDate, time.Local)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "buy_date must be YYYY-MM-DD")
			return
		}
		buyDate = parsed
	}

	if !s.monitor.OpenPosition(req.Code, req.Name, req.CostPrice, req.Quantity, buyDate) {
		s.writeError(w, http.StatusUnprocessableEntity, "position rejected: invalid code, non-positive price/quantity, or already open")
		return
	}

	pos, _ := s.monitor.Position(req.Code)
	s.writeJSON(w, http.StatusCreated, newPositionView(pos))
}

func (s *Server) handlePositionGet(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	pos, ok := s.monitor.Position(code)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no position for code")
		return
	}
	s.writeJSON(w, http.StatusOK, newPositionView(pos))
}

func (s *Server) handlePositionUpdate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req struct {
		CostPrice *float64 `json:"cost_price"`
		Quantity  *int64   `json:"quantity"`
		Name      *string  `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.monitor.UpdatePosition(code, req.CostPrice, req.Quantity, req.Name) {
		s.writeError(w, http.StatusUnprocessableEntity, "update rejected")
		return
	}

	pos, _ := s.monitor.Position(code)
	s.writeJSON(w, http.StatusOK, newPositionView(pos))
}

func (s *Server) handlePositionClose(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.monitor.ClosePosition(code) {
		s.writeError(w, http.StatusNotFound, "no position for code")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePositionPrice(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.monitor.UpdateCurrentPrice(code, req.Price) {
		s.writeError(w, http.StatusUnprocessableEntity, "price update rejected")
		return
	}

	pos, _ := s.monitor.Position(code)
	s.writeJSON(w, http.StatusOK, newPositionView(pos))
}

func (s *Server) handleBatchPriceUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prices map[string]float64 `json:"prices"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": s.monitor.UpdateAllPrices(req.Prices),
	})
}

func (s *Server) handleResetPeak(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.monitor.ResetPeak(code) {
		s.writeError(w, http.StatusNotFound, "no position for code")
		return
	}

	pos, _ := s.monitor.Position(code)
	s.writeJSON(w, http.StatusOK, newPositionView(pos))
}

func (s *Server) handlePositionSummary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.monitor.Summary())
}

// ==================== Signals ====================

func (s *Server) handleRecentSignals(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var err error
	var entries interface{}
	if code := r.URL.Query().Get("code"); code != "" {
		entries, err = s.journal.RecentForCode(code, limit)
	} else {
		entries, err = s.journal.Recent(limit)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read signal journal")
		s.writeError(w, http.StatusInternalServerError, "failed to read signal journal")
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleEvaluate runs the signal engine for one code on demand: sell rules
// when a position is open, buy rules otherwise.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	data, err := s.collector.Snapshot(r.Context(), code)
	if err != nil {
		s.log.Warn().Err(err).Str("code", code).Msg("Evaluate snapshot failed")
		s.writeError(w, http.StatusBadGateway, "failed to fetch stock data")
		return
	}

	if pos, ok := s.monitor.Position(code); ok {
		// Push the fresh price into the ledger so a new high raises the
		// stored peak, then evaluate against the updated position.
		if s.monitor.UpdateCurrentPrice(code, data.CurrentPrice) {
			pos, _ = s.monitor.Position(code)
		}
		sellSignals := s.engine.GenerateSellSignals(pos, data)

		response := map[string]interface{}{
			"side":         "sell",
			"stock_data":   data,
			"position":     newPositionView(pos),
			"sell_signals": sellSignals,
		}
		if len(sellSignals) > 0 {
			response["recommendation"] = s.engine.SellRecommendationFor(sellSignals[0])
		}
		s.writeJSON(w, http.StatusOK, response)
		return
	}

	buySignal := s.engine.GenerateBuySignal(data)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"side":       "buy",
		"stock_data": data,
		"conditions": s.engine.CheckBuyConditions(data),
		"buy_signal": buySignal,
	})
}

// ==================== Cache ====================

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.collector.CacheStats())
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
