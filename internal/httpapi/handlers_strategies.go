package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"gravion/internal/engine"
	"gravion/internal/repository"
	"gravion/strategies"
	"gravion/types"
)

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": s.strategies.List()})
}

type saveStrategyRequest struct {
	Definition json.RawMessage `json:"definition"`
}

// handleSaveStrategy validates, registers and persists a JSON-defined
// strategy.
func (s *Server) handleSaveStrategy(w http.ResponseWriter, r *http.Request) {
	var req saveStrategyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Definition) == 0 {
		writeError(w, http.StatusBadRequest, "definition is required")
		return
	}

	strat, err := strategies.ParseStrategy(req.Definition)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.strategies.Register(strat); err != nil {
		if errors.Is(err, strategies.ErrBuiltinProtected) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.SaveStrategyDef(r.Context(), strat.Name(), req.Definition); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": strat.Name()})
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !s.strategies.Remove(name) {
		writeError(w, http.StatusNotFound, "strategy not found or protected: "+name)
		return
	}
	if err := s.store.DeleteStrategyDef(r.Context(), name); err != nil {
		log.Warn().Err(err).Str("strategy", name).Msg("deleting stored strategy failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": name})
}

func (s *Server) handleListFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"filters": s.filters.List()})
}

// handleSaveFilter registers and persists a user screening filter.
func (s *Server) handleSaveFilter(w http.ResponseWriter, r *http.Request) {
	var f types.Filter
	if err := decodeBody(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if f.Name == "" {
		writeError(w, http.StatusBadRequest, "filter name is required")
		return
	}
	if err := s.filters.Add(f); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.SaveFilterDef(r.Context(), f.Name, raw); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": f.Name})
}

func (s *Server) handleDeleteFilter(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !s.filters.Remove(name) {
		writeError(w, http.StatusNotFound, "filter not found or protected: "+name)
		return
	}
	if err := s.store.DeleteFilterDef(r.Context(), name); err != nil {
		log.Warn().Err(err).Str("filter", name).Msg("deleting stored filter failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": name})
}

type backtestRequest struct {
	StrategyName   string             `json:"strategy_name"`
	StrategyJSON   json.RawMessage    `json:"strategy_json"`
	Params         map[string]float64 `json:"params"`
	InitialCapital float64            `json:"initial_capital"`
}

// resolveStrategy picks the strategy a backtest request names: a registered
// strategy (optionally re-instantiated with params) or an inline JSON
// definition.
func (s *Server) resolveStrategy(req backtestRequest) (strategies.Strategy, error) {
	switch {
	case req.StrategyName != "":
		if len(req.Params) > 0 {
			return s.strategies.New(req.StrategyName, req.Params)
		}
		strat, ok := s.strategies.Get(req.StrategyName)
		if !ok {
			return nil, errors.New("strategy '" + req.StrategyName + "' not found")
		}
		return strat, nil
	case len(req.StrategyJSON) > 0:
		return strategies.ParseStrategy(req.StrategyJSON)
	default:
		return nil, errors.New("provide strategy_name or strategy_json")
	}
}

// handleBacktest runs one strategy over a symbol's cached history.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	var req backtestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	strat, err := s.resolveStrategy(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.store.GetHistory(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNoHistory) {
			writeError(w, http.StatusNotFound, "no historical data for "+symbol+"; load the stock detail first")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	capital := req.InitialCapital
	if capital <= 0 {
		capital = engine.DefaultInitialCapital
	}
	result := engine.Run(strat, bars, capital)
	result.Symbol = symbol

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

type sweepRequest struct {
	StrategyName   string        `json:"strategy_name"`
	Axes           []engine.Axis `json:"axes"`
	InitialCapital float64       `json:"initial_capital"`
	Workers        int           `json:"workers"`
}

// handleSweep backtests every parameter combination of a built-in strategy
// over a symbol's cached history.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	var req sweepRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.StrategyName == "" {
		writeError(w, http.StatusBadRequest, "strategy_name is required")
		return
	}

	bars, err := s.store.GetHistory(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNoHistory) {
			writeError(w, http.StatusNotFound, "no historical data for "+symbol+"; load the stock detail first")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	capital := req.InitialCapital
	if capital <= 0 {
		capital = engine.DefaultInitialCapital
	}
	workers := req.Workers
	if workers <= 0 {
		workers = s.workers
	}

	results, skipped, err := engine.Sweep(r.Context(), s.strategies, req.StrategyName, req.Axes, bars, capital, workers)
	if err != nil {
		if errors.Is(err, strategies.ErrUnknownStrategy) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for i := range results {
		results[i].Result.Symbol = symbol
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"symbol":  symbol,
		"count":   len(results),
		"results": results,
		"skipped": skipped,
	})
}
