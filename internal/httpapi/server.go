// Package httpapi exposes the screening and backtesting engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"gravion/internal/repository"
	"gravion/internal/screener"
	"gravion/strategies"
	"gravion/types"
)

// Store is the persistence surface the API depends on.
type Store interface {
	UpsertQuote(ctx context.Context, q types.StockQuote) error
	GetQuote(ctx context.Context, symbol string) (types.StockQuote, error)
	ListQuotes(ctx context.Context) ([]types.StockQuote, error)
	SaveHistory(ctx context.Context, symbol string, bars []types.Bar) (int, error)
	GetHistory(ctx context.Context, symbol string) ([]types.Bar, error)
	HistoryFreshness(ctx context.Context, symbol string) (string, time.Time, bool, error)
	GetInfo(ctx context.Context) (repository.Info, error)
	SaveStrategyDef(ctx context.Context, name string, def json.RawMessage) error
	DeleteStrategyDef(ctx context.Context, name string) error
	LoadStrategyDefs(ctx context.Context) (map[string]json.RawMessage, error)
	SaveFilterDef(ctx context.Context, name string, def json.RawMessage) error
	DeleteFilterDef(ctx context.Context, name string) error
	LoadFilterDefs(ctx context.Context) (map[string]json.RawMessage, error)
}

// MarketData fetches quotes and daily history from the upstream provider.
type MarketData interface {
	DailyHistory(ctx context.Context, symbol, rangeExpr string) ([]types.Bar, error)
	Quote(ctx context.Context, symbol string) (types.StockQuote, error)
}

// Server wires handlers, registries and middleware into an http.Handler.
type Server struct {
	store      Store
	market     MarketData
	screener   *screener.Screener
	strategies *strategies.Registry
	filters    *screener.Registry
	universe   []string
	workers    int
	version    string
}

func NewServer(store Store, market MarketData, reg *strategies.Registry, filters *screener.Registry, universe []string, workers int, version string) *Server {
	if workers <= 0 {
		workers = 8
	}
	return &Server{
		store:      store,
		market:     market,
		screener:   screener.NewScreener(store, workers),
		strategies: reg,
		filters:    filters,
		universe:   universe,
		workers:    workers,
		version:    version,
	}
}

// LoadDefinitions restores persisted strategy and filter definitions into
// the registries. Invalid rows are logged and skipped.
func (s *Server) LoadDefinitions(ctx context.Context) error {
	defs, err := s.store.LoadStrategyDefs(ctx)
	if err != nil {
		return err
	}
	for name, raw := range defs {
		strat, err := strategies.ParseStrategy(raw)
		if err != nil {
			log.Warn().Err(err).Str("strategy", name).Msg("skipping invalid stored strategy")
			continue
		}
		if err := s.strategies.Register(strat); err != nil {
			log.Warn().Err(err).Str("strategy", name).Msg("skipping stored strategy")
		}
	}

	fdefs, err := s.store.LoadFilterDefs(ctx)
	if err != nil {
		return err
	}
	for name, raw := range fdefs {
		var f types.Filter
		if err := json.Unmarshal(raw, &f); err != nil {
			log.Warn().Err(err).Str("filter", name).Msg("skipping invalid stored filter")
			continue
		}
		if err := s.filters.Add(f); err != nil {
			log.Warn().Err(err).Str("filter", name).Msg("skipping stored filter")
		}
	}
	return nil
}

// Handler builds the full router with CORS and middleware applied.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	r := s.Router()

	origins := gorillaHandlers.AllowedOrigins(allowedOrigins)
	methods := gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	headers := gorillaHandlers.AllowedHeaders([]string{"Accept", "Authorization", "Content-Type", RequestIDHeader})

	return gorillaHandlers.CORS(origins, methods, headers)(r)
}

// Router registers all API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, AccessLog, Recover)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/fetch", s.handleFetch).Methods("POST")
	api.HandleFunc("/screen", s.handleScreen).Methods("POST")
	api.HandleFunc("/db-info", s.handleDBInfo).Methods("GET")
	api.HandleFunc("/stock/{symbol}/detail", s.handleStockDetail).Methods("GET")
	api.HandleFunc("/export", s.handleExport).Methods("GET")

	api.HandleFunc("/strategies", s.handleListStrategies).Methods("GET")
	api.HandleFunc("/strategies/save", s.handleSaveStrategy).Methods("POST")
	api.HandleFunc("/strategies/{name}", s.handleDeleteStrategy).Methods("DELETE")

	api.HandleFunc("/filters", s.handleListFilters).Methods("GET")
	api.HandleFunc("/filters/save", s.handleSaveFilter).Methods("POST")
	api.HandleFunc("/filters/{name}", s.handleDeleteFilter).Methods("DELETE")

	api.HandleFunc("/backtest/{symbol}", s.handleBacktest).Methods("POST")
	api.HandleFunc("/sweep/{symbol}", s.handleSweep).Methods("POST")

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
