package httpapi

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gravion/internal/repository"
	"gravion/internal/screener"
	"gravion/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "gravion",
		"version": s.version,
	})
}

type fetchResponse struct {
	Success      bool     `json:"success"`
	Fetched      int      `json:"fetched"`
	Total        int      `json:"total"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details"`
	FetchTime    string   `json:"fetch_time"`
}

// handleFetch refreshes the cached quote for every universe symbol. Failing
// symbols are reported in the response; the batch never aborts.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fetchTime := time.Now()

	var (
		mu       sync.Mutex
		fetched  int
		failures []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, symbol := range s.universe {
		symbol := symbol
		g.Go(func() error {
			quote, err := s.market.Quote(gctx, symbol)
			if err == nil {
				quote.LastFetched = fetchTime
				err = s.store.UpsertQuote(gctx, quote)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, symbol+": "+err.Error())
				return nil
			}
			fetched++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	details := failures
	if len(details) > 10 {
		details = details[:10]
	}
	if details == nil {
		details = []string{}
	}
	writeJSON(w, http.StatusOK, fetchResponse{
		Success:      true,
		Fetched:      fetched,
		Total:        len(s.universe),
		Errors:       len(failures),
		ErrorDetails: details,
		FetchTime:    fetchTime.Format(time.RFC3339),
	})
}

type screenRequest struct {
	Filters  []string `json:"filters"`
	Operator string   `json:"operator"`
}

type screenRow struct {
	types.StockQuote
	Signal types.Intensity `json:"signal"`
}

// signalFromChange classifies the daily change percent into the five-band
// grid signal.
func signalFromChange(chg float64) types.Intensity {
	switch {
	case chg > 2.0:
		return types.IntensityStrongBuy
	case chg > 0.5:
		return types.IntensityBuy
	case chg > -0.5:
		return types.IntensityNeutral
	case chg > -2.0:
		return types.IntensitySell
	default:
		return types.IntensityStrongSell
	}
}

// handleScreen screens the cached universe. With no filters every cached
// stock is returned; otherwise only stocks whose history passes the combined
// filters. Symbols whose history cannot be evaluated are dropped and counted
// as errors.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req screenRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	filters := make([]types.Filter, 0, len(req.Filters))
	for _, name := range req.Filters {
		f, ok := s.filters.Get(name)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown filter: "+name)
			return
		}
		filters = append(filters, f)
	}
	op := screener.OperatorAnd
	if strings.EqualFold(req.Operator, string(screener.OperatorOr)) {
		op = screener.OperatorOr
	}

	quotes, err := s.store.ListQuotes(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var verdicts map[string]screener.Match
	if len(filters) > 0 {
		symbols := make([]string, len(quotes))
		for i, q := range quotes {
			symbols[i] = q.Symbol
		}
		matches, err := s.screener.Screen(ctx, symbols, filters, op)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		verdicts = make(map[string]screener.Match, len(matches))
		for _, m := range matches {
			verdicts[m.Symbol] = m
		}
	}

	rows := make([]screenRow, 0, len(quotes))
	var failures []string
	for _, q := range quotes {
		if verdicts != nil {
			m := verdicts[q.Symbol]
			if m.Err != nil {
				if !errors.Is(m.Err, repository.ErrNoHistory) {
					failures = append(failures, q.Symbol+": "+m.Err.Error())
				}
				continue
			}
			if !m.Matched {
				continue
			}
		}
		rows = append(rows, screenRow{StockQuote: q, Signal: signalFromChange(q.ChangePercent)})
	}

	if failures == nil {
		failures = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"data":          rows,
		"count":         len(rows),
		"errors":        len(failures),
		"error_details": failures,
		"source":        "Yahoo Finance",
	})
}

func (s *Server) handleDBInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.GetInfo(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"db_size_bytes": info.SizeBytes,
		"stock_count":   info.StockCount,
	})
}

type seriesPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

type ohlcPoint struct {
	Time  string   `json:"time"`
	Open  *float64 `json:"open"`
	High  *float64 `json:"high"`
	Low   *float64 `json:"low"`
	Close *float64 `json:"close"`
}

// handleStockDetail returns six months of OHLC plus 50/100-day moving
// averages for one symbol. History already fetched today is served from the
// database; otherwise it is refreshed from the provider and cached.
func (s *Server) handleStockDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	bars, err := s.detailHistory(ctx, symbol)
	if err != nil {
		writeError(w, http.StatusNotFound, "no data found for "+symbol)
		return
	}

	ohlc := make([]ohlcPoint, 0, len(bars))
	volume := make([]seriesPoint, 0, len(bars))
	var closes []float64
	var dates []string
	for _, b := range bars {
		if !b.HasClose() {
			continue
		}
		ohlc = append(ohlc, ohlcPoint{Time: b.Date, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close})
		volume = append(volume, seriesPoint{Time: b.Date, Value: float64(b.Volume)})
		closes = append(closes, *b.Close)
		dates = append(dates, b.Date)
	}

	name := symbol
	if quote, err := s.store.GetQuote(ctx, symbol); err == nil && quote.Name != "" {
		name = quote.Name
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"symbol":       symbol,
		"company_name": name,
		"ohlc":         ohlc,
		"volume":       volume,
		"ma50":         movingAverage(closes, dates, 50),
		"ma100":        movingAverage(closes, dates, 100),
	})
}

// detailHistory serves cached history when it was fetched today, refreshing
// from the provider otherwise.
func (s *Server) detailHistory(ctx context.Context, symbol string) ([]types.Bar, error) {
	_, lastFetch, ok, err := s.store.HistoryFreshness(ctx, symbol)
	if err == nil && ok && sameDay(lastFetch, time.Now()) {
		if bars, err := s.store.GetHistory(ctx, symbol); err == nil {
			return bars, nil
		}
	}

	bars, err := s.market.DailyHistory(ctx, symbol, "6mo")
	if err != nil {
		return nil, err
	}
	if _, err := s.store.SaveHistory(ctx, symbol, bars); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("caching history failed")
	}
	return bars, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// movingAverage computes a simple moving average over compressed closes,
// rounded to cents for charting.
func movingAverage(closes []float64, dates []string, period int) []seriesPoint {
	points := []seriesPoint{}
	if period <= 0 {
		return points
	}
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			avg := sum / float64(period)
			points = append(points, seriesPoint{Time: dates[i], Value: round2(avg)})
		}
	}
	return points
}

// handleExport streams all cached quotes as a CSV attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.store.ListQuotes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(quotes) == 0 {
		writeError(w, http.StatusNotFound, "no data to export")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=gravion_export.csv`)
	if err := writeQuotesCSV(w, quotes); err != nil {
		log.Error().Err(err).Msg("csv export failed")
	}
}

// writeQuotesCSV writes quotes to any io.Writer as CSV. You can pass
// os.Stdout for debugging, or an http.ResponseWriter.
func writeQuotesCSV(w io.Writer, quotes []types.StockQuote) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"Ticker", "Name", "Price", "Open", "High", "Low",
		"Close", "Volume", "Change %", "Last Fetched",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, q := range quotes {
		record := []string{
			q.Symbol,
			q.Name,
			formatFloat(q.Price),
			formatFloat(q.Open),
			formatFloat(q.High),
			formatFloat(q.Low),
			formatFloat(q.Close),
			strconv.FormatInt(q.Volume, 10),
			formatFloat(q.ChangePercent),
			q.LastFetched.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
