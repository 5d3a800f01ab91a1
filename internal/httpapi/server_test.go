package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gravion/internal/repository"
	"gravion/internal/screener"
	"gravion/strategies"
	"gravion/types"
)

type mockStore struct {
	quotes     map[string]types.StockQuote
	histories  map[string][]types.Bar
	historyErr map[string]error
	strategy   map[string]json.RawMessage
	filter     map[string]json.RawMessage
	info       repository.Info
	failWith   error
}

func newMockStore() *mockStore {
	return &mockStore{
		quotes:    make(map[string]types.StockQuote),
		histories: make(map[string][]types.Bar),
		strategy:  make(map[string]json.RawMessage),
		filter:    make(map[string]json.RawMessage),
	}
}

func (m *mockStore) UpsertQuote(_ context.Context, q types.StockQuote) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.quotes[q.Symbol] = q
	return nil
}

func (m *mockStore) GetQuote(_ context.Context, symbol string) (types.StockQuote, error) {
	q, ok := m.quotes[symbol]
	if !ok {
		return types.StockQuote{}, repository.ErrStockNotFound
	}
	return q, nil
}

func (m *mockStore) ListQuotes(_ context.Context) ([]types.StockQuote, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]types.StockQuote, 0, len(m.quotes))
	for _, q := range m.quotes {
		out = append(out, q)
	}
	return out, nil
}

func (m *mockStore) SaveHistory(_ context.Context, symbol string, bars []types.Bar) (int, error) {
	m.histories[symbol] = bars
	return len(bars), nil
}

func (m *mockStore) GetHistory(_ context.Context, symbol string) ([]types.Bar, error) {
	if err := m.historyErr[symbol]; err != nil {
		return nil, err
	}
	bars, ok := m.histories[symbol]
	if !ok || len(bars) == 0 {
		return nil, repository.ErrNoHistory
	}
	return bars, nil
}

func (m *mockStore) HistoryFreshness(_ context.Context, symbol string) (string, time.Time, bool, error) {
	bars, ok := m.histories[symbol]
	if !ok || len(bars) == 0 {
		return "", time.Time{}, false, nil
	}
	return bars[len(bars)-1].Date, time.Now(), true, nil
}

func (m *mockStore) GetInfo(_ context.Context) (repository.Info, error) {
	return m.info, nil
}

func (m *mockStore) SaveStrategyDef(_ context.Context, name string, def json.RawMessage) error {
	m.strategy[name] = def
	return nil
}

func (m *mockStore) DeleteStrategyDef(_ context.Context, name string) error {
	delete(m.strategy, name)
	return nil
}

func (m *mockStore) LoadStrategyDefs(_ context.Context) (map[string]json.RawMessage, error) {
	return m.strategy, nil
}

func (m *mockStore) SaveFilterDef(_ context.Context, name string, def json.RawMessage) error {
	m.filter[name] = def
	return nil
}

func (m *mockStore) DeleteFilterDef(_ context.Context, name string) error {
	delete(m.filter, name)
	return nil
}

func (m *mockStore) LoadFilterDefs(_ context.Context) (map[string]json.RawMessage, error) {
	return m.filter, nil
}

type mockMarket struct {
	bars   map[string][]types.Bar
	quotes map[string]types.StockQuote
}

func (m mockMarket) DailyHistory(_ context.Context, symbol, _ string) ([]types.Bar, error) {
	bars, ok := m.bars[symbol]
	if !ok {
		return nil, errors.New("no chart data returned")
	}
	return bars, nil
}

func (m mockMarket) Quote(_ context.Context, symbol string) (types.StockQuote, error) {
	q, ok := m.quotes[symbol]
	if !ok {
		return types.StockQuote{}, errors.New("no chart data returned")
	}
	return q, nil
}

func testHistory(closes ...float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		v := c
		bars[i] = types.Bar{Date: fmt.Sprintf("2024-01-%02d", i+1), Close: &v, Volume: 1000}
	}
	return bars
}

func newTestServer(store Store, market MarketData, universe []string) *Server {
	return NewServer(store, market, strategies.NewRegistry(), screener.NewRegistry(), universe, 2, "test")
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(newMockStore(), mockMarket{}, nil)
	rec := doRequest(t, s, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "gravion", body["service"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestFetch_ReportsPerSymbolErrors(t *testing.T) {
	store := newMockStore()
	market := mockMarket{quotes: map[string]types.StockQuote{
		"AAPL": {Symbol: "AAPL", Price: 150},
	}}
	s := newTestServer(store, market, []string{"AAPL", "BROKEN"})

	rec := doRequest(t, s, http.MethodPost, "/api/fetch", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body fetchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Fetched)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 1, body.Errors)
	require.Len(t, body.ErrorDetails, 1)
	assert.Contains(t, body.ErrorDetails[0], "BROKEN")
	assert.Contains(t, store.quotes, "AAPL")
}

func TestScreen(t *testing.T) {
	store := newMockStore()
	store.quotes["UP"] = types.StockQuote{Symbol: "UP", ChangePercent: 3}
	store.quotes["DOWN"] = types.StockQuote{Symbol: "DOWN", ChangePercent: -3}
	store.histories["UP"] = testHistory(100, 105)
	store.histories["DOWN"] = testHistory(105, 100)
	s := newTestServer(store, mockMarket{}, nil)

	t.Run("no filters returns everything with a signal", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/screen", map[string]any{})
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Success bool        `json:"success"`
			Count   int         `json:"count"`
			Data    []screenRow `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, 2, body.Count)
		for _, row := range body.Data {
			if row.Symbol == "UP" {
				assert.Equal(t, types.IntensityStrongBuy, row.Signal)
			}
			if row.Symbol == "DOWN" {
				assert.Equal(t, types.IntensityStrongSell, row.Signal)
			}
		}
	})

	t.Run("unknown filter rejected", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/screen", map[string]any{"filters": []string{"Nope"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("user filter narrows the result", func(t *testing.T) {
		require.NoError(t, s.filters.Add(types.Filter{
			Name: "Rising",
			Conditions: []types.Condition{
				{Indicator: "change_pct", Comparator: ">", Value: types.NumberValue(0)},
			},
		}))
		rec := doRequest(t, s, http.MethodPost, "/api/screen", map[string]any{"filters": []string{"Rising"}})
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Count int         `json:"count"`
			Data  []screenRow `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "UP", body.Data[0].Symbol)
	})

	t.Run("history failures are dropped or reported", func(t *testing.T) {
		// NOHIST has no cached history and is dropped silently; BROKEN's
		// history read fails and is reported.
		store.quotes["NOHIST"] = types.StockQuote{Symbol: "NOHIST", ChangePercent: 1}
		store.quotes["BROKEN"] = types.StockQuote{Symbol: "BROKEN", ChangePercent: 1}
		store.historyErr = map[string]error{"BROKEN": errors.New("connection reset")}

		rec := doRequest(t, s, http.MethodPost, "/api/screen", map[string]any{"filters": []string{"Rising"}})
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Count        int         `json:"count"`
			Errors       int         `json:"errors"`
			ErrorDetails []string    `json:"error_details"`
			Data         []screenRow `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "UP", body.Data[0].Symbol)
		assert.Equal(t, 1, body.Errors)
		require.Len(t, body.ErrorDetails, 1)
		assert.Contains(t, body.ErrorDetails[0], "BROKEN")
	})
}

func TestStrategiesCRUD(t *testing.T) {
	store := newMockStore()
	s := newTestServer(store, mockMarket{}, nil)

	def := map[string]any{
		"name":           "Breakout",
		"buy_conditions": []map[string]any{{"indicator": "Price", "comparator": ">", "value": 10}},
	}

	rec := doRequest(t, s, http.MethodPost, "/api/strategies/save", map[string]any{"definition": def})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, store.strategy, "Breakout")

	rec = doRequest(t, s, http.MethodGet, "/api/strategies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Breakout")

	// Built-in names are protected.
	builtin := map[string]any{"definition": map[string]any{"name": "Golden Cross"}}
	rec = doRequest(t, s, http.MethodPost, "/api/strategies/save", builtin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/strategies/Golden%20Cross", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/strategies/Breakout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, store.strategy, "Breakout")
}

func TestFiltersCRUD(t *testing.T) {
	store := newMockStore()
	s := newTestServer(store, mockMarket{}, nil)

	filter := map[string]any{
		"name": "Cheap",
		"conditions": []map[string]any{
			{"indicator": "price", "comparator": "<", "value": 20},
		},
	}
	rec := doRequest(t, s, http.MethodPost, "/api/filters/save", filter)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, store.filter, "Cheap")

	rec = doRequest(t, s, http.MethodPost, "/api/filters/save", map[string]any{"name": "Golden Cross"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/filters/save", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/filters/Cheap", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, store.filter, "Cheap")
}

func TestBacktest(t *testing.T) {
	store := newMockStore()
	store.histories["AAPL"] = testHistory(100, 105, 110)
	s := newTestServer(store, mockMarket{}, nil)

	t.Run("missing history", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/backtest/MSFT", map[string]any{"strategy_name": "Golden Cross"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/backtest/AAPL", map[string]any{"strategy_name": "Nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("neither name nor json", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/backtest/AAPL", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("inline json strategy", func(t *testing.T) {
		body := map[string]any{
			"strategy_json": map[string]any{
				"name":           "Inline",
				"buy_conditions": []map[string]any{{"indicator": "Price", "comparator": ">", "value": 102}},
			},
		}
		rec := doRequest(t, s, http.MethodPost, "/api/backtest/aapl", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool                 `json:"success"`
			Result  types.BacktestResult `json:"result"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "AAPL", resp.Result.Symbol)
		assert.Equal(t, "Inline", resp.Result.StrategyName)
		require.Len(t, resp.Result.Trades, 1)
	})
}

func TestSweep(t *testing.T) {
	store := newMockStore()
	store.histories["AAPL"] = testHistory(100, 105, 110)
	s := newTestServer(store, mockMarket{}, nil)

	body := map[string]any{
		"strategy_name": "Price Change Momentum",
		"axes": []map[string]any{
			{"param": "buy_threshold", "values": []float64{2, 4}},
		},
	}
	rec := doRequest(t, s, http.MethodPost, "/api/sweep/AAPL", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)

	rec = doRequest(t, s, http.MethodPost, "/api/sweep/AAPL", map[string]any{"strategy_name": "Nope", "axes": []map[string]any{}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStockDetail(t *testing.T) {
	store := newMockStore()
	market := mockMarket{bars: map[string][]types.Bar{"AAPL": testHistory(100, 102, 104)}}
	s := newTestServer(store, market, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/stock/aapl/detail", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool        `json:"success"`
		Symbol  string      `json:"symbol"`
		OHLC    []ohlcPoint `json:"ohlc"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "AAPL", body.Symbol)
	assert.Len(t, body.OHLC, 3)
	// The fetched history was cached for next time.
	assert.Len(t, store.histories["AAPL"], 3)

	rec = doRequest(t, s, http.MethodGet, "/api/stock/NOPE/detail", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport(t *testing.T) {
	store := newMockStore()
	s := newTestServer(store, mockMarket{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	store.quotes["AAPL"] = types.StockQuote{Symbol: "AAPL", Name: "Apple", Price: 150.5, Volume: 42}
	rec = doRequest(t, s, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "gravion_export.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Ticker")
	assert.Contains(t, lines[1], "AAPL")
	assert.Contains(t, lines[1], "150.5")
}

func TestLoadDefinitions(t *testing.T) {
	store := newMockStore()
	store.strategy["Saved"] = json.RawMessage(`{"name": "Saved"}`)
	store.strategy["Broken"] = json.RawMessage(`{not json`)
	store.filter["Mine"] = json.RawMessage(`{"name": "Mine"}`)
	s := newTestServer(store, mockMarket{}, nil)

	require.NoError(t, s.LoadDefinitions(context.Background()))
	_, ok := s.strategies.Get("Saved")
	assert.True(t, ok)
	_, ok = s.filters.Get("Mine")
	assert.True(t, ok)
}
