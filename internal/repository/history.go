package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"gravion/types"
)

// SaveHistory upserts a symbol's daily bars. Existing (symbol, date) rows are
// replaced. It returns the number of rows written.
func (db *Database) SaveHistory(ctx context.Context, symbol string, bars []types.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(
			`INSERT INTO stock_history (symbol, date, open, high, low, close, volume, fetched_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			 ON CONFLICT (symbol, date) DO UPDATE SET
			     open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
			     close = EXCLUDED.close, volume = EXCLUDED.volume, fetched_at = EXCLUDED.fetched_at`,
			symbol, b.Date,
			decimalPtr(b.Open), decimalPtr(b.High), decimalPtr(b.Low), decimalPtr(b.Close),
			b.Volume,
		)
	}

	results := db.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range bars {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("save history for %s: %w", symbol, err)
		}
	}
	return len(bars), nil
}

// GetHistory returns a symbol's bars ordered by ascending date. An empty
// history yields ErrNoHistory.
func (db *Database) GetHistory(ctx context.Context, symbol string) ([]types.Bar, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT date, open, high, low, close, volume
		 FROM stock_history WHERE symbol = $1 ORDER BY date ASC`,
		symbol,
	)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var (
			bar                     types.Bar
			open, high, low, close_ *decimal.Decimal
		)
		if err := rows.Scan(&bar.Date, &open, &high, &low, &close_, &bar.Volume); err != nil {
			return nil, fmt.Errorf("scan history row for %s: %w", symbol, err)
		}
		bar.Open = floatPtr(open)
		bar.High = floatPtr(high)
		bar.Low = floatPtr(low)
		bar.Close = floatPtr(close_)
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history rows for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoHistory)
	}
	return bars, nil
}

// HistoryFreshness returns the latest bar date and fetch time for a symbol.
// The bool is false when no history exists.
func (db *Database) HistoryFreshness(ctx context.Context, symbol string) (maxDate string, lastFetch time.Time, ok bool, err error) {
	var date *string
	var fetched *time.Time
	err = db.pool.QueryRow(ctx,
		`SELECT max(date), max(fetched_at) FROM stock_history WHERE symbol = $1`,
		symbol,
	).Scan(&date, &fetched)
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("query history freshness for %s: %w", symbol, err)
	}
	if date == nil || fetched == nil {
		return "", time.Time{}, false, nil
	}
	return *date, *fetched, true, nil
}

func decimalPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
