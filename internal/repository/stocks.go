package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"gravion/types"
)

// UpsertQuote writes the latest snapshot of a symbol to the stock cache.
func (db *Database) UpsertQuote(ctx context.Context, q types.StockQuote) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO stock_cache
		     (symbol, name, price, open, high, low, close, volume, change_percent, last_fetched)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (symbol) DO UPDATE SET
		     name = EXCLUDED.name, price = EXCLUDED.price,
		     open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
		     close = EXCLUDED.close, volume = EXCLUDED.volume,
		     change_percent = EXCLUDED.change_percent, last_fetched = EXCLUDED.last_fetched`,
		q.Symbol, q.Name,
		decimal.NewFromFloat(q.Price), decimal.NewFromFloat(q.Open),
		decimal.NewFromFloat(q.High), decimal.NewFromFloat(q.Low),
		decimal.NewFromFloat(q.Close), q.Volume,
		decimal.NewFromFloat(q.ChangePercent), q.LastFetched,
	)
	if err != nil {
		return fmt.Errorf("upsert quote for %s: %w", q.Symbol, err)
	}
	return nil
}

// GetQuote returns the cached snapshot for one symbol.
func (db *Database) GetQuote(ctx context.Context, symbol string) (types.StockQuote, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT symbol, name, price, open, high, low, close, volume, change_percent, last_fetched
		 FROM stock_cache WHERE symbol = $1`,
		symbol,
	)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.StockQuote{}, fmt.Errorf("%s: %w", symbol, ErrStockNotFound)
		}
		return types.StockQuote{}, fmt.Errorf("query quote for %s: %w", symbol, err)
	}
	return q, nil
}

// ListQuotes returns every cached snapshot ordered by symbol.
func (db *Database) ListQuotes(ctx context.Context) ([]types.StockQuote, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT symbol, name, price, open, high, low, close, volume, change_percent, last_fetched
		 FROM stock_cache ORDER BY symbol ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []types.StockQuote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote row: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read quote rows: %w", err)
	}
	return quotes, nil
}

func scanQuote(row pgx.Row) (types.StockQuote, error) {
	var (
		q                              types.StockQuote
		price, change                  decimal.Decimal
		open, high, low, close_        *decimal.Decimal
	)
	err := row.Scan(&q.Symbol, &q.Name, &price, &open, &high, &low, &close_, &q.Volume, &change, &q.LastFetched)
	if err != nil {
		return types.StockQuote{}, err
	}
	q.Price = price.InexactFloat64()
	q.ChangePercent = change.InexactFloat64()
	if open != nil {
		q.Open = open.InexactFloat64()
	}
	if high != nil {
		q.High = high.InexactFloat64()
	}
	if low != nil {
		q.Low = low.InexactFloat64()
	}
	if close_ != nil {
		q.Close = close_.InexactFloat64()
	}
	return q, nil
}
