package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cryptofolio/backend/internal/contracts"
)

// Repository persists executed orders to Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new order history repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the orders table if it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS orders (
			order_id    TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			side        TEXT NOT NULL,
			quantity    NUMERIC NOT NULL,
			fill_price  NUMERIC NOT NULL,
			fee         NUMERIC NOT NULL,
			cash_after  NUMERIC NOT NULL,
			executed_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_orders_executed_at ON orders (executed_at DESC);
		CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders (symbol, executed_at DESC);
	`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure orders schema: %w", err)
	}
	return nil
}

// RecordFill inserts an executed fill into the orders table.
func (r *Repository) RecordFill(ctx context.Context, fill contracts.Fill) error {
	query := `
		INSERT INTO orders (
			order_id, symbol, side, quantity, fill_price, fee, cash_after, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		fill.OrderID, fill.Symbol, string(fill.Side),
		fill.Quantity.String(), fill.FillPrice.String(), fill.Fee.String(),
		fill.CashAfter.String(), fill.ExecutedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record fill: %w", err)
	}
	return nil
}

// RecentOrders returns the most recent fills, newest first.
func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]contracts.Fill, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT order_id, symbol, side, quantity, fill_price, fee, cash_after, executed_at
		FROM orders
		ORDER BY executed_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent orders: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// TradeHistory returns fills for one symbol since a cutoff, newest first.
// An empty symbol returns all symbols.
func (r *Repository) TradeHistory(ctx context.Context, symbol string, since time.Time, limit int) ([]contracts.Fill, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT order_id, symbol, side, quantity, fill_price, fee, cash_after, executed_at
		FROM orders
		WHERE ($1 = '' OR symbol = $1) AND executed_at >= $2
		ORDER BY executed_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, symbol, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade history: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// DeleteAll wipes the order history. Used when the account is reset.
func (r *Repository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM orders"); err != nil {
		return fmt.Errorf("failed to delete orders: %w", err)
	}
	return nil
}

// Cleanup removes fills older than the retention window and reports how
// many rows were purged.
func (r *Repository) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	tag, err := r.pool.Exec(ctx, "DELETE FROM orders WHERE executed_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanFills(rows rowScanner) ([]contracts.Fill, error) {
	fills := make([]contracts.Fill, 0)

	for rows.Next() {
		var (
			fill contracts.Fill
			side string
			qty  string
			px   string
			fee  string
			cash string
		)

		err := rows.Scan(
			&fill.OrderID, &fill.Symbol, &side,
			&qty, &px, &fee, &cash, &fill.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		fill.Side = contracts.Side(side)
		if fill.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("invalid quantity in order %s: %w", fill.OrderID, err)
		}
		if fill.FillPrice, err = decimal.NewFromString(px); err != nil {
			return nil, fmt.Errorf("invalid fill price in order %s: %w", fill.OrderID, err)
		}
		if fill.Fee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("invalid fee in order %s: %w", fill.OrderID, err)
		}
		if fill.CashAfter, err = decimal.NewFromString(cash); err != nil {
			return nil, fmt.Errorf("invalid cash in order %s: %w", fill.OrderID, err)
		}

		fills = append(fills, fill)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return fills, nil
}
