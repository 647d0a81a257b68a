package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopsight-lab/shopsight/internal/core/storage"
	"github.com/shopspring/decimal"
)

// RollupAdapter implements storage.RollupStore using PostgreSQL.
// It is strictly read-only: all bucket maintenance happens inside the
// ingestion and pruning transactions owned by Adapter.
type RollupAdapter struct {
	db *sql.DB
}

// NewRollupAdapter creates a new RollupAdapter sharing the given connection.
func NewRollupAdapter(db *sql.DB) *RollupAdapter {
	return &RollupAdapter{db: db}
}

// SumByDay returns per-day accumulator sums for a definition. Days with no
// bucket are simply absent; absence means "no events", not "unknown".
func (a *RollupAdapter) SumByDay(ctx context.Context, definition, fromDay, toDay string) (map[string]decimal.Decimal, error) {
	rows, err := a.db.QueryContext(ctx, querySumByDay, definition, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("sum by day %s: %w", definition, err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var day, valueStr string
		if err := rows.Scan(&day, &valueStr); err != nil {
			return nil, fmt.Errorf("sum by day %s: scan row: %w", definition, err)
		}
		value, err := decimal.NewFromString(valueStr)
		if err != nil {
			return nil, fmt.Errorf("sum by day %s: parse value %q: %w", definition, valueStr, err)
		}
		sums[day] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum by day %s: iterate rows: %w", definition, err)
	}

	return sums, nil
}

// SumRange returns the total accumulator sum across the day range.
func (a *RollupAdapter) SumRange(ctx context.Context, definition, fromDay, toDay string) (decimal.Decimal, error) {
	var valueStr string
	err := a.db.QueryRowContext(ctx, querySumRange, definition, fromDay, toDay).Scan(&valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum range %s: %w", definition, err)
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum range %s: parse value %q: %w", definition, valueStr, err)
	}
	return value, nil
}

// SumByDimension returns the accumulator sum for one dimension across the day range.
func (a *RollupAdapter) SumByDimension(ctx context.Context, definition, fromDay, toDay, dimension string) (decimal.Decimal, error) {
	var valueStr string
	err := a.db.QueryRowContext(ctx, querySumByDimension, definition, fromDay, toDay, dimension).Scan(&valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum dimension %s/%s: %w", definition, dimension, err)
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum dimension %s/%s: parse value %q: %w", definition, dimension, valueStr, err)
	}
	return value, nil
}

// CountRowsByDay returns per-day bucket row counts. This is the read path
// for activeUsers-style uniqueness: one row exists per (day, actor), so the
// row count IS the distinct-actor count. Do not sum values here.
func (a *RollupAdapter) CountRowsByDay(ctx context.Context, definition, fromDay, toDay string) (map[string]int64, error) {
	rows, err := a.db.QueryContext(ctx, queryCountRowsByDay, definition, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("count rows by day %s: %w", definition, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("count rows by day %s: scan row: %w", definition, err)
		}
		counts[day] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count rows by day %s: iterate rows: %w", definition, err)
	}

	return counts, nil
}

// CountDistinctDimensions counts distinct dimension values across the day
// range, optionally restricted to a prefix ("user:" yields authenticated-only
// counts).
func (a *RollupAdapter) CountDistinctDimensions(ctx context.Context, definition, fromDay, toDay, dimensionPrefix string) (int64, error) {
	var count int64
	err := a.db.QueryRowContext(ctx, queryCountDistinctDimensions,
		definition, fromDay, toDay, dimensionPrefix).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count distinct dimensions %s: %w", definition, err)
	}
	return count, nil
}

// TopDimensions ranks dimensions by accumulator total descending, ties
// broken by first-seen order.
func (a *RollupAdapter) TopDimensions(ctx context.Context, definition, fromDay, toDay string, limit int) ([]storage.DimensionTotal, error) {
	rows, err := a.db.QueryContext(ctx, queryTopDimensions, definition, fromDay, toDay, limit)
	if err != nil {
		return nil, fmt.Errorf("top dimensions %s: %w", definition, err)
	}
	defer rows.Close()

	var results []storage.DimensionTotal
	for rows.Next() {
		var entry storage.DimensionTotal
		var valueStr string
		if err := rows.Scan(&entry.Dimension, &valueStr, &entry.Events); err != nil {
			return nil, fmt.Errorf("top dimensions %s: scan row: %w", definition, err)
		}
		value, err := decimal.NewFromString(valueStr)
		if err != nil {
			return nil, fmt.Errorf("top dimensions %s: parse value %q: %w", definition, valueStr, err)
		}
		entry.Value = value
		results = append(results, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top dimensions %s: iterate rows: %w", definition, err)
	}

	return results, nil
}
