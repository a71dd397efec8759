package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/nbrain-team/paycile/internal/application/port"
	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// WaterfallRepository implements port.WaterfallRepository on SQLite
type WaterfallRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWaterfallRepository creates a new waterfall repository
func NewWaterfallRepository(db *sql.DB, logger *zap.Logger) port.WaterfallRepository {
	return &WaterfallRepository{
		db:     db,
		logger: logger,
	}
}

// GetByInsurerID retrieves an insurer's waterfall ordered by priority
func (r *WaterfallRepository) GetByInsurerID(ctx context.Context, insurerID string) ([]entity.WaterfallItem, error) {
	query := `
		SELECT id, insurer_id, type, priority, description
		FROM waterfall_items
		WHERE insurer_id = ?
		ORDER BY priority
	`

	rows, err := r.db.QueryContext(ctx, query, insurerID)
	if err != nil {
		r.logger.Error("Failed to get waterfall", zap.String("insurer_id", insurerID), zap.Error(err))
		return nil, fmt.Errorf("failed to get waterfall: %w", err)
	}
	defer rows.Close()

	var items []entity.WaterfallItem
	for rows.Next() {
		var item entity.WaterfallItem
		if err := rows.Scan(&item.ID, &item.InsurerID, &item.Type, &item.Priority, &item.Description); err != nil {
			return nil, fmt.Errorf("failed to scan waterfall item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// ReplaceForInsurer atomically replaces an insurer's waterfall configuration
func (r *WaterfallRepository) ReplaceForInsurer(ctx context.Context, insurerID string, items []entity.WaterfallItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM waterfall_items WHERE insurer_id = ?`, insurerID); err != nil {
		r.logger.Error("Failed to clear waterfall", zap.String("insurer_id", insurerID), zap.Error(err))
		return fmt.Errorf("failed to clear waterfall: %w", err)
	}

	insert := `INSERT INTO waterfall_items (id, insurer_id, type, priority, description) VALUES (?, ?, ?, ?, ?)`
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, insert, item.ID, insurerID, item.Type, item.Priority, item.Description); err != nil {
			r.logger.Error("Failed to insert waterfall item", zap.String("item_id", item.ID), zap.Error(err))
			return fmt.Errorf("failed to insert waterfall item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit waterfall replace: %w", err)
	}

	return nil
}
