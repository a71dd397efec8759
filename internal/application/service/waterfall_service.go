package service

import (
	"context"
	"fmt"

	"github.com/nbrain-team/paycile/internal/application/port"
	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// WaterfallService manages per-insurer waterfall configurations
type WaterfallService interface {
	// Get retrieves an insurer's waterfall ordered by priority
	Get(ctx context.Context, insurerID string) ([]entity.WaterfallItem, error)

	// Reorder replaces the insurer's category order. Priorities are
	// re-derived dense and 1-based from array position, so they can never
	// end up with gaps or ties.
	Reorder(ctx context.Context, insurerID string, orderedItemIDs []string) ([]entity.WaterfallItem, error)
}

type waterfallServiceImpl struct {
	waterfallRepo port.WaterfallRepository
	logger        Logger
}

// NewWaterfallService creates a new WaterfallService
func NewWaterfallService(waterfallRepo port.WaterfallRepository, logger Logger) WaterfallService {
	return &waterfallServiceImpl{
		waterfallRepo: waterfallRepo,
		logger:        logger,
	}
}

// Get retrieves an insurer's waterfall
func (s *waterfallServiceImpl) Get(ctx context.Context, insurerID string) ([]entity.WaterfallItem, error) {
	return s.waterfallRepo.GetByInsurerID(ctx, insurerID)
}

// Reorder re-derives priorities from the given item order and persists the
// new configuration. Every existing item must appear exactly once.
func (s *waterfallServiceImpl) Reorder(ctx context.Context, insurerID string, orderedItemIDs []string) ([]entity.WaterfallItem, error) {
	current, err := s.waterfallRepo.GetByInsurerID(ctx, insurerID)
	if err != nil {
		return nil, fmt.Errorf("load waterfall: %w", err)
	}

	byID := make(map[string]entity.WaterfallItem, len(current))
	for _, item := range current {
		byID[item.ID] = item
	}

	if len(orderedItemIDs) != len(current) {
		return nil, fmt.Errorf("%w: expected %d waterfall items, got %d", entity.ErrInvalidArgument, len(current), len(orderedItemIDs))
	}

	reordered := make([]entity.WaterfallItem, 0, len(orderedItemIDs))
	seen := make(map[string]bool, len(orderedItemIDs))
	for position, id := range orderedItemIDs {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: waterfall item %s does not belong to insurer %s", entity.ErrInvalidArgument, id, insurerID)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: waterfall item %s listed twice", entity.ErrInvalidArgument, id)
		}
		seen[id] = true

		item.Priority = position + 1
		reordered = append(reordered, item)
	}

	if err := s.waterfallRepo.ReplaceForInsurer(ctx, insurerID, reordered); err != nil {
		return nil, fmt.Errorf("save waterfall: %w", err)
	}

	s.logger.Info("Waterfall reordered", "insurer_id", insurerID, "items", len(reordered))
	return reordered, nil
}
