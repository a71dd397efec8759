package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbrain-team/paycile/internal/domain/entity"
)

func waterfallFixture() *memWaterfallRepo {
	return &memWaterfallRepo{items: map[string][]entity.WaterfallItem{
		"ins-1": {
			{ID: "wf-1", InsurerID: "ins-1", Type: entity.LineItemTypePremium, Priority: 1, Description: "Premium"},
			{ID: "wf-2", InsurerID: "ins-1", Type: entity.LineItemTypeTax, Priority: 2, Description: "Taxes"},
			{ID: "wf-3", InsurerID: "ins-1", Type: entity.LineItemTypeFee, Priority: 3, Description: "Fees"},
		},
	}}
}

func TestWaterfallGet_OrderedByPriority(t *testing.T) {
	svc := NewWaterfallService(waterfallFixture(), nopLogger{})

	items, err := svc.Get(context.Background(), "ins-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, i+1, item.Priority)
	}
}

func TestWaterfallReorder_RederivesPriorities(t *testing.T) {
	repo := waterfallFixture()
	svc := NewWaterfallService(repo, nopLogger{})

	items, err := svc.Reorder(context.Background(), "ins-1", []string{"wf-3", "wf-1", "wf-2"})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "wf-3", items[0].ID)
	assert.Equal(t, 1, items[0].Priority)
	assert.Equal(t, "wf-1", items[1].ID)
	assert.Equal(t, 2, items[1].Priority)
	assert.Equal(t, "wf-2", items[2].ID)
	assert.Equal(t, 3, items[2].Priority)

	// persisted order survives a reload
	reloaded, err := svc.Get(context.Background(), "ins-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-3", reloaded[0].ID)
}

func TestWaterfallReorder_RejectsMissingItems(t *testing.T) {
	svc := NewWaterfallService(waterfallFixture(), nopLogger{})

	_, err := svc.Reorder(context.Background(), "ins-1", []string{"wf-3", "wf-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)
}

func TestWaterfallReorder_RejectsForeignItem(t *testing.T) {
	svc := NewWaterfallService(waterfallFixture(), nopLogger{})

	_, err := svc.Reorder(context.Background(), "ins-1", []string{"wf-1", "wf-2", "wf-other"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)
}

func TestWaterfallReorder_RejectsDuplicateItem(t *testing.T) {
	svc := NewWaterfallService(waterfallFixture(), nopLogger{})

	_, err := svc.Reorder(context.Background(), "ins-1", []string{"wf-1", "wf-1", "wf-2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)
}
