package storagemocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/shopsight-lab/shopsight/internal/core/storage"
)

// RollupStore is a mock implementation of storage.RollupStore.
type RollupStore struct {
	mock.Mock
}

func NewRollupStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *RollupStore {
	m := &RollupStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *RollupStore) SumByDay(ctx context.Context, definition, fromDay, toDay string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, definition, fromDay, toDay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *RollupStore) SumRange(ctx context.Context, definition, fromDay, toDay string) (decimal.Decimal, error) {
	args := m.Called(ctx, definition, fromDay, toDay)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *RollupStore) SumByDimension(ctx context.Context, definition, fromDay, toDay, dimension string) (decimal.Decimal, error) {
	args := m.Called(ctx, definition, fromDay, toDay, dimension)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *RollupStore) CountRowsByDay(ctx context.Context, definition, fromDay, toDay string) (map[string]int64, error) {
	args := m.Called(ctx, definition, fromDay, toDay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *RollupStore) CountDistinctDimensions(ctx context.Context, definition, fromDay, toDay, dimensionPrefix string) (int64, error) {
	args := m.Called(ctx, definition, fromDay, toDay, dimensionPrefix)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RollupStore) TopDimensions(ctx context.Context, definition, fromDay, toDay string, limit int) ([]storage.DimensionTotal, error) {
	args := m.Called(ctx, definition, fromDay, toDay, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.DimensionTotal), args.Error(1)
}
