// Package storagemocks provides testify mocks over the storage interfaces.
package storagemocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	v1 "github.com/shopsight-lab/shopsight/internal/api/v1"
	"github.com/shopsight-lab/shopsight/internal/core/rollup"
	"github.com/shopsight-lab/shopsight/internal/core/storage"
)

// EventStore is a mock implementation of storage.EventStore.
type EventStore struct {
	mock.Mock
}

func NewEventStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *EventStore {
	m := &EventStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EventStore) AppendEvent(ctx context.Context, evt *v1.Event, contribs []rollup.Contribution) error {
	args := m.Called(ctx, evt, contribs)
	return args.Error(0)
}

func (m *EventStore) ListEvents(ctx context.Context, userID, anonymousID string, limit int) ([]*v1.Event, error) {
	args := m.Called(ctx, userID, anonymousID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*v1.Event), args.Error(1)
}

func (m *EventStore) LinkIdentity(ctx context.Context, anonymousID, userID string) (int64, error) {
	args := m.Called(ctx, anonymousID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *EventStore) DistinctActors(ctx context.Context, eventName, propertyKey, propertyValue string, from, to time.Time) (map[string]struct{}, error) {
	args := m.Called(ctx, eventName, propertyKey, propertyValue, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *EventStore) PruneBatch(ctx context.Context, cutoff time.Time, limit int, contribFor storage.ContributionFn) (storage.PruneResult, error) {
	args := m.Called(ctx, cutoff, limit, contribFor)
	return args.Get(0).(storage.PruneResult), args.Error(1)
}
