package mocks

import (
	"context"

	"role-sync/core/reconcile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Adapter is a mock implementation of permission.Adapter
type Adapter struct {
	mock.Mock
}

func (m *Adapter) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Adapter) Detect(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *Adapter) GrantGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	args := m.Called(ctx, gameID, group)
	return args.Error(0)
}

func (m *Adapter) RevokeGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	args := m.Called(ctx, gameID, group)
	return args.Error(0)
}

func (m *Adapter) PlayerGroups(ctx context.Context, gameID uuid.UUID) (reconcile.Set, error) {
	args := m.Called(ctx, gameID)
	if set, ok := args.Get(0).(reconcile.Set); ok {
		return set, args.Error(1)
	}
	return nil, args.Error(1)
}
