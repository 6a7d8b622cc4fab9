package permission_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"role-sync/core/permission"
	"role-sync/core/reconcile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter is detected according to present and records calls.
type stubAdapter struct {
	name    string
	present bool
	probed  *[]string
	block   bool
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Detect(ctx context.Context) bool {
	if s.probed != nil {
		*s.probed = append(*s.probed, s.name)
	}
	return s.present
}

func (s *stubAdapter) GrantGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (s *stubAdapter) RevokeGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	return nil
}

func (s *stubAdapter) PlayerGroups(ctx context.Context, gameID uuid.UUID) (reconcile.Set, error) {
	return reconcile.NewSet(), nil
}

func TestRegistry_SelectMissingBackend(t *testing.T) {
	r := permission.NewRegistry()

	a, err := r.Select(context.Background(), nil, time.Second)
	assert.ErrorIs(t, err, permission.ErrBackendMissing)
	assert.Nil(t, a)

	require.NoError(t, r.Register(&stubAdapter{name: "vault"}))
	_, err = r.Select(context.Background(), []string{"vault"}, time.Second)
	assert.ErrorIs(t, err, permission.ErrBackendMissing)
}

func TestRegistry_SelectionIsDeterministic(t *testing.T) {
	var probed []string
	r := permission.NewRegistry()
	require.NoError(t, r.Register(&stubAdapter{name: "zperms", present: true, probed: &probed}))
	require.NoError(t, r.Register(&stubAdapter{name: "alpha", present: true, probed: &probed}))
	require.NoError(t, r.Register(&stubAdapter{name: "beta", present: false, probed: &probed}))

	a, err := r.Select(context.Background(), []string{"beta", "unknown", "zperms"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "zperms", a.Name())
	assert.Equal(t, []string{"beta", "zperms"}, probed)

	// Without priority the lexical order decides
	probed = nil
	a, err = r.Select(context.Background(), nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "alpha", a.Name())
	assert.Equal(t, []string{"alpha"}, probed)
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := permission.NewRegistry()
	require.NoError(t, r.Register(&stubAdapter{name: "memory"}))
	assert.Error(t, r.Register(&stubAdapter{name: "memory"}))
	assert.Equal(t, []string{"memory"}, r.Names())
}

func TestBounded_EnforcesTimeout(t *testing.T) {
	a := permission.Bounded(&stubAdapter{name: "slow", block: true}, 10*time.Millisecond)

	start := time.Now()
	err := a.GrantGroup(context.Background(), uuid.New(), "vip")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, permission.IsTransient(errors.New("connection reset")))
	assert.True(t, permission.IsTransient(&permission.StatusError{Status: http.StatusBadGateway}))
	assert.True(t, permission.IsTransient(&permission.StatusError{Status: http.StatusTooManyRequests}))
	assert.False(t, permission.IsTransient(&permission.StatusError{Status: http.StatusBadRequest}))
	assert.False(t, permission.IsTransient(context.Canceled))
}
