package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter(t *testing.T) {
	ctx := context.Background()
	a := New(true)
	player := uuid.New()

	assert.True(t, a.Detect(ctx))
	assert.False(t, New(false).Detect(ctx))

	require.NoError(t, a.GrantGroup(ctx, player, "vip"))
	require.NoError(t, a.GrantGroup(ctx, player, "vip"))
	require.NoError(t, a.GrantGroup(ctx, player, "builder"))

	groups, err := a.PlayerGroups(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, []string{"builder", "vip"}, groups.Sorted())

	require.NoError(t, a.RevokeGroup(ctx, player, "vip"))
	// Revoking something the player does not have is fine
	require.NoError(t, a.RevokeGroup(ctx, uuid.New(), "vip"))

	groups, err = a.PlayerGroups(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, []string{"builder"}, groups.Sorted())

	// The returned set is a copy
	groups["admin"] = struct{}{}
	again, _ := a.PlayerGroups(ctx, player)
	assert.False(t, again.Has("admin"))
}

func TestAdapter_GroupNamesIgnoreCase(t *testing.T) {
	ctx := context.Background()
	a := New(true)
	player := uuid.New()

	require.NoError(t, a.GrantGroup(ctx, player, "VIP"))
	groups, err := a.PlayerGroups(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, []string{"vip"}, groups.Sorted())

	require.NoError(t, a.RevokeGroup(ctx, player, "Vip"))
	groups, err = a.PlayerGroups(ctx, player)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestAdapter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(true)
	assert.Error(t, a.GrantGroup(ctx, uuid.New(), "vip"))
	_, err := a.PlayerGroups(ctx, uuid.New())
	assert.Error(t, err)
}
