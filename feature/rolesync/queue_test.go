package rolesync

import (
	"context"
	"testing"
	"time"

	"role-sync/core/reconcile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func popWithin(t *testing.T, q *queue, d time.Duration) (*item, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return q.pop(ctx)
}

func TestQueue_CoalescesPendingFacts(t *testing.T) {
	q := newQueue(time.Now)

	q.push(&item{fact: Fact{PlatformID: "p1", Roles: []string{"a", "b"}, Kind: RolesChanged}})
	q.push(&item{fact: Fact{PlatformID: "p2", Roles: []string{"x"}, Kind: MemberJoined}})
	q.push(&item{fact: Fact{PlatformID: "p1", Roles: []string{"a"}, Kind: RolesChanged}})

	it, ok := popWithin(t, q, time.Second)
	require.True(t, ok)
	assert.Equal(t, "p1", it.fact.PlatformID)
	assert.Equal(t, []string{"a"}, it.fact.Roles)

	it, ok = popWithin(t, q, time.Second)
	require.True(t, ok)
	assert.Equal(t, "p2", it.fact.PlatformID)

	_, ok = popWithin(t, q, 10*time.Millisecond)
	assert.False(t, ok)
}

func TestQueue_AccountIsNeverHandedOutTwice(t *testing.T) {
	q := newQueue(time.Now)

	q.push(&item{fact: Fact{PlatformID: "p1", Kind: RolesChanged}})
	first, ok := popWithin(t, q, time.Second)
	require.True(t, ok)

	q.push(&item{fact: Fact{PlatformID: "p1", Roles: []string{"late"}, Kind: RolesChanged}})
	_, ok = popWithin(t, q, 10*time.Millisecond)
	assert.False(t, ok, "p1 is still being worked on")

	q.done(first.fact.PlatformID)
	second, ok := popWithin(t, q, time.Second)
	require.True(t, ok)
	assert.Equal(t, []string{"late"}, second.fact.Roles)
	assert.False(t, q.idle())

	q.done("p1")
	assert.True(t, q.idle())
}

func TestQueue_RequeueWaitsForDelay(t *testing.T) {
	q := newQueue(time.Now)

	q.push(&item{fact: Fact{PlatformID: "p1", Kind: RolesChanged}})
	it, _ := popWithin(t, q, time.Second)
	q.requeue(it, 30*time.Millisecond)
	q.done("p1")

	start := time.Now()
	again, ok := popWithin(t, q, time.Second)
	require.True(t, ok)
	assert.Same(t, it, again)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestQueue_DelayedAccountDoesNotBlockOthers(t *testing.T) {
	q := newQueue(time.Now)

	q.push(&item{fact: Fact{PlatformID: "slow", Kind: RolesChanged}})
	it, _ := popWithin(t, q, time.Second)
	q.requeue(it, time.Hour)
	q.done("slow")

	q.push(&item{fact: Fact{PlatformID: "fast", Kind: RolesChanged}})
	next, ok := popWithin(t, q, time.Second)
	require.True(t, ok)
	assert.Equal(t, "fast", next.fact.PlatformID)
}

func TestQueue_NewerFactSupersedesRedrive(t *testing.T) {
	q := newQueue(time.Now)
	former := uuid.New()

	q.push(&item{fact: Fact{PlatformID: "p1", Kind: MemberLeft}})
	failed, _ := popWithin(t, q, time.Second)
	failed.formerGameID = former
	failed.redrive = []reconcile.Action{{Type: reconcile.ActionRevokeGroup, Group: "g"}}

	q.push(&item{fact: Fact{PlatformID: "p1", Roles: []string{"r"}, Kind: MemberJoined}})
	q.requeue(failed, time.Hour)
	q.done("p1")

	it, ok := popWithin(t, q, time.Second)
	require.True(t, ok)
	assert.Equal(t, MemberJoined, it.fact.Kind)
	assert.Empty(t, it.redrive)
	assert.Equal(t, former, it.formerGameID, "cleanup of the old game account is kept")
}

func TestQueue_MergeKeepsFormerGameID(t *testing.T) {
	former := uuid.New()
	q := newQueue(time.Now)

	q.push(&item{fact: Fact{PlatformID: "p1", Kind: RolesChanged}, formerGameID: former})
	q.push(&item{fact: Fact{PlatformID: "p1", Kind: RolesChanged}})

	it, ok := popWithin(t, q, time.Second)
	require.True(t, ok)
	assert.Equal(t, former, it.formerGameID)
}

func TestQueue_Close(t *testing.T) {
	q := newQueue(time.Now)
	q.push(&item{fact: Fact{PlatformID: "p1", Kind: RolesChanged}})

	assert.Equal(t, 1, q.close())
	assert.Equal(t, 0, q.close())
	assert.False(t, q.push(&item{fact: Fact{PlatformID: "p2", Kind: RolesChanged}}))

	_, ok := popWithin(t, q, time.Second)
	assert.False(t, ok)
}
