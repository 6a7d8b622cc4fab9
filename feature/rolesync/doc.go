// Package rolesync is the event bridge between the chat platform and the
// game host.
//
// Facts arrive on any goroutine through Deliver and land in a queue that
// keeps at most one pending item per account; a newer fact replaces an
// older one that has not started. Each account is handled by one worker at
// a time, so facts for the same account take effect in arrival order.
//
// A worker resolves the link, reads the player's current groups, builds a
// plan with the reconcile package and then submits the whole apply step as
// one task to the host executor. Mutations that fail are collected in an
// ApplyResult; the item goes back on the queue with only those actions and
// an exponential delay, until the requeue budget is spent.
//
// Administrative operations (whitelist reset, whitelist management,
// manual resync, link and unlink) live on the Bridge as well.
package rolesync
