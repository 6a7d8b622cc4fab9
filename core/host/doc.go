// Package host models the game server runtime the sync engine drives.
//
// A game server owns its player state on one thread. Everything that
// mutates the live whitelist must therefore be submitted to the host's
// Executor and run there; Call submits a function and waits for it.
//
// Loop is a standalone host used when the engine runs outside a game
// server process (and in tests). Submitted tasks are staged under a mutex
// and drained in order at the next tick; the whitelist itself is only
// touched from the tick goroutine and is written to a whitelist.json file
// after any tick that changed it.
package host
