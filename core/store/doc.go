// Package store persists identity links between platform accounts and
// game accounts.
//
// The links table is the system of record. It is unique on both the
// platform id and the game id, so a link is always bijective. Group
// assignments are never stored; they are recomputed from roles on every
// sync.
//
// # Engines
//
// SQLStore runs over any GORM dialect and picks a connection strategy from it:
//   - embedded (sqlite): one file, one owner. Acquire blocks until the single
//     slot is free, so all access is serialized.
//   - networked (mysql, postgres): Acquire borrows a dedicated pooled
//     connection and validates it with SELECT 1 before handing it out.
//
// # Errors
//
// Conflicts on upsert surface as *ConflictError and are never resolved by
// the store. Every other driver or I/O failure is wrapped in *TransientError
// so callers can retry it.
//
// # Usage
//
//	s, err := store.Open(cfg.Database)
//	if err := s.InitializeSchema(ctx); err != nil { ... }
//	link, err := s.UpsertLink(ctx, "1234", gameID)
//	for link, err := range s.ListAll(ctx) { ... }
package store
