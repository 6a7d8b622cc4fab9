// Package permission binds the sync engine to exactly one permission backend.
//
// Adapters are registered up front and probed at startup in a deterministic
// order: the configured priority list first, then every other adapter by
// name. The first adapter whose Detect succeeds is selected. If none is
// detected, Select returns ErrBackendMissing and the sync feature stays off.
//
// The selected adapter is wrapped by Bounded so every call carries a
// timeout; an unbounded backend call would stall the host executor.
//
// Rank ordering between groups is the backend's business. Adapters only
// add and remove group membership.
package permission
