// Package platform describes the chat community side of the sync: which
// roles an account holds and whether it is still a member.
//
// Directory is fed by incoming role facts and is what manual resyncs read.
// Accounts it has never seen are looked up through an optional upstream
// (Remote), with concurrent lookups for the same account collapsed into one.
package platform
