// Package admin exposes the operator surface over HTTP: whitelist reset
// and management, manual resyncs, link maintenance, account inspection and
// configuration reload.
//
// Responses carry a message from the configured language bundle next to
// the machine-readable fields. Domain errors map to status codes in one
// place (Handler.fail): missing links are 404, link conflicts and disabled
// whitelist management are 409, a missing permission backend is 503.
package admin
