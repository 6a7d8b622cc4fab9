// Package middleware groups the fiber middleware mounted in front of every
// route.
//
// rayid tags requests with an X-Ray-ID that the loggers pick up. auth
// checks the X-API-Key header (or a bearer token) against the configured
// key and leaves the API open when no key is set.
package middleware
