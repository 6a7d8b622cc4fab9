// Package loader registers the HTTP features of the server and mounts the
// enabled ones on the fiber app.
//
// A feature exposes Name, IsEnabled and Load(fiber.Router). The start
// command registers "rolesync" (event ingestion) and "admin" (operator API)
// and calls LoadAll once, after the global middleware is in place.
package loader
