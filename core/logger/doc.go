// Package logger builds the zap loggers used across role-sync.
//
// Production runs log JSON; "console" format gives coloured levels for
// operators running CLI commands. Level "debug" switches to zap's
// development preset.
//
// Two helpers attach correlation fields:
//
//	l := logger.WithRayID(base, c)                     // per HTTP request
//	l := logger.WithAccount(base, platformID, gameID)  // per synced account
package logger
