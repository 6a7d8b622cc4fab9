// Package lang loads operator-facing messages from YAML language files.
//
// en_US and pt_BR are built in. A language directory on disk may override
// any key; keys missing from the configured language come from en_US.
package lang
