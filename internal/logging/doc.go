// Package logging constructs the application's slog loggers and provides
// shared attribute helpers so components emit consistent structured fields.
//
// Two output formats are supported: a console format for interactive use and
// JSON for log shipping. Component loggers carry a standardized "component"
// attribute; field-name constants keep event types greppable across the
// agent, CLI, and server.
package logging
