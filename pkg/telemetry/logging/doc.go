// Package logging builds the process logger. All of vigil logs through
// log/slog; this package turns the logging section of the configuration
// into a handler, and redacts attribute values whose keys look like
// secrets so DSNs and webhook URLs never land in log files.
package logging
