// Package logging provides a simple leveled logging interface for the
// media gallery server and its maintenance tools.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable (or
// DEBUG=true) and may be overridden from the configuration file with
// [SetLevel].
package logging
