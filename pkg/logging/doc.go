// Package logging provides structured, subsystem-tagged logging for
// authflow, built on Go's standard slog package.
//
// All log entries carry a timestamp, level, subsystem identifier and
// message; errors are attached as a structured attribute. Level filtering
// happens at the handler, so suppressed messages cost no allocation.
//
// Initialize once at startup:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Config", "Loaded configuration from %s", path)
//	logging.Error("Config", err, "Config load failed")
//
// The core flow packages take a *slog.Logger directly instead, so
// embedders can route their own handler through them.
package logging
