// Package logging provides structured logging with per-module log level configuration.
//
// Loggers are plain *slog.Logger values tagged with a "module" attribute.
// Console output goes to stderr so command output on stdout stays clean.
// With Journal set, records are also sent to the systemd journal when it is
// reachable.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"ffmpeg": "debug",
//		},
//	})
//
// Then per module:
//
//	logger := logging.GetLogger("transcoder")
//	logger.Info("Transcoding", "output", path)
//
// Loggers fetched before Initialize are rebuilt by it, so package-level
// loggers pick up the configured levels.
//
// TOML form:
//
//	[logging]
//	level = "info"
//	format = "json"
//	journal = true
//
//	[logging.modules]
//	ffmpeg = "debug"
//
// Level names also accept ffmpeg's own (verbose, trace, fatal, panic).
//
// Journal entries carry SYSLOG_IDENTIFIER=ffwrap:
//
//	journalctl -t ffwrap FFWRAP_MODULE=transcoder
package logging
