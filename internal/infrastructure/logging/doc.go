// Package logging provides structured logging for plantbridge.
//
// It wraps the standard log/slog package so every component logs with the
// same handler, level filter, and default fields.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("sensor auto-registered", "device_id", id, "owner_id", owner)
//	logger.Error("reading insert failed", "error", err)
//
// Never log broker passwords, database DSNs or InfluxDB tokens.
package logging
