// Package logger provides structured logging built on zerolog.
//
// Loggers carry a service tag and optional component and request fields.
// Output is JSON by default and a compact colored console format for local
// use.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "console"
//
// # Usage
//
//	log := logger.New(&cfg, "influencore").WithComponent("httpclient")
//	log.Info("request queued", logger.Fields("request_id", id, "queue_len", n))
package logger
