// Package server exposes the analyzer over HTTP.
//
// Routes:
//
//	POST /analyze            request-response analysis
//	GET  /analyze/stream     progress as server-sent events
//	GET  /ws/analyze         progress as WebSocket JSON messages
//	GET  /                   liveness message
//	GET  /health             health check
package server
