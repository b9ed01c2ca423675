// ABOUTME: Package doc for the console gateway HTTP server
// ABOUTME: Ties routing, sessions, presence monitoring, and storage together

// Package server hosts the console gateway: the authenticated REST API for
// login and agent activity, the WebSocket watch feed that streams presence
// transitions, and the console route dispatcher serving every non-API path.
//
// Each watch connection shares a single per-agent presence monitor through a
// reference-counted registry, so an agent watched from three consoles still
// polls the activity cache once per interval.
package server
