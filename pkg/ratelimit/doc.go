// Package ratelimit provides a fixed-window request limiter keyed by client
// address, applied as HTTP middleware ahead of the chat handler.
//
// The window is a simple counter that resets when it expires. Counts live in
// memory by default; a Redis backend is available for multi-process
// deployments. This is request throttling, not a fairness or quota system.
package ratelimit
