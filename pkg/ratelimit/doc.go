// Package ratelimit provides keyed token-bucket rate limiting and a gin
// middleware that applies it to activations arriving on the listener socket,
// with automatic stale-entry cleanup.
package ratelimit
