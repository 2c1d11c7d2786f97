// Package deliver implements the downstream side of the bridge: sinks that
// receive an extracted token exactly once. Delivery is fire-and-forget; sinks
// report failures for logging but are never retried.
package deliver
