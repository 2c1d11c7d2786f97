// Package metrics defines Prometheus metrics for linkctl, covering deep-link
// activations and their outcomes, token deliveries, scheme registration,
// listener admission and audit sinks.
package metrics
