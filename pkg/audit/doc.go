// Package audit records an audit trail of deep-link activations and forwards
// it to configurable sinks (log, Kafka). Events describe where an activation
// went and how it ended; they never carry the activation URI or the token.
package audit
