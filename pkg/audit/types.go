// SPDX-FileCopyrightText: 2024 Deutsche Telekom AG
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"time"
)

// EventType represents the type of audit event.
type EventType string

const (
	// === Activation events ===
	EventTokenDelivered      EventType = "activation.delivered"
	EventActivationIgnored   EventType = "activation.ignored"
	EventActivationMalformed EventType = "activation.malformed"
	EventTokenMissing        EventType = "activation.missing_token"
	EventActivationRejected  EventType = "activation.rejected"
	EventTokenDuplicate      EventType = "activation.duplicate"
	EventDeliveryFailed      EventType = "activation.delivery_failed"

	// === Registration events ===
	EventSchemeRegistered         EventType = "scheme.registered"
	EventSchemeRegistrationFailed EventType = "scheme.registration_failed"

	// === Listener lifecycle events ===
	EventListenerStarted EventType = "listener.started"
	EventListenerStopped EventType = "listener.stopped"

	// === Audit meta events ===
	EventAuditDropped EventType = "audit.dropped"
)

// Severity represents the severity level of an audit event
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event represents a single audit event. It must never hold the activation
// URI, its query or the token.
type Event struct {
	// ID is a unique identifier for this event
	ID string `json:"id"`

	// Type is the type of event
	Type EventType `json:"type"`

	// Severity indicates the importance of the event
	Severity Severity `json:"severity"`

	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// Scheme and Host of the activation URI, when it parsed that far
	Scheme string `json:"scheme,omitempty"`
	Host   string `json:"host,omitempty"`

	// Sink is the deliverer that received (or failed to receive) the token
	Sink string `json:"sink,omitempty"`

	// Reason is a short, secret-free explanation for non-delivered outcomes
	Reason string `json:"reason,omitempty"`
}

// SeverityForEventType returns the default severity for an event type
func SeverityForEventType(eventType EventType) Severity {
	switch eventType {
	case EventTokenMissing, EventDeliveryFailed, EventSchemeRegistrationFailed, EventAuditDropped:
		return SeverityCritical
	case EventActivationMalformed, EventActivationRejected, EventTokenDuplicate:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
