// Package scheme registers a private URI scheme with the host operating system
// so that activating a deep link launches or wakes linkctl. Registration is an
// explicit startup step that returns a Registration value; it is idempotent
// and persists outside the process (desktop entry, registry key or bundle
// metadata depending on the platform).
package scheme
