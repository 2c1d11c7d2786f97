// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Production encoding is used unless
// debug is set; stacktraces are disabled for non-fatal levels to keep WARN
// and INFO lines readable.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}

// ActivationFields returns key/value pairs identifying an activation for
// SugaredLogger calls. Only the scheme and host are ever logged; the path and
// query may carry secrets.
func ActivationFields(scheme, host string) []interface{} {
	if host == "" {
		return []interface{}{"scheme", scheme}
	}
	return []interface{}{"scheme", scheme, "host", host}
}
