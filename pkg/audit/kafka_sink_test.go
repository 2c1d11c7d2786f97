/*
Copyright 2024.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/telekom/linkctl/pkg/metrics"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSinkConfig_Validation(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name    string
		cfg     KafkaSinkConfig
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid minimal config",
			cfg: KafkaSinkConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "linkctl-audit",
			},
		},
		{
			name:    "missing brokers",
			cfg:     KafkaSinkConfig{Topic: "linkctl-audit"},
			wantErr: true,
			errMsg:  "at least one Kafka broker is required",
		},
		{
			name:    "missing topic",
			cfg:     KafkaSinkConfig{Brokers: []string{"localhost:9092"}},
			wantErr: true,
			errMsg:  "Kafka topic is required",
		},
		{
			name: "unknown codec falls back",
			cfg: KafkaSinkConfig{
				Brokers:          []string{"localhost:9092"},
				Topic:            "linkctl-audit",
				CompressionCodec: "brotli",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink, err := NewKafkaSink(tc.cfg, logger)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "kafka", sink.Name())
			assert.NoError(t, sink.Close())
		})
	}
}

func TestKafkaSink_WriteEncodesEvent(t *testing.T) {
	writer := &fakeWriter{}
	sink := newKafkaSink("audit-kafka", writer, zaptest.NewLogger(t))

	event := &Event{
		ID:        "evt-42",
		Type:      EventTokenDelivered,
		Severity:  SeverityInfo,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Scheme:    "app",
		Host:      "auth",
		Sink:      "keyring",
	}
	require.NoError(t, sink.Write(context.Background(), event))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, []byte("evt-42"), msg.Key)
	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, EventTokenDelivered, decoded.Type)
	assert.Equal(t, "keyring", decoded.Sink)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "activation.delivered", headers["event-type"])
	assert.Equal(t, "2026-03-01T12:00:00Z", headers["timestamp"])

	written, failed := sink.MessageStats()
	assert.Equal(t, int64(1), written)
	assert.Equal(t, int64(0), failed)
}

func TestKafkaSink_WriteFailureIsClassified(t *testing.T) {
	writer := &fakeWriter{err: fmt.Errorf("dial: %w", context.DeadlineExceeded)}
	sink := newKafkaSink("kafka-timeout-test", writer, zaptest.NewLogger(t))

	before := testutil.ToFloat64(metrics.AuditSinkErrors.WithLabelValues("kafka-timeout-test", "timeout"))
	err := sink.Write(context.Background(), &Event{ID: "1", Type: EventTokenDelivered})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(timeout)")
	after := testutil.ToFloat64(metrics.AuditSinkErrors.WithLabelValues("kafka-timeout-test", "timeout"))
	assert.Equal(t, before+1, after)

	_, failed := sink.MessageStats()
	assert.Equal(t, int64(1), failed)
}

func TestKafkaSink_WriteAfterClose(t *testing.T) {
	writer := &fakeWriter{}
	sink := newKafkaSink("", writer, zaptest.NewLogger(t))
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	assert.True(t, writer.closed)

	err := sink.Write(context.Background(), &Event{ID: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestClassifyKafkaError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "cancelled"},
		{errors.New("SASL handshake failed"), "auth"},
		{errors.New("dial tcp: connection refused"), "network"},
		{errors.New("not leader for partition"), "broker"},
		{errors.New("unknown topic or partition"), "topic"},
		{errors.New("request timed out"), "timeout"},
		{errors.New("something else"), "other"},
	}
	for _, tc := range tests {
		name := "nil"
		if tc.err != nil {
			name = tc.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyKafkaError(tc.err))
		})
	}
}
