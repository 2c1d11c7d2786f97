/*
Copyright 2026.

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
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telekom/linkctl/pkg/metrics"
)

// Recorder stamps audit events and hands them to a sink from a background
// worker. Emit never blocks the activation path.
type Recorder struct {
	sink   Sink
	queue  chan *Event
	logger *zap.Logger
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	processed atomic.Int64
	dropped   atomic.Int64

	config RecorderConfig
}

// RecorderConfig configures the Recorder.
type RecorderConfig struct {
	// QueueSize is the size of the async event queue.
	// Default: 256
	QueueSize int

	// WriteTimeout is the timeout for writing to the sink.
	// Default: 5s
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the defaults used by the CLI.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		QueueSize:    256,
		WriteTimeout: 5 * time.Second,
	}
}

// NewRecorder creates a Recorder and starts its worker.
func NewRecorder(sink Sink, cfg RecorderConfig, logger *zap.Logger) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		sink:   sink,
		queue:  make(chan *Event, cfg.QueueSize),
		logger: logger.Named("audit-recorder"),
		config: cfg,
	}
	r.wg.Add(1)
	go r.processQueue()
	return r
}

// Emit queues an event. If the queue is full the event is dropped and counted.
func (r *Recorder) Emit(event *Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}

	stamp(event)

	select {
	case r.queue <- event:
	default:
		r.dropped.Add(1)
		metrics.AuditSinkErrors.WithLabelValues(r.sink.Name(), "queue_full").Inc()
		r.logger.Warn("audit queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
}

func stamp(event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = SeverityForEventType(event.Type)
	}
}

func (r *Recorder) processQueue() {
	defer r.wg.Done()

	for event := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
		if err := r.sink.Write(ctx, event); err != nil {
			r.logger.Error("failed to write audit event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		} else {
			r.processed.Add(1)
		}
		cancel()
	}
}

// Close drains the queue and closes the sink.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()

	// Dropped events are gone, but the sink still learns how many.
	if dropped := r.dropped.Load(); dropped > 0 {
		r.writeDropped(dropped)
	}

	r.logger.Info("audit recorder stopped",
		zap.Int64("processed", r.processed.Load()),
		zap.Int64("dropped", r.dropped.Load()))

	return r.sink.Close()
}

func (r *Recorder) writeDropped(dropped int64) {
	event := &Event{
		Type:   EventAuditDropped,
		Reason: fmt.Sprintf("%d audit events dropped: queue full", dropped),
	}
	stamp(event)
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()
	if err := r.sink.Write(ctx, event); err != nil {
		r.logger.Error("failed to write audit drop summary",
			zap.Int64("dropped", dropped),
			zap.Error(err))
	}
}

// Stats returns processed and dropped event counts.
func (r *Recorder) Stats() (processed, dropped int64) {
	return r.processed.Load(), r.dropped.Load()
}
