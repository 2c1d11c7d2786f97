package bridge

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/telekom/linkctl/pkg/audit"
	"github.com/telekom/linkctl/pkg/linkctl/callback"
	"github.com/telekom/linkctl/pkg/linkctl/deliver"
	"github.com/telekom/linkctl/pkg/metrics"
	"github.com/telekom/linkctl/pkg/system"
	"github.com/telekom/linkctl/pkg/telemetry"
)

// Outcome is the result of handling one activation.
type Outcome string

const (
	OutcomeDelivered      Outcome = "delivered"
	OutcomeNoMatch        Outcome = "no_match"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeMissingToken   Outcome = "missing_token"
	OutcomeRejected       Outcome = "rejected"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
)

var auditTypes = map[Outcome]audit.EventType{
	OutcomeDelivered:      audit.EventTokenDelivered,
	OutcomeNoMatch:        audit.EventActivationIgnored,
	OutcomeMalformed:      audit.EventActivationMalformed,
	OutcomeMissingToken:   audit.EventTokenMissing,
	OutcomeRejected:       audit.EventActivationRejected,
	OutcomeDuplicate:      audit.EventTokenDuplicate,
	OutcomeDeliveryFailed: audit.EventDeliveryFailed,
}

// Emitter receives audit events. *audit.Recorder satisfies it.
type Emitter interface {
	Emit(event *audit.Event)
}

// Bridge turns raw activation URIs into delivered tokens.
type Bridge struct {
	extractor *callback.Extractor
	deliverer deliver.Deliverer
	dedup     *Deduper
	audit     Emitter
	log       *zap.SugaredLogger
}

type Option func(*Bridge)

// WithDeduper suppresses repeat deliveries of the same token.
func WithDeduper(d *Deduper) Option {
	return func(b *Bridge) {
		b.dedup = d
	}
}

func WithAudit(e Emitter) Option {
	return func(b *Bridge) {
		b.audit = e
	}
}

func New(extractor *callback.Extractor, deliverer deliver.Deliverer, log *zap.SugaredLogger, opts ...Option) *Bridge {
	b := &Bridge{
		extractor: extractor,
		deliverer: deliverer,
		log:       log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle processes one activation. It never returns an error; every failure
// is reported through the outcome, the log and the audit trail.
func (b *Bridge) Handle(ctx context.Context, raw string) Outcome {
	shape := b.extractor.Shape()
	ctx, span := telemetry.Tracer().Start(ctx, "activation.handle",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("linkctl.callback.scheme", shape.Scheme),
			attribute.String("linkctl.callback.host", shape.Host),
		),
	)
	defer span.End()

	outcome := b.handle(ctx, raw)
	span.SetAttributes(attribute.String("linkctl.outcome", string(outcome)))
	switch outcome {
	case OutcomeDelivered, OutcomeNoMatch, OutcomeDuplicate:
		span.SetStatus(codes.Ok, "")
	default:
		span.SetStatus(codes.Error, string(outcome))
	}
	return outcome
}

func (b *Bridge) handle(ctx context.Context, raw string) Outcome {
	token, err := b.extractor.Extract(raw)
	if err != nil {
		return b.rejectActivation(err)
	}

	shape := b.extractor.Shape()
	fields := system.ActivationFields(shape.Scheme, shape.Host)

	if b.dedup != nil && b.dedup.Seen(token) {
		b.log.Infow("Ignoring repeated oauth callback", fields...)
		return b.finish(OutcomeDuplicate, shape.Scheme, shape.Host, "token already delivered")
	}

	sink := b.deliverer.Name()
	if err := b.deliverer.Deliver(ctx, token); err != nil {
		if b.dedup != nil {
			b.dedup.Forget(token)
		}
		metrics.Deliveries.WithLabelValues(sink, "failure").Inc()
		b.log.Errorw("Failed to deliver oauth token", append(fields, "sink", sink, "error", err.Error())...)
		return b.finishSink(OutcomeDeliveryFailed, shape.Scheme, shape.Host, sink, err.Error())
	}
	metrics.Deliveries.WithLabelValues(sink, "success").Inc()
	b.log.Infow("Delivered oauth token", append(fields, "sink", sink)...)
	return b.finishSink(OutcomeDelivered, shape.Scheme, shape.Host, sink, "")
}

func (b *Bridge) rejectActivation(err error) Outcome {
	var extractErr *callback.ExtractError
	scheme, host := "", ""
	if errors.As(err, &extractErr) {
		scheme, host = extractErr.Scheme, extractErr.Host
	}
	fields := append(system.ActivationFields(scheme, host), "reason", err.Error())

	switch {
	case errors.Is(err, callback.ErrNoMatch):
		b.log.Debugw("Ignoring activation that is not an oauth callback", fields...)
		return b.finish(OutcomeNoMatch, scheme, host, "")
	case errors.Is(err, callback.ErrMissingToken):
		b.log.Errorw("OAuth callback carried no token", fields...)
		return b.finish(OutcomeMissingToken, scheme, host, callback.ErrMissingToken.Error())
	case errors.Is(err, callback.ErrRejected):
		b.log.Warnw("OAuth callback rejected", fields...)
		return b.finish(OutcomeRejected, scheme, host, callback.ErrRejected.Error())
	default:
		b.log.Warnw("Discarding malformed activation", fields...)
		return b.finish(OutcomeMalformed, scheme, host, callback.ErrMalformed.Error())
	}
}

func (b *Bridge) finish(outcome Outcome, scheme, host, reason string) Outcome {
	return b.finishSink(outcome, scheme, host, "", reason)
}

func (b *Bridge) finishSink(outcome Outcome, scheme, host, sink, reason string) Outcome {
	metrics.Activations.WithLabelValues(string(outcome)).Inc()
	if b.audit != nil {
		b.audit.Emit(&audit.Event{
			Type:   auditTypes[outcome],
			Scheme: scheme,
			Host:   host,
			Sink:   sink,
			Reason: reason,
		})
	}
	return outcome
}
