package bridge

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errspkg "github.com/drblury/hostbridge/internal/runtime/errors"
	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/hostbridge/internal/runtime/logging"
)

const tracerName = "github.com/drblury/hostbridge/bridge"

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHost attaches the host transport at construction time.
func WithHost(host HostTransport) DispatcherOption {
	return func(d *Dispatcher) { d.host = host }
}

// WithDispatcherLogger sets the logger used for sent commands.
func WithDispatcherLogger(log loggingpkg.ServiceLogger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = loggingpkg.OrNop(log) }
}

// WithDispatcherMetrics records sent commands on m.
func WithDispatcherMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithTracer overrides the OpenTelemetry tracer used for send spans.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// Dispatcher serializes commands and hands them to the host transport.
// Sending is fire-and-forget: a nil error means the host accepted the
// message, not that it acted on it.
type Dispatcher struct {
	mu      sync.RWMutex
	host    HostTransport
	logger  loggingpkg.ServiceLogger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewDispatcher creates a dispatcher. Without WithHost it starts detached and
// every Send fails with ErrTransportUnavailable until Attach is called.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		logger: loggingpkg.NopLogger(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Attach installs the host transport.
func (d *Dispatcher) Attach(host HostTransport) {
	d.mu.Lock()
	d.host = host
	d.mu.Unlock()
}

// Detach removes the host transport, as when running outside the host shell.
func (d *Dispatcher) Detach() {
	d.Attach(nil)
}

// Available reports whether a host transport is attached.
func (d *Dispatcher) Available() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.host != nil
}

// Send validates cmd and payload, encodes them and posts the result. Every
// precondition is checked before the transport is touched.
func (d *Dispatcher) Send(ctx context.Context, cmd Command, payload any) error {
	msg, host, err := d.prepare(cmd, payload)
	if err != nil {
		return err
	}

	ctx, span := d.tracer.Start(ctx, "bridge.send",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("bridge.command", string(cmd))),
	)
	defer span.End()

	if err := host.PostMessage(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error("[SEND COMMAND] failed", err, loggingpkg.LogFields{"command": string(cmd)})
		return fmt.Errorf("post %s: %w", cmd, err)
	}

	d.metrics.commandSent(cmd)
	d.logger.Debug("[SEND COMMAND]", loggingpkg.LogFields{
		"command": string(cmd),
		"payload": msg[len(cmd)+len(wireSeparator):],
	})
	return nil
}

// Ready checks the payload-independent preconditions of cmd.
func (d *Dispatcher) Ready(cmd Command) error {
	if !cmd.Valid() {
		return fmt.Errorf("%w: %q", errspkg.ErrUnknownCommand, cmd)
	}
	if !d.Available() {
		return errspkg.ErrTransportUnavailable
	}
	return nil
}

func (d *Dispatcher) prepare(cmd Command, payload any) (string, HostTransport, error) {
	if !cmd.Valid() {
		return "", nil, fmt.Errorf("%w: %q", errspkg.ErrUnknownCommand, cmd)
	}
	if payload == nil {
		return "", nil, fmt.Errorf("%w: %s", errspkg.ErrPayloadRequired, cmd)
	}

	body, err := jsoncodec.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s payload: %w", cmd, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return "", nil, fmt.Errorf("%w: %s payload must be a JSON object", errspkg.ErrPayloadRequired, cmd)
	}

	d.mu.RLock()
	host := d.host
	d.mu.RUnlock()
	if host == nil {
		return "", nil, errspkg.ErrTransportUnavailable
	}

	return string(cmd) + wireSeparator + string(body), host, nil
}
