package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/hostbridge/internal/runtime/logging"
	"github.com/drblury/hostbridge/internal/runtime/pending"
	"github.com/drblury/hostbridge/internal/runtime/store"
)

// PendingResult is the payload of a TX_PENDING_RESULT push. Data and Error
// are kept raw because their shape is defined by the host.
type PendingResult struct {
	PendingTxID string          `json:"pendingTxId"`
	Data        json.RawMessage `json:"data,omitempty"`
	Error       json.RawMessage `json:"error,omitempty"`
}

// RouterOption customises a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger used for ignored pushes and host failures.
func WithRouterLogger(log loggingpkg.ServiceLogger) RouterOption {
	return func(r *Router) { r.logger = loggingpkg.OrNop(log) }
}

// WithRouterMetrics records ignored pushes and completions on m.
func WithRouterMetrics(m *Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// Router is the single entry point for host pushes. State channels overwrite
// their slot in the store; the pending-result channel completes exactly one
// registered request. It never registers requests itself.
type Router struct {
	registry *pending.Registry
	store    *store.Store
	logger   loggingpkg.ServiceLogger
	metrics  *Metrics
	ignored  atomic.Uint64
}

// NewRouter wires a router to the registry it completes and the store it feeds.
func NewRouter(registry *pending.Registry, st *store.Store, opts ...RouterOption) *Router {
	r := &Router{
		registry: registry,
		store:    st,
		logger:   loggingpkg.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ignored returns how many pushes were dropped since the router was created.
func (r *Router) Ignored() uint64 {
	return r.ignored.Load()
}

// OnInbound handles one push from the host. Unknown channels, stale ids and
// malformed payloads are dropped and counted, never returned as errors.
func (r *Router) OnInbound(_ context.Context, channel Channel, data []byte) {
	switch {
	case channel.IsState():
		if !jsoncodec.Valid(data) {
			r.ignore(ReasonMalformed, channel, "")
			return
		}
		r.store.Set(string(channel), append(json.RawMessage(nil), data...))
	case channel == ChannelPendingTxResult:
		r.onPendingResult(data)
	default:
		r.ignore(ReasonUnknownChannel, channel, "")
	}
}

func (r *Router) onPendingResult(data []byte) {
	var res PendingResult
	if err := jsoncodec.Unmarshal(data, &res); err != nil {
		r.ignore(ReasonMalformed, ChannelPendingTxResult, "")
		return
	}
	if res.PendingTxID == "" {
		r.ignore(ReasonMissingID, ChannelPendingTxResult, "")
		return
	}
	if !r.registry.HasPending(res.PendingTxID) {
		r.ignore(ReasonUnknownID, ChannelPendingTxResult, res.PendingTxID)
		return
	}

	var (
		outcome  pending.Outcome
		recorded store.TxOutcome
		label    string
	)
	switch {
	case present(res.Data):
		outcome = pending.Success(res.Data)
		recorded = store.Succeeded(res.Data)
		label = "success"
	case present(res.Error):
		msg := NormalizeError(res.Error)
		outcome = pending.Failure(&pending.HostError{Message: msg})
		recorded = store.Failed(msg)
		label = "failure"
		r.logger.Info("host rejected request", loggingpkg.LogFields{
			"pendingTxId": res.PendingTxID,
			"error":       msg,
		})
	default:
		msg := "empty pending result"
		outcome = pending.Failure(&pending.HostError{Message: msg})
		recorded = store.Failed(msg)
		label = "failure"
	}

	// The outcome is recorded before the waiting caller wakes up, so a
	// resolved Future always finds its own entry in the outcomes mapping.
	completed := r.registry.CompleteAfter(res.PendingTxID, outcome, func() {
		r.metrics.requestCompleted(label)
		if err := r.store.RecordOutcome(string(ChannelPendingTxResult), res.PendingTxID, recorded); err != nil {
			r.logger.Error("record outcome failed", err, loggingpkg.LogFields{"pendingTxId": res.PendingTxID})
		}
	})
	if !completed {
		// Completed concurrently by a timeout or Close.
		r.ignore(ReasonUnknownID, ChannelPendingTxResult, res.PendingTxID)
	}
}

func (r *Router) ignore(reason string, channel Channel, id string) {
	r.ignored.Add(1)
	r.metrics.pushIgnored(reason)
	fields := loggingpkg.LogFields{"reason": reason, "channel": string(channel)}
	if id != "" {
		fields["pendingTxId"] = id
	}
	r.logger.Debug("ignored push", fields)
}

// NormalizeError turns a host-reported error into a string: JSON strings are
// unquoted, any other value becomes its compact JSON text.
func NormalizeError(raw json.RawMessage) string {
	var s string
	if err := jsoncodec.Unmarshal(raw, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err == nil {
		return compact.String()
	}
	return string(bytes.TrimSpace(raw))
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
