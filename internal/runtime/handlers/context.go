package handlers

import (
	"github.com/ThreeDotsLabs/watermill/message"

	loggingpkg "github.com/drblury/hostbridge/internal/runtime/logging"
	metadatapkg "github.com/drblury/hostbridge/internal/runtime/metadata"
)

// PushContext carries the metadata and logger of one inbound host push.
type PushContext struct {
	Metadata metadatapkg.Metadata
	Logger   loggingpkg.ServiceLogger
}

// NewPushContext captures msg metadata and scopes log to the push's channel
// and correlation id.
func NewPushContext(msg *message.Message, log loggingpkg.ServiceLogger) PushContext {
	md := metadatapkg.FromWatermill(msg.Metadata)
	return PushContext{
		Metadata: md,
		Logger: loggingpkg.OrNop(log).With(loggingpkg.LogFields{
			"message_uuid":   msg.UUID,
			"channel":        md.Channel(),
			"correlation_id": md.CorrelationID(),
		}),
	}
}

// CloneMetadata returns a copy of the current metadata map so handlers can safely
// mutate headers without touching the original map.
func (c PushContext) CloneMetadata() metadatapkg.Metadata {
	return c.Metadata.Clone()
}

// Get retrieves a metadata value by key.
func (c PushContext) Get(key string) string {
	return c.Metadata[key]
}

// Channel returns the channel the push was published for.
func (c PushContext) Channel() string {
	return c.Metadata.Channel()
}

// CorrelationID returns the correlation ID from metadata, if present.
func (c PushContext) CorrelationID() string {
	return c.Metadata.CorrelationID()
}
