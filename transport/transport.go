// Package transport defines the link between the bridge and the host side.
// A transport is a Watermill publisher/subscriber pair; implementations live
// in sub-packages and register themselves with the transport registry.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a builder.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close shuts down both halves, returning the first error.
func (t Transport) Close() error {
	var err error
	if t.Publisher != nil {
		err = t.Publisher.Close()
	}
	if t.Subscriber != nil && any(t.Subscriber) != any(t.Publisher) {
		if serr := t.Subscriber.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// Builder creates a transport from config.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the values transports read. Keeping it an interface lets
// transports avoid importing the full config package.
type Config interface {
	// GetPubSubSystem returns the transport name.
	GetPubSubSystem() string

	// GetChannelBufferSize sizes each subscriber's output channel.
	GetChannelBufferSize() int64

	// GetBlockPublishUntilAck makes Publish wait until every subscriber
	// acknowledged the message.
	GetBlockPublishUntilAck() bool
}

// CapabilitiesProvider is implemented by transports that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
