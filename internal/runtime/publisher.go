package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/hostbridge/internal/runtime/bridge"
	errspkg "github.com/drblury/hostbridge/internal/runtime/errors"
	idspkg "github.com/drblury/hostbridge/internal/runtime/ids"
	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
	metadatapkg "github.com/drblury/hostbridge/internal/runtime/metadata"
)

// NewCommandMessage wraps an encoded "<COMMAND>|<json>" string into a
// Watermill message. The command name and, for correlated commands, the
// pending id are copied into metadata so the host side can route without
// parsing.
func NewCommandMessage(wire string) (*message.Message, error) {
	cmd, payload, err := bridge.DecodeMessage(wire)
	if err != nil {
		return nil, err
	}

	md := metadatapkg.New(metadatapkg.KeyCommand, cmd.String())
	var correlated struct {
		PendingTxID string `json:"pendingTxId"`
	}
	if err := jsoncodec.Unmarshal(payload, &correlated); err == nil && correlated.PendingTxID != "" {
		md[metadatapkg.KeyCorrelationID] = correlated.PendingTxID
	}

	msg := message.NewMessage(idspkg.CreateULID(), []byte(wire))
	msg.Metadata = metadatapkg.ToWatermill(md)
	return msg, nil
}

// NewPushMessage builds the message a host publishes for one channel push.
func NewPushMessage(channel bridge.Channel, data []byte, md metadatapkg.Metadata) (*message.Message, error) {
	if channel == "" {
		return nil, fmt.Errorf("%w: empty channel", errspkg.ErrUnknownChannel)
	}
	if len(data) == 0 {
		return nil, errspkg.ErrPayloadRequired
	}

	msg := message.NewMessage(idspkg.CreateULID(), data)
	msg.Metadata = metadatapkg.ToWatermill(md.With(metadatapkg.KeyChannel, channel.String()))
	return msg, nil
}

// PublishPush marshals value and publishes it on topic as a push for channel.
func PublishPush(ctx context.Context, publisher message.Publisher, topic string, channel bridge.Channel, value any, md metadatapkg.Metadata) error {
	if publisher == nil {
		return errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return errspkg.ErrTopicRequired
	}

	data, err := jsoncodec.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal push: %w", err)
	}

	msg, err := NewPushMessage(channel, data, md)
	if err != nil {
		return err
	}

	if ctx != nil {
		msg.SetContext(ctx)
	}

	return publisher.Publish(topic, msg)
}

// PublishPush lets an in-process host deliver a push through the Service
// transport.
func (s *Service) PublishPush(ctx context.Context, channel bridge.Channel, value any) error {
	if s == nil {
		return errors.New("bridge service is nil")
	}
	return PublishPush(ctx, s.publisher, s.Conf.PushTopic, channel, value, nil)
}

// publisherHost is the default host link: every command becomes a message on
// the command topic.
type publisherHost struct {
	publisher message.Publisher
	topic     string
}

func (h *publisherHost) PostMessage(ctx context.Context, wire string) error {
	if h.publisher == nil {
		return errspkg.ErrPublisherRequired
	}
	msg, err := NewCommandMessage(wire)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	return h.publisher.Publish(h.topic, msg)
}
