// Package hostsim plays the host application in-process. It consumes the
// command topic, decodes "<COMMAND>|<json>" messages and answers through the
// push topic the way a wallet host would.
package hostsim

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"

	runtimepkg "github.com/drblury/hostbridge/internal/runtime"
	"github.com/drblury/hostbridge/internal/runtime/bridge"
	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/hostbridge/internal/runtime/logging"
	metadatapkg "github.com/drblury/hostbridge/internal/runtime/metadata"
)

// HandlerName is the router handler name used by Register.
const HandlerName = "host_simulator"

// Received is one command the simulator consumed.
type Received struct {
	Command bridge.Command
	Payload json.RawMessage
}

// State is the initial state a host pushes when the page loads.
type State struct {
	TokenInfo       any
	PaymentAddress  string
	DeviceID        string
	PublicKey       string
	SupportedTokens []string
	ExtraData       any
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithLogger sets the simulator logger.
func WithLogger(log loggingpkg.ServiceLogger) Option {
	return func(s *Simulator) { s.logger = loggingpkg.OrNop(log) }
}

// WithTxIDSource replaces the generator for successful transaction ids.
func WithTxIDSource(source func() string) Option {
	return func(s *Simulator) {
		if source != nil {
			s.newTxID = source
		}
	}
}

// WithFailure makes every SEND_TX fail with msg.
func WithFailure(msg string) Option {
	return func(s *Simulator) { s.failure = msg }
}

// WithSilence makes the simulator swallow SEND_TX without answering.
func WithSilence() Option {
	return func(s *Simulator) { s.silent = true }
}

// Simulator answers bridge commands.
type Simulator struct {
	publisher message.Publisher
	pushTopic string
	logger    loggingpkg.ServiceLogger
	newTxID   func() string

	mu       sync.Mutex
	failure  string
	silent   bool
	received []Received
}

// New creates a simulator publishing its pushes on pushTopic.
func New(publisher message.Publisher, pushTopic string, opts ...Option) *Simulator {
	var counter atomic.Uint64
	s := &Simulator{
		publisher: publisher,
		pushTopic: pushTopic,
		logger:    loggingpkg.NopLogger(),
		newTxID: func() string {
			return fmt.Sprintf("sim-tx-%d", counter.Add(1))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach creates a simulator bound to svc's transport and registers it on
// svc's router.
func Attach(svc *runtimepkg.Service, opts ...Option) (*Simulator, error) {
	opts = append([]Option{WithLogger(svc.Logger.With(loggingpkg.LogFields{"component": HandlerName}))}, opts...)
	s := New(svc.Publisher(), svc.Conf.PushTopic, opts...)
	if err := s.Register(svc); err != nil {
		return nil, err
	}
	return s, nil
}

// Register consumes svc's command topic with this simulator.
func (s *Simulator) Register(svc *runtimepkg.Service) error {
	return runtimepkg.RegisterMessageHandler(svc, runtimepkg.MessageHandlerRegistration{
		Name:         HandlerName,
		ConsumeQueue: svc.Conf.CommandTopic,
		Handler:      s.Handle,
	})
}

// SetFailure switches SEND_TX answers to failures with msg. An empty msg
// restores successful answers.
func (s *Simulator) SetFailure(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = msg
}

// Received returns the commands consumed so far, in arrival order.
func (s *Simulator) Received() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Received(nil), s.received...)
}

// Handle consumes one command message. Malformed commands are logged and
// acknowledged: a real host drops them too.
func (s *Simulator) Handle(msg *message.Message) error {
	cmd, payload, err := bridge.DecodeMessage(string(msg.Payload))
	if err != nil {
		s.logger.Error("Dropping malformed command", err, loggingpkg.LogFields{"message_uuid": msg.UUID})
		return nil
	}

	s.mu.Lock()
	s.received = append(s.received, Received{Command: cmd, Payload: append(json.RawMessage(nil), payload...)})
	failure, silent := s.failure, s.silent
	s.mu.Unlock()

	ctx := msg.Context()
	switch cmd {
	case bridge.CommandSendTx:
		if silent {
			return nil
		}
		return s.answerSendTx(ctx, payload, failure)
	case bridge.CommandSelectPrivacyToken:
		var req struct {
			TokenID string `json:"tokenID"`
		}
		if err := jsoncodec.Unmarshal(payload, &req); err != nil {
			return nil
		}
		return s.Push(ctx, bridge.ChannelTokenInfo, map[string]string{"tokenId": req.TokenID})
	case bridge.CommandSetSupportedTokenList:
		var req struct {
			TokenIDs []string `json:"tokenIds"`
		}
		if err := jsoncodec.Unmarshal(payload, &req); err != nil {
			return nil
		}
		return s.Push(ctx, bridge.ChannelSupportedTokenList, req.TokenIDs)
	default:
		s.logger.Debug("Command needs no answer", loggingpkg.LogFields{"command": cmd.String()})
		return nil
	}
}

func (s *Simulator) answerSendTx(ctx context.Context, payload []byte, failure string) error {
	var req struct {
		PendingTxID string `json:"pendingTxId"`
	}
	if err := jsoncodec.Unmarshal(payload, &req); err != nil || req.PendingTxID == "" {
		s.logger.Info("SEND_TX without pendingTxId", loggingpkg.LogFields{"payload": string(payload)})
		return nil
	}

	result := bridge.PendingResult{PendingTxID: req.PendingTxID}
	var err error
	if failure != "" {
		result.Error, err = jsoncodec.Marshal(failure)
	} else {
		result.Data, err = jsoncodec.Marshal(map[string]string{"txId": s.newTxID()})
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	md := metadatapkg.New(metadatapkg.KeyCorrelationID, req.PendingTxID)
	return runtimepkg.PublishPush(ctx, s.publisher, s.pushTopic, bridge.ChannelPendingTxResult, result, md)
}

// Push publishes value on channel.
func (s *Simulator) Push(ctx context.Context, channel bridge.Channel, value any) error {
	return runtimepkg.PublishPush(ctx, s.publisher, s.pushTopic, channel, value, nil)
}

// PushState publishes every non-empty field of st on its channel.
func (s *Simulator) PushState(ctx context.Context, st State) error {
	pushes := []struct {
		channel bridge.Channel
		value   any
		set     bool
	}{
		{bridge.ChannelTokenInfo, st.TokenInfo, st.TokenInfo != nil},
		{bridge.ChannelPaymentAddress, st.PaymentAddress, st.PaymentAddress != ""},
		{bridge.ChannelDeviceID, st.DeviceID, st.DeviceID != ""},
		{bridge.ChannelPublicKey, st.PublicKey, st.PublicKey != ""},
		{bridge.ChannelSupportedTokenList, st.SupportedTokens, st.SupportedTokens != nil},
		{bridge.ChannelExtraData, st.ExtraData, st.ExtraData != nil},
	}
	for _, p := range pushes {
		if !p.set {
			continue
		}
		if err := s.Push(ctx, p.channel, p.value); err != nil {
			return fmt.Errorf("push %s: %w", p.channel, err)
		}
	}
	return nil
}
