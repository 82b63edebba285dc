package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/hostbridge/internal/runtime/bridge"
	configpkg "github.com/drblury/hostbridge/internal/runtime/config"
	errspkg "github.com/drblury/hostbridge/internal/runtime/errors"
	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
	metadatapkg "github.com/drblury/hostbridge/internal/runtime/metadata"
	"github.com/drblury/hostbridge/internal/runtime/pending"
	"github.com/drblury/hostbridge/internal/runtime/sdk"
	transportpkg "github.com/drblury/hostbridge/internal/runtime/transport"
)

const testAddress = "12S5Lrs1XeQLbqN4ySyKtjAjd2d7sBP2tjFijzmp6avrrkQCNFMpkXm3FPzj2Wcu2ZNqJEmh9JriVuRErVwhuQnLmWSaggobEWsBEci"

// echoHost answers every SEND_TX with a successful result whose txId is
// derived from the pending id.
func echoHost(svc *Service, seen chan<- *message.Message) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		if seen != nil {
			seen <- msg
		}
		cmd, body, err := bridge.DecodeMessage(string(msg.Payload))
		if err != nil || cmd != bridge.CommandSendTx {
			return nil
		}
		var req bridge.PendingResult
		if err := jsoncodec.Unmarshal(body, &req); err != nil {
			return err
		}
		return svc.PublishPush(msg.Context(), bridge.ChannelPendingTxResult, map[string]any{
			"pendingTxId": req.PendingTxID,
			"data":        map[string]string{"txId": "tx-" + req.PendingTxID},
		})
	}
}

func TestNewServiceRequiresConfig(t *testing.T) {
	_, err := NewService(nil, newTestLogger(), context.Background(), ServiceDependencies{})
	if !errors.Is(err, errspkg.ErrConfigRequired) {
		t.Fatalf("expected ErrConfigRequired, got %v", err)
	}
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	conf := &configpkg.Config{CommandTopic: "same", PushTopic: "same"}
	_, err := NewService(conf, newTestLogger(), context.Background(), ServiceDependencies{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	assert.Contains(t, err.Error(), "must differ")
}

func TestNewServiceTransportFailure(t *testing.T) {
	boom := errors.New("boom")
	factory := transportpkg.FactoryFunc(func(context.Context, *configpkg.Config, watermill.LoggerAdapter) (transportpkg.Transport, error) {
		return transportpkg.Transport{}, boom
	})

	_, err := NewService(&configpkg.Config{}, nil, context.Background(), ServiceDependencies{TransportFactory: factory})
	assert.ErrorIs(t, err, boom)
}

func TestNewServiceUnknownTransport(t *testing.T) {
	_, err := NewService(&configpkg.Config{PubSubSystem: "kafka"}, nil, context.Background(), ServiceDependencies{})
	assert.Error(t, err)
}

func TestNewServiceAppliesDefaults(t *testing.T) {
	conf := &configpkg.Config{}
	svc := newTestService(t, conf, ServiceDependencies{})

	assert.Equal(t, configpkg.DefaultPushTopic, svc.Conf.PushTopic)
	assert.Empty(t, conf.PushTopic, "caller config must not be mutated")
	assert.True(t, svc.Client().CheckCompatible())
	assert.Equal(t, []HandlerInfo{{Name: inboundHandlerName, ConsumeQueue: configpkg.DefaultPushTopic}}, svc.Handlers())
}

func TestServiceRoundTrip(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := newTestService(t, &configpkg.Config{MetricsEnabled: true}, ServiceDependencies{MetricsRegisterer: reg})

	commands := make(chan *message.Message, 4)
	require.NoError(t, RegisterMessageHandler(svc, MessageHandlerRegistration{
		Name:         "test_host",
		ConsumeQueue: svc.Conf.CommandTopic,
		Handler:      echoHost(svc, commands),
	}))
	runService(t, svc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := svc.Client().Transfer(ctx, testAddress, 300, "payout")
	require.NoError(t, err)
	require.NotEmpty(t, res.TxID)

	msg := <-commands
	assert.Equal(t, string(bridge.CommandSendTx), msg.Metadata.Get(metadatapkg.KeyCommand))
	assert.Equal(t, "tx-"+msg.Metadata.Get(metadatapkg.KeyCorrelationID), res.TxID)

	assert.Eventually(t, func() bool {
		return len(svc.Client().RequestTxs()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, svc.Bridge().Registry.Len())

	sent, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, sent)
}

func TestServiceStatePushes(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	runService(t, svc)

	updates := make(chan json.RawMessage, 2)
	unsubscribe := svc.Client().OnPaymentAddressChange(func(v json.RawMessage) { updates <- v })
	defer unsubscribe()

	require.NoError(t, svc.PublishPush(context.Background(), bridge.ChannelPaymentAddress, testAddress))

	select {
	case v := <-updates:
		assert.Equal(t, `"`+testAddress+`"`, string(v))
	case <-time.After(5 * time.Second):
		t.Fatal("state push never reached the subscriber")
	}

	require.NoError(t, svc.PublishPush(context.Background(), bridge.Channel("NOT_A_CHANNEL"), 1))
	assert.Eventually(t, func() bool {
		return svc.Bridge().Router.Ignored() == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServiceCloseRejectsPending(t *testing.T) {
	host := &silentHost{}
	svc := newTestService(t, nil, ServiceDependencies{Host: host})

	errs := make(chan error, 1)
	go func() {
		_, err := svc.Client().RequestSendTx(context.Background(), sdk.SendTxRequest{
			Receivers: []sdk.Receiver{{PaymentAddress: testAddress, Amount: 1}},
		})
		errs <- err
	}()

	require.Eventually(t, func() bool {
		return svc.Bridge().Registry.Len() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, svc.Close())
	assert.ErrorIs(t, <-errs, errspkg.ErrRegistryClosed)
	assert.False(t, svc.Client().CheckCompatible())
	assert.NoError(t, svc.Close())
}

func TestServiceCloseWithoutStart(t *testing.T) {
	svc, err := NewService(&configpkg.Config{}, newTestLogger(), context.Background(), ServiceDependencies{
		MetricsRegisterer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- svc.Close() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on a router that never ran")
	}
	assert.NoError(t, svc.Close())
}

func TestServiceCloseAfterStart(t *testing.T) {
	svc, err := NewService(&configpkg.Config{}, newTestLogger(), context.Background(), ServiceDependencies{
		MetricsRegisterer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()
	<-svc.Running()

	require.NoError(t, svc.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Close")
	}
}

func TestServiceRequestTimeout(t *testing.T) {
	svc := newTestService(t, &configpkg.Config{RequestTimeout: 30 * time.Millisecond}, ServiceDependencies{Host: &silentHost{}})

	_, err := svc.Client().RequestSendTx(context.Background(), sdk.SendTxRequest{
		Receivers: []sdk.Receiver{{PaymentAddress: testAddress, Amount: 1}},
	})
	assert.ErrorIs(t, err, errspkg.ErrRequestTimeout)
	assert.Equal(t, 0, svc.Bridge().Registry.Len())
}

func TestServiceHostFailurePush(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	require.NoError(t, RegisterMessageHandler(svc, MessageHandlerRegistration{
		Name:         "rejecting_host",
		ConsumeQueue: svc.Conf.CommandTopic,
		Handler: func(msg *message.Message) error {
			return svc.PublishPush(msg.Context(), bridge.ChannelPendingTxResult, map[string]any{
				"pendingTxId": msg.Metadata.Get(metadatapkg.KeyCorrelationID),
				"error":       map[string]string{"code": "NOT_ENOUGH_COIN"},
			})
		},
	}))
	runService(t, svc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := svc.Client().Transfer(ctx, testAddress, 1, "")
	var hostErr *pending.HostError
	require.ErrorAs(t, err, &hostErr)
	assert.JSONEq(t, `{"code":"NOT_ENOUGH_COIN"}`, hostErr.Message)
}

func TestServiceMetricsCountCommands(t *testing.T) {
	reg := prometheus.NewRegistry()
	host := &silentHost{}
	svc := newTestService(t, &configpkg.Config{MetricsEnabled: true}, ServiceDependencies{MetricsRegisterer: reg, Host: host})

	require.NoError(t, svc.Client().RequestOpenCameraQRCode(context.Background()))
	require.Len(t, host.Sent(), 1)

	count, err := testutil.GatherAndCount(reg, "bridge_commands_sent_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
