package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/hostbridge/internal/runtime/errors"
)

type recordingHost struct {
	messages []string
	err      error
}

func (h *recordingHost) PostMessage(_ context.Context, msg string) error {
	if h.err != nil {
		return h.err
	}
	h.messages = append(h.messages, msg)
	return nil
}

func TestSendEncodesCommandTaggedString(t *testing.T) {
	host := &recordingHost{}
	d := NewDispatcher(WithHost(host))

	err := d.Send(context.Background(), CommandSelectPrivacyToken, map[string]string{"tokenID": "abc"})
	require.NoError(t, err)

	require.Len(t, host.messages, 1)
	assert.Equal(t, `SELECT_PRIVACY_TOKEN_BY_ID|{"tokenID":"abc"}`, host.messages[0])
}

func TestSendPreconditionsFailBeforePosting(t *testing.T) {
	host := &recordingHost{}
	d := NewDispatcher(WithHost(host))
	ctx := context.Background()

	assert.ErrorIs(t, d.Send(ctx, Command(""), map[string]any{}), errspkg.ErrUnknownCommand)
	assert.ErrorIs(t, d.Send(ctx, Command("FORMAT_DISK"), map[string]any{}), errspkg.ErrUnknownCommand)
	assert.ErrorIs(t, d.Send(ctx, CommandSendTx, nil), errspkg.ErrPayloadRequired)
	assert.ErrorIs(t, d.Send(ctx, CommandSendTx, []int{1, 2}), errspkg.ErrPayloadRequired)
	assert.ErrorIs(t, d.Send(ctx, CommandSendTx, "text"), errspkg.ErrPayloadRequired)

	var nilMap map[string]any
	assert.ErrorIs(t, d.Send(ctx, CommandSendTx, nilMap), errspkg.ErrPayloadRequired)

	assert.Empty(t, host.messages)
}

func TestSendWithoutHostIsTransportUnavailable(t *testing.T) {
	d := NewDispatcher()
	assert.False(t, d.Available())
	assert.ErrorIs(t, d.Send(context.Background(), CommandRequestOpenCameraQR, struct{}{}), errspkg.ErrTransportUnavailable)
	assert.ErrorIs(t, d.Ready(CommandRequestOpenCameraQR), errspkg.ErrTransportUnavailable)

	host := &recordingHost{}
	d.Attach(host)
	assert.True(t, d.Available())
	require.NoError(t, d.Send(context.Background(), CommandRequestOpenCameraQR, struct{}{}))
	assert.Equal(t, []string{"REQUEST_OPEN_CAMERA_QR_CODE|{}"}, host.messages)

	d.Detach()
	assert.ErrorIs(t, d.Send(context.Background(), CommandRequestOpenCameraQR, struct{}{}), errspkg.ErrTransportUnavailable)
}

func TestSendWrapsHostFailure(t *testing.T) {
	boom := errors.New("bridge gone")
	d := NewDispatcher(WithHost(&recordingHost{err: boom}))

	err := d.Send(context.Background(), CommandSendTx, map[string]any{"pendingTxId": "x"})
	assert.ErrorIs(t, err, boom)
}

func TestSendCountsCommands(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	d := NewDispatcher(WithHost(FuncHost(func(context.Context, string) error { return nil })), WithDispatcherMetrics(m))
	require.NoError(t, d.Send(context.Background(), CommandSendTx, map[string]any{"pendingTxId": "1"}))
	require.NoError(t, d.Send(context.Background(), CommandSendTx, map[string]any{"pendingTxId": "2"}))
	_ = d.Send(context.Background(), Command("NOPE"), map[string]any{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commandsSent.WithLabelValues("SEND_TX")))
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	second.commandSent(CommandSendTx)
	assert.Equal(t, 1.0, testutil.ToFloat64(first.commandsSent.WithLabelValues("SEND_TX")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.commandSent(CommandSendTx)
		nilMetrics.pushIgnored(ReasonUnknownID)
		nilMetrics.SetPending(3)
	})
}

func TestEncodeDecodeMessage(t *testing.T) {
	msg, err := EncodeMessage(CommandSendTx, map[string]any{"pendingTxId": "p1", "info": "a|b"})
	require.NoError(t, err)

	cmd, body, err := DecodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, CommandSendTx, cmd)
	assert.JSONEq(t, `{"pendingTxId":"p1","info":"a|b"}`, string(body))

	_, _, err = DecodeMessage("no separator")
	assert.Error(t, err)
	_, _, err = DecodeMessage("SEND_TX|{broken")
	assert.Error(t, err)
}

func TestCommandAndChannelSets(t *testing.T) {
	assert.True(t, CommandSetSupportedTokenList.Valid())
	assert.False(t, Command("").Valid())

	for _, ch := range []Channel{ChannelTokenInfo, ChannelPaymentAddress, ChannelDeviceID, ChannelPublicKey, ChannelSupportedTokenList, ChannelExtraData} {
		assert.True(t, ch.IsState(), ch)
		assert.True(t, ch.Valid(), ch)
	}
	assert.False(t, ChannelPendingTxResult.IsState())
	assert.True(t, ChannelPendingTxResult.Valid())
	assert.False(t, Channel("NEW_THING").Valid())
}
