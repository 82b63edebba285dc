package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/drblury/hostbridge/internal/runtime/bridge"
	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
	"github.com/drblury/hostbridge/internal/runtime/store"
	"github.com/drblury/hostbridge/internal/runtime/validate"
)

// Receiver is one destination of a send-transaction request.
type Receiver struct {
	PaymentAddress string `json:"paymentAddress"`
	Amount         uint64 `json:"amount"`
}

// PaymentInfo is extra routing data attached to a single send.
type PaymentInfo struct {
	PaymentAddress string `json:"paymentAddress"`
	Amount         uint64 `json:"amount,omitempty"`
	Message        string `json:"message,omitempty"`
}

// SendTxRequest asks the host to build and broadcast a transaction.
type SendTxRequest struct {
	Receivers []Receiver
	Info      string
}

// TxResult is the success payload the host reports for SEND_TX.
type TxResult struct {
	TxID string `json:"txId"`
}

type sendTxPayload struct {
	PendingTxID string     `json:"pendingTxId"`
	Receivers   []Receiver `json:"receivers"`
	Info        string     `json:"info"`
}

type singleSendTxPayload struct {
	PendingTxID  string        `json:"pendingTxId"`
	ToAddress    string        `json:"toAddress"`
	Amount       uint64        `json:"amount"`
	Info         string        `json:"info"`
	PaymentInfos []PaymentInfo `json:"paymentInfos"`
}

// Client is the application-facing surface of the bridge.
type Client struct {
	bridge *bridge.Bridge
}

// NewClient wraps an assembled bridge.
func NewClient(b *bridge.Bridge) *Client {
	return &Client{bridge: b}
}

// Listener receives the raw value pushed on a channel.
type Listener func(value json.RawMessage)

func (c *Client) subscribe(ch bridge.Channel, fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	return c.bridge.Store.Subscribe(string(ch), store.Subscriber(fn))
}

func (c *Client) OnTokenInfoChange(fn Listener) func() {
	return c.subscribe(bridge.ChannelTokenInfo, fn)
}

func (c *Client) OnPaymentAddressChange(fn Listener) func() {
	return c.subscribe(bridge.ChannelPaymentAddress, fn)
}

func (c *Client) OnSupportedTokenListChange(fn Listener) func() {
	return c.subscribe(bridge.ChannelSupportedTokenList, fn)
}

func (c *Client) OnExtraInfoChange(fn Listener) func() {
	return c.subscribe(bridge.ChannelExtraData, fn)
}

func (c *Client) OnDeviceID(fn Listener) func() {
	return c.subscribe(bridge.ChannelDeviceID, fn)
}

func (c *Client) OnPublicKeyChange(fn Listener) func() {
	return c.subscribe(bridge.ChannelPublicKey, fn)
}

// OnRequestTxsChange is called with the whole outcome mapping every time a
// correlated request completes.
func (c *Client) OnRequestTxsChange(fn func(map[string]store.TxOutcome)) func() {
	if fn == nil {
		return func() {}
	}
	return c.subscribe(bridge.ChannelPendingTxResult, func(v json.RawMessage) {
		var mapping map[string]store.TxOutcome
		if err := jsoncodec.Unmarshal(v, &mapping); err != nil {
			return
		}
		fn(mapping)
	})
}

// Current returns the last value pushed on ch.
func (c *Client) Current(ch bridge.Channel) (json.RawMessage, bool) {
	return c.bridge.Store.GetCurrent(string(ch))
}

// RequestTxs returns a copy of every recorded request outcome.
func (c *Client) RequestTxs() map[string]store.TxOutcome {
	return c.bridge.Store.Outcomes(string(bridge.ChannelPendingTxResult))
}

// CheckCompatible reports whether the code runs inside a host that accepts
// commands.
func (c *Client) CheckCompatible() bool {
	return c.bridge.Dispatcher.Available()
}

// ChangePrivacyTokenByID selects the active token in the host wallet.
func (c *Client) ChangePrivacyTokenByID(ctx context.Context, tokenID string) error {
	if err := validate.Required("tokenID", tokenID); err != nil {
		return err
	}
	return c.bridge.Dispatcher.Send(ctx, bridge.CommandSelectPrivacyToken, map[string]string{"tokenID": tokenID})
}

// SetListSupportTokenByID restricts the tokens the host offers. An empty
// list is allowed; a nil list is not.
func (c *Client) SetListSupportTokenByID(ctx context.Context, tokenIDs []string) error {
	if tokenIDs == nil {
		return &validate.Error{Field: "tokenIds", Reason: "is required"}
	}
	return c.bridge.Dispatcher.Send(ctx, bridge.CommandSetSupportedTokenList, map[string][]string{"tokenIds": tokenIDs})
}

// RequestOpenCameraQRCode asks the host to open its QR scanner.
func (c *Client) RequestOpenCameraQRCode(ctx context.Context) error {
	return c.bridge.Dispatcher.Send(ctx, bridge.CommandRequestOpenCameraQR, struct{}{})
}

// RequestSendTx sends a transaction request and blocks until the host
// reports its outcome or ctx is done.
func (c *Client) RequestSendTx(ctx context.Context, req SendTxRequest) (json.RawMessage, error) {
	if err := validateReceivers(req.Receivers); err != nil {
		return nil, err
	}

	fut, err := c.bridge.Call(ctx, bridge.CommandSendTx, func(id string) any {
		return sendTxPayload{PendingTxID: id, Receivers: req.Receivers, Info: req.Info}
	})
	if err != nil {
		return nil, err
	}
	return fut.Wait(ctx)
}

// RequestSingleSendTx sends a one-receiver transaction request and returns
// its pending id as soon as the host accepted the command. The outcome is
// recorded later and reported through OnRequestTxsChange.
func (c *Client) RequestSingleSendTx(ctx context.Context, toAddress string, nanoAmount uint64, info string, paymentInfos []PaymentInfo) (string, error) {
	err := errors.Join(
		validate.PaymentAddress("toAddress", toAddress),
		validate.NanoAmount("nanoAmount", nanoAmount),
		validate.Each("paymentInfos", paymentInfos, func(field string, p PaymentInfo) error {
			return validate.PaymentAddress(field+".paymentAddress", p.PaymentAddress)
		}),
	)
	if err != nil {
		return "", err
	}
	if paymentInfos == nil {
		paymentInfos = []PaymentInfo{}
	}

	fut, err := c.bridge.Call(ctx, bridge.CommandSendTx, func(id string) any {
		return singleSendTxPayload{
			PendingTxID:  id,
			ToAddress:    toAddress,
			Amount:       nanoAmount,
			Info:         info,
			PaymentInfos: paymentInfos,
		}
	})
	if err != nil {
		return "", err
	}
	return fut.ID(), nil
}

// Transfer pays nanoAmount to toAddress and waits for the transaction id.
func (c *Client) Transfer(ctx context.Context, toAddress string, nanoAmount uint64, info string) (TxResult, error) {
	raw, err := c.RequestSendTx(ctx, SendTxRequest{
		Receivers: []Receiver{{PaymentAddress: toAddress, Amount: nanoAmount}},
		Info:      info,
	})
	if err != nil {
		return TxResult{}, err
	}

	var res TxResult
	if err := jsoncodec.Unmarshal(raw, &res); err != nil {
		return TxResult{}, fmt.Errorf("decode tx result: %w", err)
	}
	if res.TxID == "" {
		return TxResult{}, errors.New("host result carries no txId")
	}
	return res, nil
}

func validateReceivers(receivers []Receiver) error {
	if err := validate.NonEmpty("receivers", receivers); err != nil {
		return err
	}
	return validate.Each("receivers", receivers, func(field string, r Receiver) error {
		return errors.Join(
			validate.PaymentAddress(field+".paymentAddress", r.PaymentAddress),
			validate.NanoAmount(field+".amount", r.Amount),
		)
	})
}
