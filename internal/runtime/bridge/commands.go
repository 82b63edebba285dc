package bridge

// Command names an outbound instruction understood by the host application.
type Command string

const (
	CommandSelectPrivacyToken    Command = "SELECT_PRIVACY_TOKEN_BY_ID"
	CommandSetSupportedTokenList Command = "SET_LIST_SUPPORT_TOKEN_BY_ID"
	CommandSendTx                Command = "SEND_TX"
	CommandRequestOpenCameraQR   Command = "REQUEST_OPEN_CAMERA_QR_CODE"
)

var knownCommands = map[Command]struct{}{
	CommandSelectPrivacyToken:    {},
	CommandSetSupportedTokenList: {},
	CommandSendTx:                {},
	CommandRequestOpenCameraQR:   {},
}

// Valid reports whether c belongs to the known command set.
func (c Command) Valid() bool {
	_, ok := knownCommands[c]
	return ok
}

func (c Command) String() string { return string(c) }

// Channel names a category of inbound pushes from the host.
type Channel string

const (
	ChannelTokenInfo          Channel = "TOKEN_INFO"
	ChannelPaymentAddress     Channel = "PAYMENT_ADDRESS"
	ChannelDeviceID           Channel = "DEVICE_ID"
	ChannelPublicKey          Channel = "PUBLIC_KEY"
	ChannelSupportedTokenList Channel = "LIST_TOKEN"
	ChannelExtraData          Channel = "EXTRA_DATA"

	// ChannelPendingTxResult completes correlated requests instead of
	// overwriting a state slot.
	ChannelPendingTxResult Channel = "TX_PENDING_RESULT"
)

var stateChannels = map[Channel]struct{}{
	ChannelTokenInfo:          {},
	ChannelPaymentAddress:     {},
	ChannelDeviceID:           {},
	ChannelPublicKey:          {},
	ChannelSupportedTokenList: {},
	ChannelExtraData:          {},
}

// IsState reports whether pushes on c overwrite a state slot.
func (c Channel) IsState() bool {
	_, ok := stateChannels[c]
	return ok
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c.IsState() || c == ChannelPendingTxResult
}

func (c Channel) String() string { return string(c) }
