package hostbridge

import (
	runtimepkg "github.com/drblury/hostbridge/internal/runtime"
	"github.com/drblury/hostbridge/internal/runtime/bridge"
	configpkg "github.com/drblury/hostbridge/internal/runtime/config"
	errspkg "github.com/drblury/hostbridge/internal/runtime/errors"
	idspkg "github.com/drblury/hostbridge/internal/runtime/ids"
	jsoncodec "github.com/drblury/hostbridge/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/hostbridge/internal/runtime/logging"
	metadatapkg "github.com/drblury/hostbridge/internal/runtime/metadata"
	"github.com/drblury/hostbridge/internal/runtime/pending"
	"github.com/drblury/hostbridge/internal/runtime/sdk"
	"github.com/drblury/hostbridge/internal/runtime/store"
	transportpkg "github.com/drblury/hostbridge/internal/runtime/transport"
	"github.com/drblury/hostbridge/internal/runtime/validate"
	newtransport "github.com/drblury/hostbridge/transport"
)

type (
	Config              = configpkg.Config
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies
	Diagnostics         = runtimepkg.Diagnostics
	Transport           = transportpkg.Transport
	TransportFactory    = transportpkg.Factory

	MessageHandlerRegistration = runtimepkg.MessageHandlerRegistration
	HandlerInfo                = runtimepkg.HandlerInfo

	MiddlewareBuilder      = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration = runtimepkg.MiddlewareRegistration

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	// Bridge components
	Bridge        = bridge.Bridge
	Command       = bridge.Command
	Channel       = bridge.Channel
	HostTransport = bridge.HostTransport
	FuncHost      = bridge.FuncHost
	Dispatcher    = bridge.Dispatcher
	Router        = bridge.Router
	PendingResult = bridge.PendingResult
	Metrics       = bridge.Metrics

	// Correlation
	Registry  = pending.Registry
	Future    = pending.Future
	Outcome   = pending.Outcome
	HostError = pending.HostError
	Allocator = idspkg.Allocator

	// State
	Store      = store.Store
	TxOutcome  = store.TxOutcome
	Subscriber = store.Subscriber

	// Application surface
	Client        = sdk.Client
	Listener      = sdk.Listener
	Receiver      = sdk.Receiver
	PaymentInfo   = sdk.PaymentInfo
	SendTxRequest = sdk.SendTxRequest
	TxResult      = sdk.TxResult

	ValidationError = validate.Error

	// Transport capabilities
	Capabilities = transportpkg.Capabilities

	// Modular transport types
	TransportBuilder  = newtransport.Builder
	TransportConfig   = newtransport.Config
	TransportRegistry = newtransport.Registry
)

// Commands the host understands.
const (
	CommandSelectPrivacyToken    = bridge.CommandSelectPrivacyToken
	CommandSetSupportedTokenList = bridge.CommandSetSupportedTokenList
	CommandSendTx                = bridge.CommandSendTx
	CommandRequestOpenCameraQR   = bridge.CommandRequestOpenCameraQR
)

// Channels the host pushes on.
const (
	ChannelTokenInfo          = bridge.ChannelTokenInfo
	ChannelPaymentAddress     = bridge.ChannelPaymentAddress
	ChannelDeviceID           = bridge.ChannelDeviceID
	ChannelPublicKey          = bridge.ChannelPublicKey
	ChannelSupportedTokenList = bridge.ChannelSupportedTokenList
	ChannelExtraData          = bridge.ChannelExtraData
	ChannelPendingTxResult    = bridge.ChannelPendingTxResult
)

// Metadata keys carried on bridge messages.
const (
	MetadataKeyChannel       = metadatapkg.KeyChannel
	MetadataKeyCommand       = metadatapkg.KeyCommand
	MetadataKeyCorrelationID = metadatapkg.KeyCorrelationID
)

var (
	NewService     = runtimepkg.NewService
	ValidateConfig = configpkg.ValidateConfig
	LoadConfig     = configpkg.Load
	ParseConfig    = configpkg.Parse

	RegisterMessageHandler = runtimepkg.RegisterMessageHandler
	PublishPush            = runtimepkg.PublishPush
	NewCommandMessage      = runtimepkg.NewCommandMessage
	NewPushMessage         = runtimepkg.NewPushMessage

	DefaultMiddlewares      = runtimepkg.DefaultMiddlewares
	CorrelationIDMiddleware = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = runtimepkg.LogMessagesMiddleware
	TracerMiddleware        = runtimepkg.TracerMiddleware
	MetricsMiddleware       = runtimepkg.MetricsMiddleware
	RecovererMiddleware     = runtimepkg.RecovererMiddleware

	EncodeMessage  = bridge.EncodeMessage
	DecodeMessage  = bridge.DecodeMessage
	NormalizeError = bridge.NormalizeError

	// Transport capabilities
	GetCapabilities = transportpkg.GetCapabilities

	// Modular transport registry. Import transports via
	// _ "github.com/drblury/hostbridge/transport/channel".
	DefaultTransportRegistry = newtransport.DefaultRegistry
	RegisterTransport        = newtransport.Register
	BuildTransport           = newtransport.Build

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrServiceRequired      = errspkg.ErrServiceRequired
	ErrHandlerRequired      = errspkg.ErrHandlerRequired
	ErrConsumeQueueRequired = errspkg.ErrConsumeQueueRequired
	ErrHandlerNameRequired  = errspkg.ErrHandlerNameRequired
	ErrPublisherRequired    = errspkg.ErrPublisherRequired
	ErrTopicRequired        = errspkg.ErrTopicRequired
	ErrConfigRequired       = errspkg.ErrConfigRequired
	ErrTransportUnavailable = errspkg.ErrTransportUnavailable
	ErrUnknownCommand       = errspkg.ErrUnknownCommand
	ErrUnknownChannel       = errspkg.ErrUnknownChannel
	ErrPayloadRequired      = errspkg.ErrPayloadRequired
	ErrDuplicateID          = errspkg.ErrDuplicateID
	ErrIDGeneration         = errspkg.ErrIDGeneration
	ErrRequestTimeout       = errspkg.ErrRequestTimeout
	ErrRegistryClosed       = errspkg.ErrRegistryClosed
	ErrInvalidArgument      = validate.ErrInvalidArgument

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NopLogger                 = loggingpkg.NopLogger

	NewMetadata = metadatapkg.New

	CreateULID = idspkg.CreateULID
)
