package errors

import sterrors "errors"

var (
	ErrServiceRequired      = sterrors.New("hostbridge: bridge service is required")
	ErrHandlerRequired      = sterrors.New("hostbridge: handler function is required")
	ErrConsumeQueueRequired = sterrors.New("hostbridge: consume queue is required")
	ErrHandlerNameRequired  = sterrors.New("hostbridge: handler name is required")
	ErrPublisherRequired    = sterrors.New("hostbridge: publisher is required")
	ErrTopicRequired        = sterrors.New("hostbridge: topic is required")
	ErrConfigRequired       = sterrors.New("hostbridge: configuration is required")

	// ErrTransportUnavailable is returned when no host transport is attached,
	// typically because the code runs outside the hosting shell.
	ErrTransportUnavailable = sterrors.New("hostbridge: host transport unavailable")
	ErrUnknownCommand       = sterrors.New("hostbridge: unknown command")
	ErrUnknownChannel       = sterrors.New("hostbridge: unknown channel")
	ErrPayloadRequired      = sterrors.New("hostbridge: command payload is required")

	ErrDuplicateID    = sterrors.New("hostbridge: correlation id already pending")
	ErrIDGeneration   = sterrors.New("hostbridge: cannot generate correlation id")
	ErrRequestTimeout = sterrors.New("hostbridge: request timed out")
	ErrRegistryClosed = sterrors.New("hostbridge: pending registry closed")
)
