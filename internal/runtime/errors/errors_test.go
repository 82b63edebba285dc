package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrServiceRequired", ErrServiceRequired, "hostbridge: bridge service is required"},
		{"ErrHandlerRequired", ErrHandlerRequired, "hostbridge: handler function is required"},
		{"ErrPublisherRequired", ErrPublisherRequired, "hostbridge: publisher is required"},
		{"ErrTopicRequired", ErrTopicRequired, "hostbridge: topic is required"},
		{"ErrConfigRequired", ErrConfigRequired, "hostbridge: configuration is required"},
		{"ErrTransportUnavailable", ErrTransportUnavailable, "hostbridge: host transport unavailable"},
		{"ErrUnknownCommand", ErrUnknownCommand, "hostbridge: unknown command"},
		{"ErrPayloadRequired", ErrPayloadRequired, "hostbridge: command payload is required"},
		{"ErrDuplicateID", ErrDuplicateID, "hostbridge: correlation id already pending"},
		{"ErrIDGeneration", ErrIDGeneration, "hostbridge: cannot generate correlation id"},
		{"ErrRequestTimeout", ErrRequestTimeout, "hostbridge: request timed out"},
		{"ErrRegistryClosed", ErrRegistryClosed, "hostbridge: pending registry closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("send SEND_TX: %w", ErrTransportUnavailable)
	if !errors.Is(wrapped, ErrTransportUnavailable) {
		t.Fatal("errors.Is should match the wrapped sentinel")
	}
	if errors.Is(wrapped, ErrUnknownCommand) {
		t.Fatal("errors.Is matched an unrelated sentinel")
	}
}
