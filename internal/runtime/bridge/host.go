package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
)

// HostTransport is the one-way send primitive exposed by the host application.
// Delivery, ordering and any response are outside its contract.
type HostTransport interface {
	PostMessage(ctx context.Context, msg string) error
}

// FuncHost adapts a plain function to HostTransport.
type FuncHost func(ctx context.Context, msg string) error

func (f FuncHost) PostMessage(ctx context.Context, msg string) error {
	return f(ctx, msg)
}

const wireSeparator = "|"

// EncodeMessage renders the single-argument wire form "<COMMAND>|<json>".
func EncodeMessage(cmd Command, payload any) (string, error) {
	body, err := jsoncodec.MarshalToString(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", cmd, err)
	}
	return string(cmd) + wireSeparator + body, nil
}

// DecodeMessage splits a wire string back into its command and JSON payload.
// Host-side code uses it to interpret what the bridge posted.
func DecodeMessage(msg string) (Command, []byte, error) {
	name, body, ok := strings.Cut(msg, wireSeparator)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("malformed bridge message %q", msg)
	}
	if !jsoncodec.Valid([]byte(body)) {
		return "", nil, fmt.Errorf("malformed %s payload", name)
	}
	return Command(name), []byte(body), nil
}
