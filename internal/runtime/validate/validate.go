// Package validate holds the precondition checks applied to SDK arguments
// and bet payloads before anything is sent to the host.
package validate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument is matched by every *Error via errors.Is.
var ErrInvalidArgument = errors.New("hostbridge: invalid argument")

// Error describes a single rejected argument.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalid(field, reason string) error {
	return &Error{Field: field, Reason: reason}
}

const (
	base58Alphabet       = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	minPaymentAddressLen = 12
)

// Required rejects empty or blank strings.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// PaymentAddress checks that addr looks like a base58 payment address.
func PaymentAddress(field, addr string) error {
	if err := Required(field, addr); err != nil {
		return err
	}
	if len(addr) < minPaymentAddressLen {
		return invalid(field, "is too short to be a payment address")
	}
	if i := strings.IndexFunc(addr, func(r rune) bool { return !strings.ContainsRune(base58Alphabet, r) }); i >= 0 {
		return invalid(field, fmt.Sprintf("contains invalid character %q", addr[i]))
	}
	return nil
}

// NanoAmount requires a positive amount of nano units.
func NanoAmount(field string, amount uint64) error {
	if amount == 0 {
		return invalid(field, "must be a positive integer")
	}
	return nil
}

// NonEmpty requires at least one element.
func NonEmpty[T any](field string, items []T) error {
	if len(items) == 0 {
		return invalid(field, "must not be empty")
	}
	return nil
}

// Each runs check on every element and joins the failures. The field name of
// each failure is suffixed with the element index.
func Each[T any](field string, items []T, check func(field string, item T) error) error {
	var errs []error
	for i, item := range items {
		if err := check(fmt.Sprintf("%s[%d]", field, i), item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
