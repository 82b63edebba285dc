package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAddress = "12S5Lrs1XeQLbqN4ySyKtjAjd2d7sBP2tjFijzmp6avrrkQCNFMpkXm3FPzj2Wcu2ZNqJEmh9JriVuRErVwhuQnLmWSaggobEWsBEci"

func TestRequired(t *testing.T) {
	assert.NoError(t, Required("tokenID", "abc"))

	err := Required("tokenID", "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.EqualError(t, err, "tokenID: is required")
}

func TestPaymentAddress(t *testing.T) {
	assert.NoError(t, PaymentAddress("toAddress", sampleAddress))

	for name, addr := range map[string]string{
		"empty":      "",
		"short":      "12S5Lrs",
		"zero digit": "12S5Lrs0XeQLbqN4",
		"letter O":   "12S5LrsOXeQLbqN4",
		"whitespace": "12S5Lrs XeQLbqN4",
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, PaymentAddress("toAddress", addr), ErrInvalidArgument)
		})
	}
}

func TestNanoAmount(t *testing.T) {
	assert.NoError(t, NanoAmount("amount", 1))
	assert.ErrorIs(t, NanoAmount("amount", 0), ErrInvalidArgument)
}

func TestNonEmptyAndEach(t *testing.T) {
	assert.ErrorIs(t, NonEmpty[string]("receivers", nil), ErrInvalidArgument)
	assert.NoError(t, NonEmpty("receivers", []string{"a"}))

	err := Each("receivers", []string{sampleAddress, "bad", ""}, PaymentAddress)
	require.Error(t, err)

	var first *Error
	require.True(t, errors.As(err, &first))
	assert.Equal(t, "receivers[1]", first.Field)
	assert.Contains(t, err.Error(), "receivers[2]: is required")

	assert.NoError(t, Each("receivers", []string{sampleAddress}, PaymentAddress))
}
