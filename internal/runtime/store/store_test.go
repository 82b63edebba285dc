package store

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBeforeSubscribeOnlyNotifiesLaterPushes(t *testing.T) {
	s := New()

	_, ok := s.GetCurrent("TOKEN_INFO")
	assert.False(t, ok)

	s.Set("TOKEN_INFO", json.RawMessage(`{"id":"1"}`))
	current, ok := s.GetCurrent("TOKEN_INFO")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"1"}`, string(current))

	var seen []string
	s.Subscribe("TOKEN_INFO", func(v json.RawMessage) { seen = append(seen, string(v)) })
	assert.Empty(t, seen)

	s.Set("TOKEN_INFO", json.RawMessage(`{"id":"2"}`))
	assert.Equal(t, []string{`{"id":"2"}`}, seen)
}

func TestEverySubscriptionFires(t *testing.T) {
	s := New()
	counts := make([]int, 3)
	for i := range counts {
		s.Subscribe("DEVICE_ID", func(json.RawMessage) { counts[i]++ })
	}
	s.Set("DEVICE_ID", json.RawMessage(`"dev"`))
	s.Set("DEVICE_ID", json.RawMessage(`"dev"`))

	assert.Equal(t, []int{2, 2, 2}, counts)
	assert.Equal(t, 3, s.Subscribers("DEVICE_ID"))
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := New()
	first, second := 0, 0
	unsubscribe := s.Subscribe("PUBLIC_KEY", func(json.RawMessage) { first++ })
	s.Subscribe("PUBLIC_KEY", func(json.RawMessage) { second++ })

	s.Set("PUBLIC_KEY", json.RawMessage(`"k1"`))
	unsubscribe()
	unsubscribe()
	s.Set("PUBLIC_KEY", json.RawMessage(`"k2"`))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 1, s.Subscribers("PUBLIC_KEY"))
}

func TestSubscriberCanUnsubscribeDuringNotify(t *testing.T) {
	s := New()
	calls := 0
	var unsubscribe func()
	unsubscribe = s.Subscribe("EXTRA_DATA", func(json.RawMessage) {
		calls++
		unsubscribe()
	})

	s.Set("EXTRA_DATA", json.RawMessage(`{}`))
	s.Set("EXTRA_DATA", json.RawMessage(`{}`))
	assert.Equal(t, 1, calls)
}

func TestNilSubscriberIsIgnored(t *testing.T) {
	s := New()
	unsubscribe := s.Subscribe("LIST_TOKEN", nil)
	unsubscribe()
	assert.Zero(t, s.Subscribers("LIST_TOKEN"))
}

func TestRecordOutcomeNotifiesWithFullMapping(t *testing.T) {
	s := New()
	var last map[string]TxOutcome
	s.Subscribe("TX_PENDING_RESULT", func(v json.RawMessage) {
		last = nil
		require.NoError(t, json.Unmarshal(v, &last))
	})

	require.NoError(t, s.RecordOutcome("TX_PENDING_RESULT", "a", Succeeded(json.RawMessage(`{"txId":"abc"}`))))
	require.NoError(t, s.RecordOutcome("TX_PENDING_RESULT", "b", Failed("rejected")))

	require.Len(t, last, 2)
	assert.JSONEq(t, `{"txId":"abc"}`, string(last["a"].Tx))
	assert.Nil(t, last["a"].Error)
	require.NotNil(t, last["b"].Error)
	assert.Equal(t, "rejected", *last["b"].Error)

	current, ok := s.GetCurrent("TX_PENDING_RESULT")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":{"tx":{"txId":"abc"},"error":null},"b":{"tx":null,"error":"rejected"}}`, string(current))
}

func TestOutcomesGrowMonotonically(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("tx-%d", i)
		var outcome TxOutcome
		if i%2 == 0 {
			outcome = Succeeded(json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)))
		} else {
			outcome = Failed("nope")
		}
		require.NoError(t, s.RecordOutcome("TX_PENDING_RESULT", id, outcome))
		assert.Len(t, s.Outcomes("TX_PENDING_RESULT"), i+1)
	}

	for id, o := range s.Outcomes("TX_PENDING_RESULT") {
		hasTx := len(o.Tx) > 0
		hasErr := o.Error != nil
		assert.True(t, hasTx != hasErr, "outcome %s must carry exactly one of tx or error", id)
	}

	o, ok := s.Outcome("TX_PENDING_RESULT", "tx-4")
	require.True(t, ok)
	assert.JSONEq(t, `{"n":4}`, string(o.Tx))
}

func TestOutcomesReturnsCopy(t *testing.T) {
	s := New()
	require.NoError(t, s.RecordOutcome("TX_PENDING_RESULT", "a", Failed("x")))

	copied := s.Outcomes("TX_PENDING_RESULT")
	delete(copied, "a")

	assert.Len(t, s.Outcomes("TX_PENDING_RESULT"), 1)
}

func TestStoredValueIsIsolatedFromCaller(t *testing.T) {
	s := New()
	raw := json.RawMessage(`"abc"`)
	s.Set("PAYMENT_ADDRESS", raw)
	raw[1] = 'z'

	current, _ := s.GetCurrent("PAYMENT_ADDRESS")
	assert.Equal(t, `"abc"`, string(current))
}
