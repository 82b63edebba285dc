package jsoncodec

import (
	"bytes"
	"strings"
	"testing"
)

type sendTxPayload struct {
	PendingTxID string `json:"pendingTxId"`
	Amount      int64  `json:"amount"`
}

func TestMarshalAndUnmarshal(t *testing.T) {
	in := sendTxPayload{PendingTxID: "abc", Amount: 300}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out sendTxPayload
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out != in {
		t.Fatalf("expected round trip to match, got %#v", out)
	}

	indented, err := MarshalIndent(in, "", "  ")
	if err != nil {
		t.Fatalf("marshal indent failed: %v", err)
	}
	if !strings.Contains(string(indented), "\n  \"pendingTxId\"") {
		t.Fatalf("expected indented output, got %s", string(indented))
	}
}

func TestMarshalToStringKeepsFieldOrder(t *testing.T) {
	s, err := MarshalToString(sendTxPayload{PendingTxID: "x", Amount: 1})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if s != `{"pendingTxId":"x","amount":1}` {
		t.Fatalf("unexpected encoding %s", s)
	}
}

func TestValid(t *testing.T) {
	if !Valid([]byte(`{"txId":"abc"}`)) {
		t.Fatal("expected object to be valid")
	}
	if Valid([]byte(`{"txId":`)) {
		t.Fatal("expected truncated document to be invalid")
	}
}

func TestEncodeAndDecode(t *testing.T) {
	buf := &bytes.Buffer{}
	payload := sendTxPayload{PendingTxID: "stream", Amount: 7}

	if err := Encode(buf, payload); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var decoded sendTxPayload
	if err := Decode(buf, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != payload {
		t.Fatalf("expected decoded payload to match, got %#v", decoded)
	}
}
