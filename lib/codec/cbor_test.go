// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"

	"github.com/filegate/filegate/lib/schema"
)

func TestDeterministicEncoding(t *testing.T) {
	event := schema.PermissionUpdate(42)

	first, err := Marshal(event)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(event)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("encodings differ: %x vs %x", first, second)
	}
}

func TestRoundTrip(t *testing.T) {
	original := schema.Grant{
		FileID:       7,
		UserID:       3,
		Capabilities: schema.Capabilities{Read: true, Share: true},
		GrantedBy:    1,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded schema.Grant
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip = %+v, want %+v", decoded, original)
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(map[string]any{
		"type":    schema.EventTypePermissionUpdate,
		"fileId":  int64(9),
		"extra":   "future field",
		"another": 17,
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var event schema.Event
	if err := Unmarshal(data, &event); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if event.Type != schema.EventTypePermissionUpdate || event.FileID != 9 {
		t.Errorf("event = %+v", event)
	}
}

func TestStreamEncoderDecoder(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)

	events := []schema.Event{
		schema.PermissionUpdate(1),
		schema.PermissionUpdate(2),
		schema.PermissionUpdate(3),
	}
	for _, event := range events {
		if err := encoder.Encode(event); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range events {
		var got schema.Event
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if got != want {
			t.Errorf("event %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestDecodeIntoAny(t *testing.T) {
	data, err := Marshal(schema.PermissionUpdate(5))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	asMap, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if asMap["type"] != schema.EventTypePermissionUpdate {
		t.Errorf("type = %v", asMap["type"])
	}
}
