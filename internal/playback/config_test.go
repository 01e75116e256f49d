package playback

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestClientID_Partition(t *testing.T) {
	tests := []struct {
		client ClientID
		want   int32
	}{
		{10, 0},
		{99999, 0},
		{100000, 1},
		{100010, 1},
		{250000, 2},
	}

	for _, tt := range tests {
		if got := tt.client.Partition(); got != tt.want {
			t.Errorf("ClientID(%d).Partition() = %d, want %d", tt.client, got, tt.want)
		}
	}

	if !ClientID(10).SamePartition(20) {
		t.Error("SamePartition(10, 20) = false, want true")
	}
	if ClientID(10).SamePartition(100010) {
		t.Error("SamePartition(10, 100010) = true, want false")
	}
}

func TestPlayerConfig_PayloadOpaque(t *testing.T) {
	payload := []byte(`{"stream":"music","volume":0.8}`)
	cfg := PlayerConfig{
		InterfaceID: 1,
		ClientID:    10,
		Active:      true,
		Payload:     payload,
	}

	// The payload survives a trip through the wire encoding byte for byte.
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded PlayerConfig
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !bytes.Equal(decoded.Payload, payload) {
		t.Errorf("Payload = %s, want %s", decoded.Payload, payload)
	}
}

func TestPlayerConfig_String(t *testing.T) {
	cfg := PlayerConfig{InterfaceID: 1, ClientID: 10, Active: true}
	want := "player{interface=1 client=10 active=true}"
	if got := cfg.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
