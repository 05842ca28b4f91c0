package stream

import (
	"encoding/json"
	"testing"
)

func TestChunkJSONShape(t *testing.T) {
	c := Text("안녕")
	var decoded struct {
		Event   string      `json:"event"`
		Payload interface{} `json:"payload"`
		At      float64     `json:"at"`
	}
	if err := json.Unmarshal(c.JSON(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Event != "text" {
		t.Errorf("event = %q, want text", decoded.Event)
	}
	if decoded.Payload != "안녕" {
		t.Errorf("payload = %v", decoded.Payload)
	}
	if decoded.At == 0 {
		t.Error("at missing")
	}
}

func TestTextPayloadNonString(t *testing.T) {
	c := Source(map[string]string{"title": "출처"})
	if got := c.TextPayload(); got != "" {
		t.Errorf("TextPayload on source = %q, want empty", got)
	}
}
