package stream

import (
	"encoding/json"
	"time"
)

// Kind tags one unit of a tool's streamed output.
type Kind string

const (
	KindStatus  Kind = "status"
	KindText    Kind = "text"
	KindSource  Kind = "source"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Chunk is a single streamed unit of tool output. Chunks are immutable once
// emitted and are always delivered in emission order.
type Chunk struct {
	Kind    Kind        `json:"event"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// Status builds a status chunk.
func Status(msg string) Chunk { return Chunk{Kind: KindStatus, Payload: msg, At: time.Now()} }

// Text builds a text chunk. Concatenated text payloads, in order, form the
// human-readable answer.
func Text(s string) Chunk { return Chunk{Kind: KindText, Payload: s, At: time.Now()} }

// Source builds a source chunk carrying structured citations.
func Source(payload interface{}) Chunk {
	return Chunk{Kind: KindSource, Payload: payload, At: time.Now()}
}

// Warning builds a warning chunk.
func Warning(msg string) Chunk { return Chunk{Kind: KindWarning, Payload: msg, At: time.Now()} }

// Error builds the single error chunk a tool emits before terminating.
func Error(msg string) Chunk { return Chunk{Kind: KindError, Payload: msg, At: time.Now()} }

// JSON renders the chunk as one SSE data payload.
func (c Chunk) JSON() []byte {
	b, err := json.Marshal(struct {
		Event   Kind        `json:"event"`
		Payload interface{} `json:"payload"`
		At      float64     `json:"at"`
	}{c.Kind, c.Payload, float64(c.At.UnixNano()) / 1e9})
	if err != nil {
		// Payloads are strings or plain structs; a marshal failure means a
		// programming error, surface it as an error event instead.
		b, _ = json.Marshal(map[string]interface{}{"event": KindError, "payload": err.Error()})
	}
	return b
}

// TextPayload returns the payload as string for text-like chunks.
func (c Chunk) TextPayload() string {
	s, _ := c.Payload.(string)
	return s
}
