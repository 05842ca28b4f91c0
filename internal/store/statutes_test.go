package store

import "testing"

func TestEncodeVectorLiteral(t *testing.T) {
	got, err := encodeVectorLiteral([]float32{0.5, -1, 0.25})
	if err != nil {
		t.Fatalf("encodeVectorLiteral: %v", err)
	}
	if got != "[0.5,-1,0.25]" {
		t.Fatalf("unexpected literal: %s", got)
	}
}

func TestEncodeVectorLiteralRejectsEmpty(t *testing.T) {
	if _, err := encodeVectorLiteral(nil); err == nil {
		t.Fatal("expected error for empty vector")
	}
}
