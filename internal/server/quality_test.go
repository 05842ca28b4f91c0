package server

import "testing"

func TestQualityScore(t *testing.T) {
	cases := []struct {
		name   string
		answer string
		want   int
	}{
		{"empty", "", 0},
		{"no citations", "일반적인 답변입니다.", 35},
		{"one law ref", "「산업안전보건법」에 따르면 가능합니다.", 45},
		{"law and article", "「산업안전보건법」 제38조에 따라 조치해야 합니다.", 50},
		{"many citations cap", "「산업안전보건법」「산업안전보건법시행령」「산업안전보건법시행규칙」「중대재해처벌등에관한법률」「재난및안전관리기본법」 제1조 제2조 제3조 제4조 제5조", 100},
	}
	for _, tc := range cases {
		if got := qualityScore(tc.answer); got != tc.want {
			t.Errorf("%s: qualityScore = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestRechunk(t *testing.T) {
	pieces := rechunk("가나다라마바사아자차", 3)
	want := []string{"가나다", "라마바", "사아자", "차"}
	if len(pieces) != len(want) {
		t.Fatalf("len = %d, want %d", len(pieces), len(want))
	}
	for i := range want {
		if pieces[i] != want[i] {
			t.Errorf("piece %d = %q, want %q", i, pieces[i], want[i])
		}
	}
}

func TestRechunkEmpty(t *testing.T) {
	if pieces := rechunk("", 20); len(pieces) != 0 {
		t.Fatalf("pieces = %v, want none", pieces)
	}
}

func TestRechunkDefaultsSize(t *testing.T) {
	pieces := rechunk("답변", 0)
	if len(pieces) != 1 || pieces[0] != "답변" {
		t.Fatalf("pieces = %v", pieces)
	}
}
