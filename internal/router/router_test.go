package router

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/linkcampus/llex/internal/plan"
)

type stubHistory struct {
	texts []string
	err   error
}

func (s *stubHistory) RecentUserTexts(ctx context.Context, userID string, limit int) ([]string, error) {
	return s.texts, s.err
}

func TestClassifyPrecedence(t *testing.T) {
	r := New(nil, 0)
	cases := []struct {
		question string
		want     plan.ToolID
	}{
		{"연차 휴가의 법적 근거가 뭐야?", plan.StatuteLookup},
		{"법령에서 해고 기준을 알려줘", plan.StatuteLookup},
		{"산업안전보건법 알려줘", plan.StatuteLookup},
		{"산업 안전 보건법 알려줘", plan.StatuteLookup},
		{"최근 전세 사기 뉴스 알려줘", plan.NewsSearch},
		{"이직 후기 블로그 찾아줘", plan.BlogSearch},
		{"내 기록에서 지난 질문 찾아줘", plan.HistoryLookup},
		{"요즘 너무 힘들어", plan.GeneralChat},
		{"안녕하세요", plan.GeneralChat},
	}
	for _, tc := range cases {
		got := r.Classify(context.Background(), "u1", tc.question)
		if got.Tool != tc.want {
			t.Errorf("Classify(%q) tool = %s, want %s", tc.question, got.Tool, tc.want)
		}
		if got.Query() != tc.question {
			t.Errorf("Classify(%q) query = %q, want original question", tc.question, got.Query())
		}
	}
}

func TestClassifyComposesDecomposedHangul(t *testing.T) {
	// Decomposed-jamo questions must hit the same keyword rules as
	// composed input.
	r := New(nil, 0)
	got := r.Classify(context.Background(), "u1", norm.NFD.String("산업안전보건법 알려줘"))
	if got.Tool != plan.StatuteLookup {
		t.Fatalf("tool = %s, want %s", got.Tool, plan.StatuteLookup)
	}
}

func TestClassifyStatuteBeatsNews(t *testing.T) {
	// Statute keywords outrank news keywords when both are present.
	r := New(nil, 0)
	got := r.Classify(context.Background(), "u1", "해고 사건 관련 법령 알려줘")
	if got.Tool != plan.StatuteLookup {
		t.Fatalf("tool = %s, want %s", got.Tool, plan.StatuteLookup)
	}
}

func TestClassifyUsesHistoryContext(t *testing.T) {
	h := &stubHistory{texts: []string{"근로기준법 제60조가 궁금해"}}
	r := New(h, 10)
	got := r.Classify(context.Background(), "u1", "더 자세히 알려줘")
	if got.Tool != plan.StatuteLookup {
		t.Fatalf("tool = %s, want %s (history should carry statute context)", got.Tool, plan.StatuteLookup)
	}
}

func TestClassifyHistoryErrorFallsBackToQuestion(t *testing.T) {
	h := &stubHistory{err: errors.New("store down")}
	r := New(h, 10)
	got := r.Classify(context.Background(), "u1", "안녕")
	if got.Tool != plan.GeneralChat {
		t.Fatalf("tool = %s, want %s", got.Tool, plan.GeneralChat)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	h := &stubHistory{texts: []string{"퇴직금 계산"}}
	r := New(h, 10)
	first := r.Classify(context.Background(), "u1", "관련 법조문 알려줘")
	second := r.Classify(context.Background(), "u1", "관련 법조문 알려줘")
	if first.Tool != second.Tool || first.Query() != second.Query() {
		t.Fatalf("classification not idempotent: %v vs %v", first, second)
	}
}
