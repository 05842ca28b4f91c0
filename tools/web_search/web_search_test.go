package web_search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linkcampus/llex/tools/web_search/models"
)

type stubSearcher struct {
	results []models.Result
	err     error
	delay   time.Duration
}

func (s stubSearcher) Search(ctx context.Context, q string, k int) ([]models.Result, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.results, s.err
}

func TestAggregateDedupesByTitleFirstWins(t *testing.T) {
	first := stubSearcher{results: []models.Result{
		{Title: "소화기 설치 기준", Link: "https://a.example", Source: "serper"},
		{Title: "비상구 규정", Link: "https://b.example", Source: "serper"},
	}}
	second := stubSearcher{results: []models.Result{
		{Title: "소화기 설치 기준", Link: "https://dup.example", Source: "brave"},
		{Title: "피난계단 기준", Link: "https://c.example", Source: "brave"},
	}}

	got := Aggregate(context.Background(), "소화기", 5, first, second)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(got), got)
	}
	if got[0].Link != "https://a.example" {
		t.Fatalf("first occurrence should win, got %+v", got[0])
	}
	if got[2].Title != "피난계단 기준" {
		t.Fatalf("searcher order must be preserved, got %+v", got)
	}
}

func TestAggregateFailingArmYieldsEmptyNotAbort(t *testing.T) {
	ok := stubSearcher{results: []models.Result{{Title: "결과", Link: "https://ok.example"}}}
	broken := stubSearcher{err: errors.New("provider down")}

	got := Aggregate(context.Background(), "질문", 5, broken, ok)
	if len(got) != 1 || got[0].Title != "결과" {
		t.Fatalf("expected surviving arm's result, got %+v", got)
	}
}

func TestAggregateSkipsUntitledResults(t *testing.T) {
	s := stubSearcher{results: []models.Result{{Title: "", Link: "https://x.example"}}}
	if got := Aggregate(context.Background(), "q", 5, s); len(got) != 0 {
		t.Fatalf("untitled results must be dropped, got %+v", got)
	}
}
