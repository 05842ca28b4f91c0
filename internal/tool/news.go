package tool

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/stream"
	"github.com/linkcampus/llex/provider"
	websearch "github.com/linkcampus/llex/tools/web_search"
	"github.com/linkcampus/llex/tools/web_search/models"
)

const newsSystemPrompt = `당신은 뉴스 요약 전문가입니다. 제공된 기사 목록을 바탕으로 핵심 내용을 한국어로 간결하게 정리하세요. 기사에 없는 내용은 추가하지 마세요.`

// NewsTool searches news providers and streams a model summary.
type NewsTool struct {
	searchers []websearch.Searcher
	provider  provider.Provider
	limit     int
	logger    *log.Logger
}

func NewNewsTool(searchers []websearch.Searcher, p provider.Provider, limit int) *NewsTool {
	return &NewsTool{
		searchers: searchers,
		provider:  p,
		limit:     limit,
		logger:    log.New(log.Writer(), "[NEWS] ", log.LstdFlags),
	}
}

func (t *NewsTool) ID() plan.ToolID { return plan.NewsSearch }

func (t *NewsTool) Run(ctx context.Context, p plan.Plan) <-chan stream.Chunk {
	return produce(ctx, t.logger, "news search", func(ctx context.Context, emit emitFn) error {
		query := p.Query()
		emit(stream.Status("최신 뉴스를 검색하고 있습니다"))
		results := websearch.Aggregate(ctx, query, t.limit, t.searchers...)
		if len(results) == 0 {
			emit(stream.Text("관련 뉴스를 찾지 못했습니다."))
			return nil
		}
		if err := summarizeResults(ctx, t.provider, emit, newsSystemPrompt, query, results); err != nil {
			return fmt.Errorf("news summary: %w", err)
		}
		return nil
	})
}

// summarizeResults streams a model summary over search results, then
// emits one source chunk per result.
func summarizeResults(ctx context.Context, p provider.Provider, emit emitFn, system, query string, results []models.Result) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "질문: %s\n\n검색 결과:\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. [%s] %s\n%s\n", i+1, r.Source, r.Title, r.Snippet)
	}
	messages := []provider.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: sb.String()},
	}
	err := p.StreamComplete(ctx, messages, provider.Options{}, func(token string) error {
		emit(stream.Text(token))
		return nil
	})
	if err != nil {
		return err
	}
	for _, r := range results {
		emit(stream.Source(map[string]string{"title": r.Title, "link": r.Link, "source": r.Source}))
	}
	return nil
}
