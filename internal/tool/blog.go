package tool

import (
	"context"
	"fmt"
	"log"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/stream"
	"github.com/linkcampus/llex/provider"
	websearch "github.com/linkcampus/llex/tools/web_search"
)

const blogSystemPrompt = `당신은 블로그 글 요약 전문가입니다. 제공된 블로그 글 목록에서 실제 경험과 유용한 정보를 한국어로 정리하세요. 개인 경험담임을 감안해 단정적인 표현은 피하세요.`

// BlogTool searches blog-scoped providers and streams a model summary.
type BlogTool struct {
	searchers []websearch.Searcher
	provider  provider.Provider
	limit     int
	logger    *log.Logger
}

func NewBlogTool(searchers []websearch.Searcher, p provider.Provider, limit int) *BlogTool {
	return &BlogTool{
		searchers: searchers,
		provider:  p,
		limit:     limit,
		logger:    log.New(log.Writer(), "[BLOG] ", log.LstdFlags),
	}
}

func (t *BlogTool) ID() plan.ToolID { return plan.BlogSearch }

func (t *BlogTool) Run(ctx context.Context, p plan.Plan) <-chan stream.Chunk {
	return produce(ctx, t.logger, "blog search", func(ctx context.Context, emit emitFn) error {
		query := p.Query()
		emit(stream.Status("블로그 글을 검색하고 있습니다"))
		results := websearch.Aggregate(ctx, query, t.limit, t.searchers...)
		if len(results) == 0 {
			emit(stream.Text("관련 블로그 글을 찾지 못했습니다."))
			return nil
		}
		if err := summarizeResults(ctx, t.provider, emit, blogSystemPrompt, query, results); err != nil {
			return fmt.Errorf("blog summary: %w", err)
		}
		return nil
	})
}
