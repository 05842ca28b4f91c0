package tool

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/statute"
	"github.com/linkcampus/llex/internal/store"
	"github.com/linkcampus/llex/internal/stream"
	"github.com/linkcampus/llex/provider"
	websearch "github.com/linkcampus/llex/tools/web_search"
	"github.com/linkcampus/llex/tools/web_search/models"
)

// StatuteStore is the slice of the store the statute tool needs.
type StatuteStore interface {
	FindArticle(ctx context.Context, lawNameNorm, articleNorm string) (store.StatuteChunk, bool, error)
	SearchSimilarArticles(ctx context.Context, vector []float32, lawNameNorm, articleNorm string, limit int) ([]store.StatuteHit, error)
}

const statuteSystemPrompt = `당신은 산업안전 분야 법령 전문가입니다. 제공된 조문 원문에 근거해서만 답변하고, 조문에 없는 내용은 추측하지 마세요. 답변은 한국어로, 조문 번호를 명시하며 작성하세요.`

// StatuteTool answers legal-basis questions through a three-tier search:
// exact article lookup, vector similarity over statute text, then open
// web search as the last resort.
type StatuteTool struct {
	store     StatuteStore
	provider  provider.Provider
	searchers []websearch.Searcher
	minScore  float64
	logger    *log.Logger
}

func NewStatuteTool(st StatuteStore, p provider.Provider, searchers []websearch.Searcher, minScore float64) *StatuteTool {
	return &StatuteTool{
		store:     st,
		provider:  p,
		searchers: searchers,
		minScore:  minScore,
		logger:    log.New(log.Writer(), "[STATUTE] ", log.LstdFlags),
	}
}

func (t *StatuteTool) ID() plan.ToolID { return plan.StatuteLookup }

func (t *StatuteTool) Run(ctx context.Context, p plan.Plan) <-chan stream.Chunk {
	return produce(ctx, t.logger, "statute lookup", func(ctx context.Context, emit emitFn) error {
		query := p.Query()
		emit(stream.Status("법령 조문을 검색하고 있습니다"))

		lawName := statute.DetectName(query)
		article := statute.DetectArticle(query)

		// Tier 1: exact structured lookup by normalized name and article.
		if lawName != "" && article != "" {
			chunk, found, err := t.store.FindArticle(ctx, lawName, article)
			if err != nil {
				return fmt.Errorf("article lookup: %w", err)
			}
			if found {
				return t.explain(ctx, emit, query, chunk)
			}
		}

		// Tier 2: semantic search over statute text, optionally scoped to
		// whatever name/article the query carried.
		emit(stream.Status("유사 조문을 찾고 있습니다"))
		vec, err := t.provider.Embed(ctx, query)
		if err != nil {
			t.logger.Printf("embed failed, skipping similarity tier: %v", err)
		} else {
			hits, err := t.store.SearchSimilarArticles(ctx, vec, lawName, article, 3)
			if err != nil {
				return fmt.Errorf("similarity search: %w", err)
			}
			if len(hits) > 0 && hits[0].Score >= t.minScore {
				return t.explain(ctx, emit, query, hits[0].Chunk)
			}
		}

		// Tier 3: the statute store has nothing usable; fall back to the
		// open web before giving up.
		emit(stream.Status("법령 데이터베이스에서 찾지 못해 웹에서 검색합니다"))
		results := websearch.Aggregate(ctx, query, 5, t.searchers...)
		if len(results) == 0 {
			emit(stream.Text("관련 법령 조문을 찾을 수 없습니다."))
			return nil
		}
		return t.summarizeWeb(ctx, emit, query, results)
	})
}

// explain streams the model's explanation of one statute chunk and
// attaches the canonical citation.
func (t *StatuteTool) explain(ctx context.Context, emit emitFn, query string, chunk store.StatuteChunk) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "질문: %s\n\n", query)
	fmt.Fprintf(&sb, "조문 원문:\n%s 제%s조", chunk.LawName, chunk.ArticleNumber)
	if chunk.ArticleTitle != "" {
		fmt.Fprintf(&sb, "(%s)", chunk.ArticleTitle)
	}
	fmt.Fprintf(&sb, "\n%s\n", chunk.Text)

	messages := []provider.Message{
		{Role: "system", Content: statuteSystemPrompt},
		{Role: "user", Content: sb.String()},
	}
	err := t.provider.StreamComplete(ctx, messages, provider.Options{}, func(token string) error {
		emit(stream.Text(token))
		return nil
	})
	if err != nil {
		return fmt.Errorf("statute explanation: %w", err)
	}
	if chunk.EnforcementDate != "" {
		emit(stream.Text(fmt.Sprintf("\n\n(시행일: %s)", chunk.EnforcementDate)))
	}
	emit(stream.Source(map[string]string{
		"title": fmt.Sprintf("%s 제%s조", chunk.LawName, chunk.ArticleNumber),
		"link":  statute.CanonicalLink(chunk.LawName, chunk.ArticleNumber),
	}))
	return nil
}

// summarizeWeb answers from web results while flagging that no statutory
// text backs the answer.
func (t *StatuteTool) summarizeWeb(ctx context.Context, emit emitFn, query string, results []models.Result) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "질문: %s\n\n웹 검색 결과:\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n%s\n", i+1, r.Title, r.Snippet)
	}
	sb.WriteString("\n위 검색 결과를 바탕으로 질문에 답변하세요. 검색 결과에 없는 내용은 추측하지 마세요.")

	messages := []provider.Message{
		{Role: "system", Content: statuteSystemPrompt},
		{Role: "user", Content: sb.String()},
	}
	err := t.provider.StreamComplete(ctx, messages, provider.Options{}, func(token string) error {
		emit(stream.Text(token))
		return nil
	})
	if err != nil {
		return fmt.Errorf("web summary: %w", err)
	}
	emit(stream.Text("\n\n※ 법령 데이터베이스에서 정확한 조문은 확인되지 않았습니다. 웹 검색 결과를 기반으로 한 답변입니다."))
	for _, r := range results {
		emit(stream.Source(map[string]string{"title": r.Title, "link": r.Link, "source": r.Source}))
	}
	return nil
}
