package tool

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/stream"
	"github.com/linkcampus/llex/provider"
	webfetch "github.com/linkcampus/llex/tools/web_fetch"
	websearch "github.com/linkcampus/llex/tools/web_search"
	"github.com/linkcampus/llex/tools/web_search/models"
)

const webSystemPrompt = `당신은 웹 검색 결과를 바탕으로 답변하는 도우미입니다. 제공된 자료에 근거해 한국어로 답변하고, 자료에 없는 내용은 추측하지 마세요.`

const (
	pageFetchLimit = 3
	passageRunes   = 500
	passageTopK    = 5
)

// WebTool aggregates multiple search providers, optionally pulls the top
// pages and ranks their passages against the query, then streams a model
// answer grounded on the collected material.
type WebTool struct {
	searchers []websearch.Searcher
	provider  provider.Provider
	fetcher   *webfetch.Fetcher
	limit     int
	logger    *log.Logger
}

func NewWebTool(searchers []websearch.Searcher, p provider.Provider, fetcher *webfetch.Fetcher, limit int) *WebTool {
	return &WebTool{
		searchers: searchers,
		provider:  p,
		fetcher:   fetcher,
		limit:     limit,
		logger:    log.New(log.Writer(), "[WEB] ", log.LstdFlags),
	}
}

func (t *WebTool) ID() plan.ToolID { return plan.WebSearch }

func (t *WebTool) Run(ctx context.Context, p plan.Plan) <-chan stream.Chunk {
	return produce(ctx, t.logger, "web search", func(ctx context.Context, emit emitFn) error {
		query := p.Query()
		emit(stream.Status("웹에서 검색하고 있습니다"))
		results := websearch.Aggregate(ctx, query, t.limit, t.searchers...)
		if len(results) == 0 {
			emit(stream.Text("검색 결과를 찾지 못했습니다."))
			if p.Handler == plan.HandlerStatuteFallback {
				emit(stream.Text(" 법령상 근거도 확인되지 않았습니다."))
			}
			return nil
		}

		passages := t.collectPassages(ctx, query, results)
		if len(passages) > 0 {
			emit(stream.Status("본문을 분석하고 있습니다"))
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "질문: %s\n\n검색 결과:\n", query)
		for i, r := range results {
			fmt.Fprintf(&sb, "%d. [%s] %s\n%s\n", i+1, r.Source, r.Title, r.Snippet)
		}
		if len(passages) > 0 {
			sb.WriteString("\n관련 본문 발췌:\n")
			for _, p := range passages {
				fmt.Fprintf(&sb, "- %s\n", p)
			}
		}

		messages := []provider.Message{
			{Role: "system", Content: webSystemPrompt},
			{Role: "user", Content: sb.String()},
		}
		err := t.provider.StreamComplete(ctx, messages, provider.Options{}, func(token string) error {
			emit(stream.Text(token))
			return nil
		})
		if err != nil {
			return fmt.Errorf("web answer: %w", err)
		}
		if p.Handler == plan.HandlerStatuteFallback {
			emit(stream.Text("\n\n※ 법령 데이터베이스에서 정확한 조문은 확인되지 않았습니다. 웹 검색 결과를 기반으로 한 답변입니다."))
		}
		for _, r := range results {
			emit(stream.Source(map[string]string{"title": r.Title, "link": r.Link, "source": r.Source}))
		}
		return nil
	})
}

// collectPassages fetches the top result pages and keeps the passages
// most relevant to the query. Fetch failures degrade to snippets only.
func (t *WebTool) collectPassages(ctx context.Context, query string, results []models.Result) []string {
	if t.fetcher == nil {
		return nil
	}
	n := pageFetchLimit
	if len(results) < n {
		n = len(results)
	}
	pages := make([]webfetch.Page, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int, link string) {
			defer wg.Done()
			page, err := t.fetcher.Fetch(ctx, link)
			if err != nil {
				t.logger.Printf("fetch %s failed: %v", link, err)
				return
			}
			pages[i] = page
		}(i, results[i].Link)
	}
	wg.Wait()

	var candidates []string
	for _, page := range pages {
		candidates = append(candidates, splitPassages(page.Text, passageRunes)...)
	}
	if len(candidates) == 0 {
		return nil
	}
	ranked, err := rankPassages(query, candidates, passageTopK)
	if err != nil {
		t.logger.Printf("passage ranking failed: %v", err)
		if len(candidates) > passageTopK {
			candidates = candidates[:passageTopK]
		}
		return candidates
	}
	return ranked
}

// splitPassages cuts text into rune-bounded passages.
func splitPassages(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		p := strings.TrimSpace(string(runes[start:end]))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// rankPassages scores candidates against the query with an in-memory
// full-text index and returns the top k.
func rankPassages(query string, candidates []string, k int) ([]string, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	defer index.Close()
	for i, c := range candidates {
		if err := index.Index(fmt.Sprintf("%d", i), map[string]string{"text": c}); err != nil {
			return nil, fmt.Errorf("index passage: %w", err)
		}
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), k, 0, false)
	res, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	var out []string
	for _, hit := range res.Hits {
		var idx int
		if _, err := fmt.Sscanf(hit.ID, "%d", &idx); err != nil || idx < 0 || idx >= len(candidates) {
			continue
		}
		out = append(out, candidates[idx])
	}
	return out, nil
}
