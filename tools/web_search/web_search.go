package web_search

import (
	"context"
	"errors"
	"sync"

	"github.com/linkcampus/llex/tools/web_search/models"
)

// Searcher queries one external search provider.
type Searcher interface {
	Search(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

// Aggregate queries every searcher concurrently and merges the results in
// searcher order, deduplicated by title with the first occurrence winning.
// A failing arm contributes an empty slice; it never aborts its siblings.
func Aggregate(ctx context.Context, q string, k int, searchers ...Searcher) []models.Result {
	buckets := make([][]models.Result, len(searchers))
	var wg sync.WaitGroup
	for i, s := range searchers {
		wg.Add(1)
		go func(i int, s Searcher) {
			defer wg.Done()
			res, err := s.Search(ctx, q, k)
			if err != nil {
				return
			}
			buckets[i] = res
		}(i, s)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var out []models.Result
	for _, bucket := range buckets {
		for _, r := range bucket {
			if r.Title == "" {
				continue
			}
			if _, dup := seen[r.Title]; dup {
				continue
			}
			seen[r.Title] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
