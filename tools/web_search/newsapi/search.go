package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/linkcampus/llex/tools/web_search/models"
)

type Search struct {
	ApiKey   string
	Endpoint string // defaults to the hosted NewsAPI everything endpoint
}

func (s Search) Search(ctx context.Context, q string, k int) ([]models.Result, error) {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = "https://newsapi.org/v2/everything"
	}
	full := fmt.Sprintf("%s?q=%s&pageSize=%d&sortBy=publishedAt", endpoint, url.QueryEscape(q), k)
	req, err := http.NewRequestWithContext(ctx, "GET", full, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", s.ApiKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned status: %d", resp.StatusCode)
	}
	var raw struct {
		Status   string `json:"status"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if raw.Status != "ok" {
		return nil, fmt.Errorf("newsapi returned status %q", raw.Status)
	}
	var out []models.Result
	for i, a := range raw.Articles {
		if i >= k {
			break
		}
		src := a.Source.Name
		if src == "" {
			src = "newsapi"
		}
		out = append(out, models.Result{Title: a.Title, Link: a.URL, Snippet: a.Description, Source: src})
	}
	return out, nil
}
