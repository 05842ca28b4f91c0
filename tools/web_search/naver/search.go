package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"

	"github.com/linkcampus/llex/tools/web_search/models"
)

// Kind selects the Naver open-API vertical to query.
type Kind string

const (
	News Kind = "news"
	Blog Kind = "blog"
	Web  Kind = "webkr"
)

var tagRe = regexp.MustCompile(`<[^>]+>`)

// stripTags removes the <b> highlight markup Naver embeds in titles.
func stripTags(s string) string {
	return html.UnescapeString(tagRe.ReplaceAllString(s, ""))
}

type Search struct {
	ClientID     string
	ClientSecret string
	Kind         Kind
}

func (s Search) Search(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://developers.naver.com/docs/serviceapi/search/
	kind := s.Kind
	if kind == "" {
		kind = Web
	}
	endpoint := fmt.Sprintf("https://openapi.naver.com/v1/search/%s.json?query=%s&display=%d&sort=sim", kind, url.QueryEscape(q), k)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Naver-Client-Id", s.ClientID)
	req.Header.Set("X-Naver-Client-Secret", s.ClientSecret)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("naver %s returned status: %d", kind, resp.StatusCode)
	}
	var raw struct {
		Items []struct {
			Title        string `json:"title"`
			Link         string `json:"link"`
			OriginalLink string `json:"originallink"`
			Description  string `json:"description"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	var out []models.Result
	for i, it := range raw.Items {
		if i >= k {
			break
		}
		link := it.OriginalLink
		if link == "" {
			link = it.Link
		}
		out = append(out, models.Result{
			Title:   stripTags(it.Title),
			Link:    link,
			Snippet: stripTags(it.Description),
			Source:  "naver_" + string(kind),
		})
	}
	return out, nil
}
