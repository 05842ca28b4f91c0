// Package web_fetch retrieves and extracts readable article text from web
// pages found by the search providers.
package web_fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"
)

const (
	defaultMaxChars = 20000
	// Below this many extracted characters the static HTML is assumed to be
	// a JS shell and the headless render fallback kicks in.
	renderThreshold = 400
	userAgent       = "LLeXBot/1.0 (+contact@linkcampus.kr)"
)

var spacesRe = regexp.MustCompile(`\s+`)

// Page is the extracted content of one fetched URL.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetcher pulls pages over plain HTTP, optionally falling back to a headless
// browser render for script-heavy sites.
type Fetcher struct {
	Client         *http.Client
	MaxChars       int
	RenderFallback bool
}

func NewFetcher(timeout time.Duration, renderFallback bool) *Fetcher {
	return &Fetcher{
		Client:         &http.Client{Timeout: timeout},
		MaxChars:       defaultMaxChars,
		RenderFallback: renderFallback,
	}
}

// Fetch downloads the URL and returns its readable text content.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (Page, error) {
	parsed, err := nurl.Parse(pageURL)
	if err != nil {
		return Page{}, fmt.Errorf("bad url %q: %w", pageURL, err)
	}

	html, err := f.fetchStatic(ctx, pageURL)
	if err != nil {
		return Page{}, err
	}
	page, err := f.extract(html, parsed, pageURL)
	if err == nil && len(page.Text) >= renderThreshold {
		return page, nil
	}

	if !f.RenderFallback {
		if err != nil {
			return Page{}, err
		}
		return page, nil
	}

	// Headless render for JS-heavy pages.
	rendered, rerr := renderHTML(ctx, pageURL)
	if rerr != nil {
		if err != nil {
			return Page{}, err
		}
		return page, nil // static extraction was thin but usable
	}
	renderedPage, rerr := f.extract(rendered, parsed, pageURL)
	if rerr != nil {
		return page, err
	}
	return renderedPage, nil
}

func (f *Fetcher) fetchStatic(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (f *Fetcher) extract(html string, parsed *nurl.URL, pageURL string) (Page, error) {
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return Page{}, fmt.Errorf("readability %s: %w", pageURL, err)
	}
	text := strings.TrimSpace(spacesRe.ReplaceAllString(article.TextContent, " "))
	maxChars := f.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return Page{URL: pageURL, Title: strings.TrimSpace(article.Title), Text: text}, nil
}

func renderHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return html, nil
}
