// Package router classifies incoming questions into execution plans.
//
// Classification is a fixed-precedence rule table over the normalized
// question text prefixed with recent conversation history: the first
// matching rule wins, and the final rule always matches, so every
// question resolves to a plan.
package router

import (
	"context"
	"log"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/statute"
)

// HistoryReader supplies recent user/assistant turns for classification
// context. Implementations must return turns oldest-first.
type HistoryReader interface {
	RecentUserTexts(ctx context.Context, userID string, limit int) ([]string, error)
}

var statuteKeywords = []string{
	"법적근거", "법적 근거", "법령", "법조문", "조문",
	"근거", "기준", "조항", "법률", "시행령", "시행규칙",
}

var newsKeywords = []string{
	"뉴스", "보도", "이슈", "사건", "사고", "기사", "속보",
}

var blogKeywords = []string{
	"블로그", "포스팅", "후기", "리뷰", "경험담",
}

var dbKeywords = []string{
	"데이터에서", "기록에서", "db에서", "데이터 확인", "기록 확인",
}

var emotionalKeywords = []string{
	"힘들", "피곤", "기분", "고마워", "감사", "사랑", "재밌",
	"화나", "짜증", "슬퍼", "걱정", "무서워", "불안", "외로워",
}

type rule struct {
	name  string
	match func(normalized string) bool
	tool  plan.ToolID
}

// Router maps questions to plans via the ordered rule table.
type Router struct {
	history HistoryReader
	window  int
	logger  *log.Logger
	rules   []rule
}

// New constructs a Router. history may be nil, in which case
// classification runs over the bare question. window bounds how many
// prior turns are folded into the search string.
func New(history HistoryReader, window int) *Router {
	r := &Router{
		history: history,
		window:  window,
		logger:  log.New(log.Writer(), "[ROUTER] ", log.LstdFlags),
	}
	r.rules = []rule{
		{name: "statute-keyword", match: containsAny(statuteKeywords), tool: plan.StatuteLookup},
		{name: "core-law-name", match: matchesCoreLaw, tool: plan.StatuteLookup},
		{name: "news-keyword", match: containsAny(newsKeywords), tool: plan.NewsSearch},
		{name: "blog-keyword", match: containsAny(blogKeywords), tool: plan.BlogSearch},
		{name: "db-keyword", match: containsAny(dbKeywords), tool: plan.HistoryLookup},
		{name: "emotional-keyword", match: containsAny(emotionalKeywords), tool: plan.GeneralChat},
		{name: "default", match: func(string) bool { return true }, tool: plan.GeneralChat},
	}
	return r
}

// Classify maps (user, question) to a Plan. The plan always carries the
// original question text, never the normalized search string.
func (r *Router) Classify(ctx context.Context, userID, question string) plan.Plan {
	search := r.searchText(ctx, userID, question)
	for _, rl := range r.rules {
		if rl.match(search) {
			r.logger.Printf("classified user=%s rule=%s tool=%s", userID, rl.name, rl.tool)
			return plan.New(rl.tool, question)
		}
	}
	// Unreachable: the default rule always matches.
	return plan.New(plan.GeneralChat, question)
}

// searchText builds the normalized classification input: recent history
// turns (oldest first) concatenated ahead of the current question.
func (r *Router) searchText(ctx context.Context, userID, question string) string {
	parts := make([]string, 0, r.window+1)
	if r.history != nil && r.window > 0 {
		prior, err := r.history.RecentUserTexts(ctx, userID, r.window)
		if err != nil {
			r.logger.Printf("history read failed for user=%s: %v", userID, err)
		} else {
			parts = append(parts, prior...)
		}
	}
	parts = append(parts, question)
	return normalize(strings.Join(parts, " "))
}

// normalize composes Hangul to NFC, case-folds, and collapses spacing so
// variants like "근로 기준법" or decomposed-jamo input still match the
// keyword tables.
func normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	collapsed := strings.Join(strings.Fields(s), " ")
	return collapsed
}

func containsAny(keywords []string) func(string) bool {
	return func(s string) bool {
		squeezed := strings.ReplaceAll(s, " ", "")
		for _, kw := range keywords {
			if strings.Contains(s, kw) || strings.Contains(squeezed, strings.ReplaceAll(kw, " ", "")) {
				return true
			}
		}
		return false
	}
}

func matchesCoreLaw(s string) bool {
	return statute.DetectName(s) != ""
}
