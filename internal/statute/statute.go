// Package statute holds the curated statute catalog and the text utilities
// shared by the router and the statute lookup tool.
package statute

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CoreLaws is the fixed curated list of law titles that are always routable
// to statute lookup, longest titles first so containment checks match the
// most specific variant.
var CoreLaws = []string{
	"산업안전보건기준에관한규칙",
	"산업안전보건법시행규칙",
	"산업안전보건법시행령",
	"산업안전보건법",
	"재난및안전관리기본법시행규칙",
	"재난및안전관리기본법시행령",
	"재난및안전관리기본법",
	"중대재해처벌등에관한법률시행령",
	"중대재해처벌등에관한법률",
}

var (
	spacingRe = regexp.MustCompile(`[\s·]+`)
	articleRe = regexp.MustCompile(`(?:제)?\s*(\d+)\s*조`)
	digitsRe  = regexp.MustCompile(`[^\d]`)
)

// NormalizeName composes Hangul to NFC and collapses spacing and middle
// dots so law-name variants compare equal ("산업안전보건법 시행령" ==
// "산업안전보건법시행령"). Decomposed jamo input, common from macOS file
// names and some IMEs, matches the catalog after composition.
func NormalizeName(name string) string {
	name = norm.NFC.String(name)
	return spacingRe.ReplaceAllString(strings.TrimSpace(name), "")
}

// NormalizeArticle strips everything but digits from an article reference.
func NormalizeArticle(article string) string {
	return digitsRe.ReplaceAllString(article, "")
}

// DetectName returns the normalized core law title contained in the query,
// or "" when none matches.
func DetectName(query string) string {
	q := NormalizeName(query)
	for _, law := range CoreLaws {
		if strings.Contains(q, law) {
			return law
		}
	}
	return ""
}

// DetectArticle extracts the article number from references like "제22조" or
// "22 조". Returns "" when the query carries no article marker.
func DetectArticle(query string) string {
	m := articleRe.FindStringSubmatch(query)
	if m == nil {
		return ""
	}
	return m[1]
}

// CanonicalLink builds the law.go.kr deep link for a law article.
func CanonicalLink(lawName, article string) string {
	return fmt.Sprintf("https://www.law.go.kr/법령/%s/제%s조", url.PathEscape(lawName), article)
}
