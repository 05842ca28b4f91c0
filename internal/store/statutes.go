package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// DefaultEmbeddingDimensions indicates the expected length of semantic
// vectors stored in the pgvector column of statute_chunks.
const DefaultEmbeddingDimensions = 3072

// StatuteChunk is one stored law article.
type StatuteChunk struct {
	LawName         string
	LawNameNorm     string
	ArticleNumber   string
	ArticleNumNorm  string
	ArticleTitle    string
	Text            string
	EnforcementDate string
}

// StatuteHit is a semantic search hit over statute text.
type StatuteHit struct {
	Chunk StatuteChunk
	Score float64 // cosine similarity, higher is closer
}

// FindArticle performs the exact structured lookup on normalized law name
// and article number.
func (s *Store) FindArticle(ctx context.Context, lawNameNorm, articleNorm string) (StatuteChunk, bool, error) {
	var c StatuteChunk
	err := s.DB.QueryRowContext(ctx, `
SELECT law_name, law_name_norm, article_number, article_number_norm, COALESCE(article_title,''), text, COALESCE(enforcement_date,'')
FROM statute_chunks
WHERE law_name_norm = $1 AND article_number_norm = $2
LIMIT 1`, lawNameNorm, articleNorm).Scan(
		&c.LawName, &c.LawNameNorm, &c.ArticleNumber, &c.ArticleNumNorm, &c.ArticleTitle, &c.Text, &c.EnforcementDate)
	if err == sql.ErrNoRows {
		return StatuteChunk{}, false, nil
	}
	if err != nil {
		return StatuteChunk{}, false, fmt.Errorf("find article: %w", err)
	}
	return c, true, nil
}

// SearchSimilarArticles returns the closest statute chunks for the supplied
// vector, optionally filtered to a normalized law name and article number.
func (s *Store) SearchSimilarArticles(ctx context.Context, vector []float32, lawNameNorm, articleNorm string, limit int) ([]StatuteHit, error) {
	if limit <= 0 {
		limit = 3
	}
	vecLiteral, err := encodeVectorLiteral(vector)
	if err != nil {
		return nil, err
	}
	query := `
SELECT law_name, law_name_norm, article_number, article_number_norm, COALESCE(article_title,''), text, COALESCE(enforcement_date,''), embedding <=> $1::vector AS distance
FROM statute_chunks
WHERE ($2 = '' OR law_name_norm = $2)
  AND ($3 = '' OR article_number_norm = $3)
ORDER BY embedding <=> $1::vector
LIMIT $4`
	rows, err := s.DB.QueryContext(ctx, query, vecLiteral, lawNameNorm, articleNorm, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar articles: %w", err)
	}
	defer rows.Close()

	var out []StatuteHit
	for rows.Next() {
		var h StatuteHit
		var distance float64
		if err := rows.Scan(&h.Chunk.LawName, &h.Chunk.LawNameNorm, &h.Chunk.ArticleNumber, &h.Chunk.ArticleNumNorm,
			&h.Chunk.ArticleTitle, &h.Chunk.Text, &h.Chunk.EnforcementDate, &distance); err != nil {
			return nil, fmt.Errorf("scan statute hit: %w", err)
		}
		h.Score = 1 - distance
		out = append(out, h)
	}
	return out, rows.Err()
}

// SearchStatuteText runs a keyword lookup over statute text for the
// history/database tool.
func (s *Store) SearchStatuteText(ctx context.Context, keyword string, limit int) ([]StatuteChunk, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT law_name, law_name_norm, article_number, article_number_norm, COALESCE(article_title,''), text, COALESCE(enforcement_date,'')
FROM statute_chunks
WHERE text ILIKE $1 OR law_name ILIKE $1
LIMIT $2`, "%"+keyword+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search statute text: %w", err)
	}
	defer rows.Close()

	var out []StatuteChunk
	for rows.Next() {
		var c StatuteChunk
		if err := rows.Scan(&c.LawName, &c.LawNameNorm, &c.ArticleNumber, &c.ArticleNumNorm, &c.ArticleTitle, &c.Text, &c.EnforcementDate); err != nil {
			return nil, fmt.Errorf("scan statute chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}
