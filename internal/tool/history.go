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
)

// HistoryStore is the slice of the store the history tool needs.
type HistoryStore interface {
	SearchTurns(ctx context.Context, userID, keyword string, limit int) ([]store.Turn, error)
	SearchStatuteText(ctx context.Context, keyword string, limit int) ([]store.StatuteChunk, error)
}

// HistoryTool answers explicit database-query questions from persisted
// data: past conversation turns, or stored statute text when the query
// names a law.
type HistoryTool struct {
	store  HistoryStore
	limit  int
	logger *log.Logger
}

func NewHistoryTool(st HistoryStore, limit int) *HistoryTool {
	return &HistoryTool{
		store:  st,
		limit:  limit,
		logger: log.New(log.Writer(), "[HISTORY] ", log.LstdFlags),
	}
}

func (t *HistoryTool) ID() plan.ToolID { return plan.HistoryLookup }

func (t *HistoryTool) Run(ctx context.Context, p plan.Plan) <-chan stream.Chunk {
	return produce(ctx, t.logger, "history lookup", func(ctx context.Context, emit emitFn) error {
		query := p.Query()
		userID := p.Args["user_id"]
		emit(stream.Status("저장된 데이터에서 검색하고 있습니다"))

		// Queries naming a law search statute text; everything else
		// searches the user's own past questions.
		if statute.DetectName(query) != "" {
			chunks, err := t.store.SearchStatuteText(ctx, keywordOf(query), t.limit)
			if err != nil {
				return fmt.Errorf("statute text search: %w", err)
			}
			if len(chunks) == 0 {
				emit(stream.Text("저장된 법령 데이터에서 관련 내용을 찾지 못했습니다."))
				return nil
			}
			var sb strings.Builder
			sb.WriteString("저장된 법령 데이터에서 찾은 내용입니다.\n\n")
			for _, c := range chunks {
				fmt.Fprintf(&sb, "- %s 제%s조", c.LawName, c.ArticleNumber)
				if c.ArticleTitle != "" {
					fmt.Fprintf(&sb, "(%s)", c.ArticleTitle)
				}
				fmt.Fprintf(&sb, ": %s\n", truncate(c.Text, 200))
			}
			emit(stream.Text(sb.String()))
			return nil
		}

		turns, err := t.store.SearchTurns(ctx, userID, keywordOf(query), t.limit)
		if err != nil {
			return fmt.Errorf("turn search: %w", err)
		}
		if len(turns) == 0 {
			emit(stream.Text("대화 기록에서 관련 내용을 찾지 못했습니다."))
			return nil
		}
		var sb strings.Builder
		sb.WriteString("대화 기록에서 찾은 질문입니다.\n\n")
		for _, turn := range turns {
			fmt.Fprintf(&sb, "- [%s] %s\n", turn.CreatedAt.Format("2006-01-02"), truncate(turn.Content, 120))
		}
		emit(stream.Text(sb.String()))
		return nil
	})
}

// keywordOf strips the database-query framing words so the remainder is
// usable as a search keyword.
func keywordOf(query string) string {
	drop := []string{"데이터에서", "기록에서", "db에서", "데이터 확인", "기록 확인", "찾아줘", "알려줘", "검색해줘"}
	out := query
	for _, d := range drop {
		out = strings.ReplaceAll(out, d, " ")
	}
	return strings.Join(strings.Fields(out), " ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
