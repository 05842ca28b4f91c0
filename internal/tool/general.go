package tool

import (
	"context"
	"fmt"
	"log"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/store"
	"github.com/linkcampus/llex/internal/stream"
	"github.com/linkcampus/llex/provider"
)

// ExchangeReader supplies recent (question, answer) pairs for
// conversational context.
type ExchangeReader interface {
	RecentExchanges(ctx context.Context, userID string, limit int) ([]store.Exchange, error)
}

const generalSystemPrompt = `당신은 산업안전 분야를 돕는 친근한 한국어 챗봇입니다. 일상 대화에는 따뜻하게 응답하고, 법령이나 안전 관련 질문이 섞여 있으면 전문적인 질문으로 다시 물어봐 달라고 안내하세요.`

// GeneralTool handles small talk and anything no other tool claims,
// folding recent exchanges into the conversation context.
type GeneralTool struct {
	history  ExchangeReader
	provider provider.Provider
	window   int
	logger   *log.Logger
}

func NewGeneralTool(history ExchangeReader, p provider.Provider, window int) *GeneralTool {
	return &GeneralTool{
		history:  history,
		provider: p,
		window:   window,
		logger:   log.New(log.Writer(), "[GENERAL] ", log.LstdFlags),
	}
}

func (t *GeneralTool) ID() plan.ToolID { return plan.GeneralChat }

func (t *GeneralTool) Run(ctx context.Context, p plan.Plan) <-chan stream.Chunk {
	return produce(ctx, t.logger, "general chat", func(ctx context.Context, emit emitFn) error {
		query := p.Query()
		userID := p.Args["user_id"]
		emit(stream.Status("답변을 준비하고 있습니다"))

		messages := []provider.Message{{Role: "system", Content: generalSystemPrompt}}
		if t.history != nil && userID != "" {
			exchanges, err := t.history.RecentExchanges(ctx, userID, t.window)
			if err != nil {
				t.logger.Printf("history read failed for user=%s: %v", userID, err)
			} else {
				for _, ex := range exchanges {
					if ex.Question != "" {
						messages = append(messages, provider.Message{Role: "user", Content: ex.Question})
					}
					if ex.Answer != "" {
						messages = append(messages, provider.Message{Role: "assistant", Content: ex.Answer})
					}
				}
			}
		}
		messages = append(messages, provider.Message{Role: "user", Content: query})

		err := t.provider.StreamComplete(ctx, messages, provider.Options{}, func(token string) error {
			emit(stream.Text(token))
			return nil
		})
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		return nil
	})
}
