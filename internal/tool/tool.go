// Package tool implements the answer-producing units behind the dispatcher
// and the agent graph. Every tool turns a plan into an ordered chunk
// stream with a hard boundary guarantee: at least one chunk is always
// emitted, and an internal failure surfaces as exactly one error chunk.
package tool

import (
	"context"
	"fmt"
	"log"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/stream"
)

// Tool is one answer-production strategy.
type Tool interface {
	ID() plan.ToolID
	Run(ctx context.Context, p plan.Plan) <-chan stream.Chunk
}

// Registry resolves tool ids to implementations.
type Registry struct {
	tools map[plan.ToolID]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	m := make(map[plan.ToolID]Tool, len(tools))
	for _, t := range tools {
		m[t.ID()] = t
	}
	return &Registry{tools: m}
}

func (r *Registry) Lookup(id plan.ToolID) (Tool, bool) {
	t, ok := r.tools[id]
	return t, ok
}

func (r *Registry) IDs() []plan.ToolID {
	out := make([]plan.ToolID, 0, len(r.tools))
	for id := range r.tools {
		out = append(out, id)
	}
	return out
}

// emitFn pushes one chunk downstream. It drops the chunk when the
// consumer is gone (context cancelled).
type emitFn func(stream.Chunk)

// produce runs fn on its own goroutine and owns the output channel
// lifecycle. fn reports failures via its error return only; produce
// translates that into the single terminal error chunk.
func produce(ctx context.Context, logger *log.Logger, name string, fn func(ctx context.Context, emit emitFn) error) <-chan stream.Chunk {
	out := make(chan stream.Chunk, 16)
	go func() {
		defer close(out)
		emit := func(c stream.Chunk) {
			select {
			case out <- c:
			case <-ctx.Done():
			}
		}
		if err := fn(ctx, emit); err != nil {
			logger.Printf("%s failed: %v", name, err)
			emit(stream.Error(fmt.Sprintf("처리 중 오류가 발생했습니다: %v", err)))
		}
	}()
	return out
}

// Drain collects a full chunk stream, returning the concatenated text
// answer and every chunk in order. Used by the agent graph, which needs
// the final answer rather than the live stream.
func Drain(ch <-chan stream.Chunk) (string, []stream.Chunk) {
	var text string
	var all []stream.Chunk
	for c := range ch {
		all = append(all, c)
		if c.Kind == stream.KindText {
			text += c.TextPayload()
		}
	}
	return text, all
}
