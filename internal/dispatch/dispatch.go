// Package dispatch runs plans against the tool registry and applies the
// single tool-level fallback: a statute lookup whose answer reads as "not
// found" is retried once through open web search.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/stream"
	"github.com/linkcampus/llex/internal/telemetry"
	"github.com/linkcampus/llex/internal/tool"
)

// Dispatcher executes plans, forwarding tool chunks unchanged.
type Dispatcher struct {
	registry  *tool.Registry
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

func New(registry *tool.Registry, tel *telemetry.Telemetry) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		telemetry: tel,
		logger:    log.New(log.Writer(), "[DISPATCH] ", log.LstdFlags),
	}
}

// Result reports which tool finally produced the answer, so callers can
// persist the producing tool rather than the routed one. Read it only
// after the chunk channel closes.
type Result struct {
	tool plan.ToolID
}

// Tool returns the finally-executed tool id.
func (r *Result) Tool() plan.ToolID { return r.tool }

// Execute runs the plan's tool and streams its chunks through unmodified.
// Text payloads are accumulated on the side to decide the fallback; the
// fallback runs at most once and only for statute lookup.
func (d *Dispatcher) Execute(ctx context.Context, p plan.Plan) (<-chan stream.Chunk, *Result) {
	out := make(chan stream.Chunk, 16)
	res := &Result{tool: p.Tool}
	go func() {
		defer close(out)
		emit := func(c stream.Chunk) bool {
			select {
			case out <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		t, ok := d.registry.Lookup(p.Tool)
		if !ok {
			d.logger.Printf("unknown tool id %q", p.Tool)
			emit(stream.Error(fmt.Sprintf("알 수 없는 도구입니다: %s", p.Tool)))
			return
		}
		if d.telemetry != nil {
			d.telemetry.RecordAgentUsage(string(p.Tool))
		}

		var text strings.Builder
		for c := range t.Run(ctx, p) {
			if c.Kind == stream.KindText {
				text.WriteString(c.TextPayload())
			}
			if !emit(c) {
				return
			}
		}

		if p.Tool != plan.StatuteLookup || !notFound(text.String()) {
			return
		}

		fallback, ok := d.registry.Lookup(plan.WebSearch)
		if !ok {
			d.logger.Print("fallback wanted but web search tool not registered")
			return
		}
		d.logger.Printf("statute answer looks empty, retrying via web search: %s", p.Summary())
		if d.telemetry != nil {
			d.telemetry.RecordFallback(string(plan.StatuteLookup), string(plan.WebSearch))
		}
		res.tool = plan.WebSearch
		if !emit(stream.Status("법령에서 답을 찾지 못해 웹 검색으로 다시 시도합니다")) {
			return
		}
		fb := p.WithTool(plan.WebSearch)
		fb.Handler = plan.HandlerStatuteFallback
		for c := range fallback.Run(ctx, fb) {
			if !emit(c) {
				return
			}
		}
	}()
	return out, res
}

// notFound is the coarse lexical signature of an empty statute answer: a
// statute/article term co-occurring with a negation.
func notFound(answer string) bool {
	hasTerm := strings.Contains(answer, "조문") || strings.Contains(answer, "법령")
	hasNegation := strings.Contains(answer, "없")
	return hasTerm && hasNegation
}
