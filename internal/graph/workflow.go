package graph

import (
	"context"
	"fmt"
	"log"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/router"
	"github.com/linkcampus/llex/internal/stream"
	"github.com/linkcampus/llex/internal/tool"
)

// State carries one question through the agent graph. It lives for a
// single execution and is discarded afterwards.
type State struct {
	UserID   string
	Question string
	Tool     plan.ToolID
	Answer   string
	Sources  []stream.Chunk
}

// Workflow is the alternate orchestration path: a router node followed
// by one absorbing agent node per tool. Unlike the dispatcher there is
// no fallback here; an empty answer is returned as-is.
type Workflow struct {
	compiled *Compiled[State]
	logger   *log.Logger
}

const routerNode = "router"

// NewWorkflow wires the router and every registered tool into a compiled
// graph.
func NewWorkflow(r *router.Router, registry *tool.Registry) (*Workflow, error) {
	g := NewGraph[State]()

	g.AddNode(routerNode, func(ctx context.Context, s State) (State, error) {
		p := r.Classify(ctx, s.UserID, s.Question)
		s.Tool = p.Tool
		return s, nil
	})

	pathMap := make(map[string]string, len(plan.All()))
	for _, id := range plan.All() {
		id := id
		name := "agent_" + string(id)
		pathMap[string(id)] = name
		g.AddNode(name, func(ctx context.Context, s State) (State, error) {
			t, ok := registry.Lookup(id)
			if !ok {
				return s, fmt.Errorf("tool %q not registered", id)
			}
			p := plan.New(id, s.Question)
			p.Args["user_id"] = s.UserID
			answer, chunks := tool.Drain(t.Run(ctx, p))
			s.Answer = answer
			for _, c := range chunks {
				if c.Kind == stream.KindSource {
					s.Sources = append(s.Sources, c)
				}
			}
			return s, nil
		})
		g.AddEdge(name, End)
	}

	g.SetEntryPoint(routerNode)
	g.AddConditionalEdges(routerNode, func(ctx context.Context, s State) string {
		return routeLabel(s)
	}, pathMap)

	compiled, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile workflow: %w", err)
	}
	return &Workflow{
		compiled: compiled,
		logger:   log.New(log.Writer(), "[GRAPH] ", log.LstdFlags),
	}, nil
}

// routeLabel maps the routed tool id to its agent edge. Unrecognized
// ids land on general conversation so the graph never stalls.
func routeLabel(s State) string {
	if !plan.Known(s.Tool) {
		return string(plan.GeneralChat)
	}
	return string(s.Tool)
}

// Run executes the graph for one question and returns the final state.
func (w *Workflow) Run(ctx context.Context, userID, question string) (State, error) {
	state, err := w.compiled.Invoke(ctx, State{UserID: userID, Question: question})
	if err != nil {
		return state, err
	}
	w.logger.Printf("user=%s tool=%s answer_len=%d", userID, state.Tool, len(state.Answer))
	return state, nil
}
