package plan

import (
	"fmt"
	"sort"
	"time"
)

// ToolID names one of the closed set of answer-production strategies.
type ToolID string

const (
	StatuteLookup ToolID = "statute_lookup"
	NewsSearch    ToolID = "news_search"
	BlogSearch    ToolID = "blog_search"
	WebSearch     ToolID = "web_search"
	HistoryLookup ToolID = "history_lookup"
	GeneralChat   ToolID = "general_chat"
)

// All lists every valid tool id.
func All() []ToolID {
	return []ToolID{StatuteLookup, NewsSearch, BlogSearch, WebSearch, HistoryLookup, GeneralChat}
}

// Known reports whether id belongs to the closed tool set.
func Known(id ToolID) bool {
	for _, t := range All() {
		if t == id {
			return true
		}
	}
	return false
}

// HandlerStatuteFallback marks a plan the dispatcher substituted after a
// statute lookup came back empty. Tools that can run in that role use it
// to flag the answer as lacking a statutory basis.
const HandlerStatuteFallback = "statute_fallback"

// Plan is the router's standard execution plan: which tool to run and with
// what arguments. A plan is created once per request and never mutated; the
// dispatcher's fallback derives a new value via WithTool.
type Plan struct {
	Tool      ToolID
	Args      map[string]string
	Handler   string // optional post-processing composer id
	CreatedAt time.Time
}

// New builds a plan for the given tool carrying the user query.
func New(tool ToolID, query string) Plan {
	return Plan{
		Tool:      tool,
		Args:      map[string]string{"query": query},
		CreatedAt: time.Now(),
	}
}

// Query returns the plan's query argument.
func (p Plan) Query() string { return p.Args["query"] }

// WithTool returns a copy of the plan with the tool id substituted. The
// argument map is copied so the original plan stays untouched.
func (p Plan) WithTool(tool ToolID) Plan {
	args := make(map[string]string, len(p.Args))
	for k, v := range p.Args {
		args[k] = v
	}
	return Plan{Tool: tool, Args: args, Handler: p.Handler, CreatedAt: p.CreatedAt}
}

// Summary renders a short log-friendly description.
func (p Plan) Summary() string {
	keys := make([]string, 0, len(p.Args))
	for k := range p.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("Plan(tool=%s, args=%v)", p.Tool, keys)
}
