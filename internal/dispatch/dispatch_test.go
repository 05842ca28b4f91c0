package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/stream"
	"github.com/linkcampus/llex/internal/tool"
)

// scriptedTool replays canned chunks and records the plans it was
// invoked with.
type scriptedTool struct {
	id     plan.ToolID
	chunks []stream.Chunk
	runs   int
	plans  []plan.Plan
}

func (s *scriptedTool) ID() plan.ToolID { return s.id }

func (s *scriptedTool) Run(ctx context.Context, p plan.Plan) <-chan stream.Chunk {
	s.runs++
	s.plans = append(s.plans, p)
	out := make(chan stream.Chunk, len(s.chunks)+1)
	for _, c := range s.chunks {
		out <- c
	}
	close(out)
	return out
}

func collect(ch <-chan stream.Chunk) []stream.Chunk {
	var out []stream.Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestExecuteUnknownTool(t *testing.T) {
	d := New(tool.NewRegistry(), nil)
	ch, res := d.Execute(context.Background(), plan.New(plan.ToolID("bogus"), "질문"))
	chunks := collect(ch)
	if len(chunks) != 1 || chunks[0].Kind != stream.KindError {
		t.Fatalf("chunks = %+v, want exactly one error chunk", chunks)
	}
	if res.Tool() != plan.ToolID("bogus") {
		t.Fatalf("res.Tool() = %s, want the requested id", res.Tool())
	}
}

func TestExecutePassThroughOrder(t *testing.T) {
	st := &scriptedTool{id: plan.GeneralChat, chunks: []stream.Chunk{
		stream.Status("준비"),
		stream.Text("안녕"),
		stream.Text("하세요"),
	}}
	d := New(tool.NewRegistry(st), nil)
	ch, res := d.Execute(context.Background(), plan.New(plan.GeneralChat, "안녕"))
	chunks := collect(ch)
	if len(chunks) != 3 {
		t.Fatalf("len = %d, want 3", len(chunks))
	}
	for i, want := range []stream.Kind{stream.KindStatus, stream.KindText, stream.KindText} {
		if chunks[i].Kind != want {
			t.Errorf("chunk %d kind = %s, want %s", i, chunks[i].Kind, want)
		}
	}
	if res.Tool() != plan.GeneralChat {
		t.Errorf("res.Tool() = %s, want %s", res.Tool(), plan.GeneralChat)
	}
}

func TestExecuteStatuteFallback(t *testing.T) {
	statuteTool := &scriptedTool{id: plan.StatuteLookup, chunks: []stream.Chunk{
		stream.Status("검색"),
		stream.Text("관련 법령 조문을 찾을 수 없습니다."),
	}}
	webTool := &scriptedTool{id: plan.WebSearch, chunks: []stream.Chunk{
		stream.Status("웹 검색"),
		stream.Text("웹에서 찾은 답변입니다."),
	}}
	d := New(tool.NewRegistry(statuteTool, webTool), nil)
	ch, res := d.Execute(context.Background(), plan.New(plan.StatuteLookup, "질문"))
	chunks := collect(ch)

	if webTool.runs != 1 {
		t.Fatalf("web tool runs = %d, want 1", webTool.runs)
	}
	// Original chunks first, then the fallback announcement, then the
	// web tool's chunks.
	if len(chunks) != 5 {
		t.Fatalf("len = %d, want 5: %+v", len(chunks), chunks)
	}
	if chunks[2].Kind != stream.KindStatus || !strings.Contains(chunks[2].TextPayload(), "다시 시도") {
		t.Fatalf("chunk 2 = %+v, want fallback status", chunks[2])
	}
	if chunks[4].TextPayload() != "웹에서 찾은 답변입니다." {
		t.Fatalf("chunk 4 = %+v", chunks[4])
	}
	if res.Tool() != plan.WebSearch {
		t.Fatalf("res.Tool() = %s, want %s after fallback", res.Tool(), plan.WebSearch)
	}
}

func TestExecuteFallbackPlanCarriesMarker(t *testing.T) {
	// The substituted plan names the fallback handler and keeps the
	// original question, so the web tool can append its caveat.
	statuteTool := &scriptedTool{id: plan.StatuteLookup, chunks: []stream.Chunk{
		stream.Text("관련 법령 조문을 찾을 수 없습니다."),
	}}
	webTool := &scriptedTool{id: plan.WebSearch, chunks: []stream.Chunk{
		stream.Text("웹 기반 요약입니다."),
	}}
	d := New(tool.NewRegistry(statuteTool, webTool), nil)
	ch, _ := d.Execute(context.Background(), plan.New(plan.StatuteLookup, "중대재해 처벌 기준"))
	collect(ch)

	if len(webTool.plans) != 1 {
		t.Fatalf("web tool plans = %d, want 1", len(webTool.plans))
	}
	fb := webTool.plans[0]
	if fb.Handler != plan.HandlerStatuteFallback {
		t.Errorf("fallback handler = %q, want %q", fb.Handler, plan.HandlerStatuteFallback)
	}
	if fb.Query() != "중대재해 처벌 기준" {
		t.Errorf("fallback query = %q, want original question", fb.Query())
	}
	if len(statuteTool.plans) != 1 || statuteTool.plans[0].Handler != "" {
		t.Errorf("original plan handler = %q, want empty", statuteTool.plans[0].Handler)
	}
}

func TestExecuteFallbackNotRecursive(t *testing.T) {
	// The web tool itself answers "not found"; no second fallback fires.
	statuteTool := &scriptedTool{id: plan.StatuteLookup, chunks: []stream.Chunk{
		stream.Text("조문이 없습니다."),
	}}
	webTool := &scriptedTool{id: plan.WebSearch, chunks: []stream.Chunk{
		stream.Text("관련 법령 조문을 찾을 수 없습니다."),
	}}
	d := New(tool.NewRegistry(statuteTool, webTool), nil)
	ch, _ := d.Execute(context.Background(), plan.New(plan.StatuteLookup, "질문"))
	collect(ch)
	if webTool.runs != 1 {
		t.Fatalf("web tool runs = %d, want exactly 1", webTool.runs)
	}
	if statuteTool.runs != 1 {
		t.Fatalf("statute tool runs = %d, want exactly 1", statuteTool.runs)
	}
}

func TestExecuteNoFallbackForOtherTools(t *testing.T) {
	newsTool := &scriptedTool{id: plan.NewsSearch, chunks: []stream.Chunk{
		stream.Text("관련 법령 조문을 찾을 수 없습니다."),
	}}
	webTool := &scriptedTool{id: plan.WebSearch}
	d := New(tool.NewRegistry(newsTool, webTool), nil)
	ch, res := d.Execute(context.Background(), plan.New(plan.NewsSearch, "질문"))
	collect(ch)
	if webTool.runs != 0 {
		t.Fatalf("web tool runs = %d, want 0 (fallback is statute-only)", webTool.runs)
	}
	if res.Tool() != plan.NewsSearch {
		t.Fatalf("res.Tool() = %s, want %s", res.Tool(), plan.NewsSearch)
	}
}

func TestExecuteNoFallbackOnFoundAnswer(t *testing.T) {
	statuteTool := &scriptedTool{id: plan.StatuteLookup, chunks: []stream.Chunk{
		stream.Text("산업안전보건법 제38조에 따르면 사업주는 안전조치를 하여야 합니다."),
	}}
	webTool := &scriptedTool{id: plan.WebSearch}
	d := New(tool.NewRegistry(statuteTool, webTool), nil)
	ch, res := d.Execute(context.Background(), plan.New(plan.StatuteLookup, "질문"))
	collect(ch)
	if webTool.runs != 0 {
		t.Fatalf("web tool runs = %d, want 0", webTool.runs)
	}
	if res.Tool() != plan.StatuteLookup {
		t.Fatalf("res.Tool() = %s, want %s", res.Tool(), plan.StatuteLookup)
	}
}

func TestNotFoundSignature(t *testing.T) {
	cases := []struct {
		answer string
		want   bool
	}{
		{"관련 조문을 찾을 수 없습니다", true},
		{"해당 법령이 없습니다", true},
		{"조문은 다음과 같습니다", false},
		{"정보가 없습니다", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := notFound(tc.answer); got != tc.want {
			t.Errorf("notFound(%q) = %v, want %v", tc.answer, got, tc.want)
		}
	}
}
