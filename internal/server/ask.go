package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/linkcampus/llex/internal/dispatch"
	"github.com/linkcampus/llex/internal/graph"
	"github.com/linkcampus/llex/internal/plan"
	"github.com/linkcampus/llex/internal/router"
	"github.com/linkcampus/llex/internal/stream"
	"github.com/linkcampus/llex/internal/telemetry"
)

// HistoryAppender persists one finished question/answer exchange.
// *store.HistoryCache satisfies it.
type HistoryAppender interface {
	AppendTurnPair(ctx context.Context, userID, question, answer, tool string, score int) error
}

// AskHandler serves both streaming question endpoints: /ask runs the
// dispatcher path, /ask-multi runs the agent graph.
type AskHandler struct {
	Router     *router.Router
	Dispatcher *dispatch.Dispatcher
	Workflow   *graph.Workflow
	History    HistoryAppender
	Telemetry  *telemetry.Telemetry

	// YieldEvery inserts a scheduling yield after that many chunks so one
	// stream cannot starve concurrent requests.
	YieldEvery int
	// ChunkSize is the rune width used when re-chunking the graph path's
	// final answer.
	ChunkSize int
	// ChunkDelay paces the graph path's re-chunked stream.
	ChunkDelay time.Duration

	logger *log.Logger
}

func (h *AskHandler) Register(g *echo.Group, secret []byte) {
	h.logger = log.New(log.Writer(), "[ASK] ", log.LstdFlags)
	g.POST("/ask", h.ask, authMiddleware(secret))
	g.POST("/ask-multi", h.askMulti, authMiddleware(secret))
}

// ask streams the dispatcher path over SSE.
func (h *AskHandler) ask(c echo.Context) error {
	req, userID, err := h.bind(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	started := time.Now()
	done := h.Telemetry.RequestStarted("/api/ask")
	defer done()

	p := h.Router.Classify(ctx, userID, req.Question)
	p.Args["user_id"] = userID
	h.logger.Printf("user=%s mode=%s %s", userID, req.Mode, p.Summary())

	if req.Mode == "sync" {
		return h.askSync(c, p, userID, req.Question, started)
	}

	sse, flusher, err := sseResponse(c)
	if err != nil {
		return err
	}

	chunks, res := h.Dispatcher.Execute(ctx, p)
	answer, hadError := h.pump(c, sse, flusher, chunks)
	// res is safe to read once the chunk channel has closed; after a
	// fallback it names web_search, not the routed statute_lookup.
	tool := string(res.Tool())
	h.persistAndFinish(c, sse, flusher, userID, req.Question, answer, tool)

	status := "ok"
	if hadError {
		status = "error"
	}
	h.Telemetry.RecordRequest("/api/ask", tool, status)
	h.Telemetry.RecordResponseTime("/api/ask", tool, time.Since(started))
	return nil
}

// askSync drains the dispatcher stream and returns the whole answer as
// one JSON body.
func (h *AskHandler) askSync(c echo.Context, p plan.Plan, userID, question string, started time.Time) error {
	ctx := c.Request().Context()
	chunks, res := h.Dispatcher.Execute(ctx, p)
	var text strings.Builder
	for chunk := range chunks {
		if chunk.Kind == stream.KindText {
			text.WriteString(chunk.TextPayload())
		}
	}
	answer := text.String()
	tool := string(res.Tool())
	score := qualityScore(answer)
	pctx, cancel := contextWithTimeout(5 * time.Second)
	defer cancel()
	if err := h.History.AppendTurnPair(pctx, userID, question, answer, tool, score); err != nil {
		h.logger.Printf("persist failed for user=%s: %v", userID, err)
		h.Telemetry.RecordError("/api/ask", "persistence")
	}
	h.Telemetry.RecordRequest("/api/ask", tool, "ok")
	h.Telemetry.RecordResponseTime("/api/ask", tool, time.Since(started))
	return c.JSON(http.StatusOK, AskResponse{Answer: answer, Tool: tool, Score: score})
}

// askMulti streams the agent graph path. The graph produces one final
// answer string, which is re-chunked into fixed-size pieces for the
// client so both endpoints share the same wire shape.
func (h *AskHandler) askMulti(c echo.Context) error {
	req, userID, err := h.bind(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	started := time.Now()
	done := h.Telemetry.RequestStarted("/api/ask-multi")
	defer done()

	sse, flusher, err := sseResponse(c)
	if err != nil {
		return err
	}

	state, runErr := h.Workflow.Run(ctx, userID, req.Question)
	if runErr != nil {
		h.logger.Printf("workflow failed for user=%s: %v", userID, runErr)
		writeChunk(sse, flusher, stream.Error("질문 처리에 실패했습니다"))
		h.Telemetry.RecordError("/api/ask-multi", "workflow")
		h.Telemetry.RecordRequest("/api/ask-multi", string(state.Tool), "error")
		return nil
	}

	emitted := 0
	for _, piece := range rechunk(state.Answer, h.ChunkSize) {
		if ctx.Err() != nil {
			return nil
		}
		writeChunk(sse, flusher, stream.Text(piece))
		emitted++
		if h.YieldEvery > 0 && emitted%h.YieldEvery == 0 {
			yield(h.ChunkDelay)
		} else if h.ChunkDelay > 0 {
			time.Sleep(h.ChunkDelay)
		}
	}
	for _, src := range state.Sources {
		writeChunk(sse, flusher, src)
	}
	h.persistAndFinish(c, sse, flusher, userID, req.Question, state.Answer, string(state.Tool))

	h.Telemetry.RecordAgentUsage(string(state.Tool))
	h.Telemetry.RecordRequest("/api/ask-multi", string(state.Tool), "ok")
	h.Telemetry.RecordResponseTime("/api/ask-multi", string(state.Tool), time.Since(started))
	return nil
}

func (h *AskHandler) bind(c echo.Context) (AskRequest, string, error) {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return req, "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Question) == "" {
		return req, "", echo.NewHTTPError(http.StatusBadRequest, "question required")
	}
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return req, "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return req, userID, nil
}

// pump forwards the chunk stream to the client in emission order,
// accumulating text for persistence and yielding periodically.
func (h *AskHandler) pump(c echo.Context, sse *echo.Response, flusher http.Flusher, chunks <-chan stream.Chunk) (string, bool) {
	ctx := c.Request().Context()
	var text strings.Builder
	var hadError bool
	textCount := 0
	for chunk := range chunks {
		if ctx.Err() != nil {
			return text.String(), hadError
		}
		if chunk.Kind == stream.KindError {
			hadError = true
			h.Telemetry.RecordError(c.Path(), "tool")
		}
		writeChunk(sse, flusher, chunk)
		// The pacing yield counts text chunks only; status and source
		// chunks pass through unthrottled.
		if chunk.Kind == stream.KindText {
			text.WriteString(chunk.TextPayload())
			textCount++
			if h.YieldEvery > 0 && textCount%h.YieldEvery == 0 {
				yieldFn(0)
			}
		}
	}
	return text.String(), hadError
}

// persistAndFinish appends the finished exchange and reports the outcome
// as the stream's final chunk. The append is attempted exactly once per
// stream, even for an empty answer; a persistence failure turns into a
// warning, never a dropped answer.
func (h *AskHandler) persistAndFinish(c echo.Context, sse *echo.Response, flusher http.Flusher, userID, question, answer, tool string) {
	if c.Request().Context().Err() != nil {
		return
	}
	// Persistence must survive client disconnect during the write, so it
	// runs on a fresh context.
	ctx, cancel := contextWithTimeout(5 * time.Second)
	defer cancel()
	score := qualityScore(answer)
	if err := h.History.AppendTurnPair(ctx, userID, question, answer, tool, score); err != nil {
		h.logger.Printf("persist failed for user=%s: %v", userID, err)
		h.Telemetry.RecordError(c.Path(), "persistence")
		writeChunk(sse, flusher, stream.Warning("답변은 전달되었지만 대화 기록 저장에 실패했습니다"))
		return
	}
	writeChunk(sse, flusher, stream.Status("저장 완료"))
}

// rechunk splits an answer into fixed-size rune pieces.
func rechunk(s string, size int) []string {
	if size <= 0 {
		size = 20
	}
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
