package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/linkcampus/llex/internal/stream"
)

// sseResponse switches the response into server-sent-events mode.
func sseResponse(c echo.Context) (*echo.Response, http.Flusher, error) {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return nil, nil, echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}
	return resp, flusher, nil
}

// writeChunk serializes one chunk as an SSE event and flushes it
// immediately.
func writeChunk(resp *echo.Response, flusher http.Flusher, c stream.Chunk) {
	_, _ = resp.Write([]byte("event: " + string(c.Kind) + "\n"))
	_, _ = resp.Write([]byte("data: "))
	_, _ = resp.Write(c.JSON())
	_, _ = resp.Write([]byte("\n\n"))
	flusher.Flush()
}

// yieldFn is swapped out in tests to observe pacing behavior.
var yieldFn = yield

// yield briefly hands the scheduler back so other streams progress. A
// positive delay paces the stream instead.
func yield(delay time.Duration) {
	if delay > 0 {
		time.Sleep(delay)
		return
	}
	time.Sleep(time.Millisecond)
}

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
