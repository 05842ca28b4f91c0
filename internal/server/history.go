package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/linkcampus/llex/internal/store"
	"github.com/linkcampus/llex/internal/telemetry"
)

// HistoryHandler exposes the read-only history and stats endpoints.
type HistoryHandler struct {
	Store     *store.Store
	Telemetry *telemetry.Telemetry
}

func (h *HistoryHandler) Register(g *echo.Group, secret []byte) {
	g.Use(authMiddleware(secret))
	g.GET("", h.history)
	g.GET("/stats", h.stats)
}

// history returns the caller's recent exchanges, newest first.
func (h *HistoryHandler) history(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	turns, err := h.Store.RecentTurns(c.Request().Context(), userID, limit*2)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Pair turns into exchanges by session id; turns arrive newest first.
	bySession := make(map[string]*HistoryItem)
	var order []string
	for _, t := range turns {
		item, ok := bySession[t.SessionID]
		if !ok {
			item = &HistoryItem{CreatedAt: t.CreatedAt.Format(time.RFC3339)}
			bySession[t.SessionID] = item
			order = append(order, t.SessionID)
		}
		switch t.Role {
		case "user":
			item.Question = t.Content
		case "assistant":
			item.Answer = t.Content
			item.Tool = t.Tool
			item.Score = t.Score
		}
	}
	resp := HistoryResponse{Items: []HistoryItem{}}
	for _, sid := range order {
		resp.Items = append(resp.Items, *bySession[sid])
		if len(resp.Items) == limit {
			break
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// stats aggregates answer counts and quality per tool.
func (h *HistoryHandler) stats(c echo.Context) error {
	stats, err := h.Store.ToolStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := StatsResponse{Tools: []ToolStatItem{}}
	for _, s := range stats {
		resp.Tools = append(resp.Tools, ToolStatItem{
			Tool:     s.Tool,
			Count:    s.Count,
			AvgScore: s.AvgScore,
			LastUsed: s.LastUsed.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// metricsSummary serves the coarse human-readable counters next to the
// prometheus scrape endpoint.
func metricsSummary(tel *telemetry.Telemetry) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, tel.GetSummary())
	}
}
