package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linkcampus/llex/config"
	"github.com/linkcampus/llex/internal/dispatch"
	"github.com/linkcampus/llex/internal/graph"
	"github.com/linkcampus/llex/internal/router"
	"github.com/linkcampus/llex/internal/store"
	"github.com/linkcampus/llex/internal/telemetry"
	"github.com/linkcampus/llex/internal/tool"
	"github.com/linkcampus/llex/provider"
	webfetch "github.com/linkcampus/llex/tools/web_fetch"
	websearch "github.com/linkcampus/llex/tools/web_search"
	"github.com/linkcampus/llex/tools/web_search/brave"
	"github.com/linkcampus/llex/tools/web_search/naver"
	"github.com/linkcampus/llex/tools/web_search/newsapi"
	"github.com/linkcampus/llex/tools/web_search/serper"
)

// Run builds the full service from config and serves it on addr until
// the process exits.
func Run(addr string, configPath string) error {
	cfg := config.LoadConfig(configPath)
	if addr == "" {
		addr = cfg.Server.Address
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })

	// Shared dependencies (top-level DI)
	ctx := context.Background()
	dsn, err := cfg.Databases.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		baseLogger.Printf("migrations skipped: %v", err)
	}
	st, err := store.New(ctx, dsn)
	if err != nil {
		return err
	}

	var history *store.HistoryCache
	if cfg.Databases.Redis.Enabled {
		rdb, err := store.Conn(ctx, cfg.Databases.Redis.Host, cfg.Databases.Redis.Port, cfg.Databases.Redis.Password, cfg.Databases.Redis.DB)
		if err != nil {
			baseLogger.Printf("redis unavailable, history cache disabled: %v", err)
			history = store.NewHistoryCache(st, nil, cfg.Databases.Redis.TTL)
		} else {
			history = store.NewHistoryCache(st, rdb, cfg.Databases.Redis.TTL)
		}
	} else {
		history = store.NewHistoryCache(st, nil, cfg.Databases.Redis.TTL)
	}

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	tel := telemetry.New()
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
		e.GET("/metrics/summary", metricsSummary(tel))
	}
	e.GET("/api/dashboard", dashboard)

	// Search providers: every configured key becomes a searcher; tools
	// pick the verticals they need.
	var newsSearchers, blogSearchers, webSearchers []websearch.Searcher
	if cfg.Search.NewsAPIKey != "" {
		newsSearchers = append(newsSearchers, newsapi.Search{ApiKey: cfg.Search.NewsAPIKey})
	}
	if cfg.Search.NaverClientID != "" {
		nv := func(kind naver.Kind) naver.Search {
			return naver.Search{ClientID: cfg.Search.NaverClientID, ClientSecret: cfg.Search.NaverClientSecret, Kind: kind}
		}
		newsSearchers = append(newsSearchers, nv(naver.News))
		blogSearchers = append(blogSearchers, nv(naver.Blog))
		webSearchers = append(webSearchers, nv(naver.Web))
	}
	if cfg.Search.SerperAPIKey != "" {
		blogSearchers = append(blogSearchers, serper.Search{ApiKey: cfg.Search.SerperAPIKey, Sites: []string{"blog.naver.com", "tistory.com", "brunch.co.kr"}})
		webSearchers = append(webSearchers, serper.Search{ApiKey: cfg.Search.SerperAPIKey})
	}
	if cfg.Search.BraveAPIKey != "" {
		webSearchers = append(webSearchers, brave.Search{ApiKey: cfg.Search.BraveAPIKey})
	}

	var fetcher *webfetch.Fetcher
	if cfg.Search.FetchPages > 0 {
		fetcher = webfetch.NewFetcher(cfg.General.DefaultTimeout, cfg.Search.RenderFallback)
	}

	registry := tool.NewRegistry(
		tool.NewStatuteTool(st, llm, webSearchers, cfg.Statute.MinScore),
		tool.NewNewsTool(newsSearchers, llm, cfg.Search.MaxResults),
		tool.NewBlogTool(blogSearchers, llm, cfg.Search.MaxResults),
		tool.NewWebTool(webSearchers, llm, fetcher, cfg.Search.MaxResults),
		tool.NewHistoryTool(st, cfg.Search.MaxResults),
		tool.NewGeneralTool(history, llm, cfg.History.Window),
	)

	rt := router.New(history, cfg.History.Window)
	dsp := dispatch.New(registry, tel)
	wf, err := graph.NewWorkflow(rt, registry)
	if err != nil {
		return err
	}

	secret := cfg.Server.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (server.jwt_secret)")
	}

	api := e.Group("/api")
	auth := &AuthHandler{Store: st, Secret: []byte(secret)}
	auth.Register(api.Group("/auth"))

	ask := &AskHandler{
		Router:     rt,
		Dispatcher: dsp,
		Workflow:   wf,
		History:    history,
		Telemetry:  tel,
		YieldEvery: cfg.Stream.YieldEvery,
		ChunkSize:  cfg.Stream.ChunkSize,
		ChunkDelay: cfg.Stream.ChunkDelay,
	}
	ask.Register(api, []byte(secret))

	hist := &HistoryHandler{Store: st, Telemetry: tel}
	hist.Register(api.Group("/history"), []byte(secret))

	cleaner := &Cleaner{
		Store:         st,
		Cron:          cfg.History.CleanupCron,
		RetentionDays: cfg.History.RetentionDays,
		Stop:          make(chan struct{}),
	}
	cleaner.Start()

	return e.Start(addr)
}
