package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	t.Helper()
	if os.Getenv("LLEX_INTEGRATION") == "" {
		t.Skip("set LLEX_INTEGRATION=1 to run container-backed store tests")
	}
	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "llex",
			"POSTGRES_PASSWORD": "llex",
			"POSTGRES_DB":       "llex",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(1).WithStartupTimeout(60 * time.Second),
	}
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432")
	if err != nil {
		_ = pg.Terminate(ctx)
		t.Fatalf("failed to get mapped port: %v", err)
	}
	host, err := pg.Host(ctx)
	if err != nil {
		_ = pg.Terminate(ctx)
		t.Fatalf("failed to get host: %v", err)
	}
	dsn := fmt.Sprintf("postgres://llex:llex@%s:%s/llex?sslmode=disable", host, port.Port())
	return pg, dsn
}

func newTestStore(t *testing.T, ctx context.Context) (*Store, func()) {
	t.Helper()
	pg, dsn := startPostgres(t, ctx)
	var st *Store
	var err error
	for i := 0; i < 6; i++ {
		st, err = New(ctx, dsn)
		if err == nil {
			break
		}
		time.Sleep(300 * time.Millisecond)
	}
	if err != nil {
		_ = pg.Terminate(ctx)
		t.Fatalf("connect store: %v", err)
	}
	schema := []string{
		`CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL)`,
		`CREATE TABLE chat_history (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			turn_index BIGINT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			user_id TEXT NOT NULL,
			metadata JSONB,
			score INT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range schema {
		if _, err := st.DB.ExecContext(ctx, stmt); err != nil {
			_ = pg.Terminate(ctx)
			t.Fatalf("create schema: %v", err)
		}
	}
	return st, func() {
		_ = st.DB.Close()
		_ = pg.Terminate(ctx)
	}
}

func TestAppendTurnPairAndRecentExchanges(t *testing.T) {
	ctx := context.Background()
	st, cleanup := newTestStore(t, ctx)
	defer cleanup()

	if err := st.AppendTurnPair(ctx, "u1", "소화기 설치 기준?", "소화기는 …", "statute", 60); err != nil {
		t.Fatalf("AppendTurnPair: %v", err)
	}
	if err := st.AppendTurnPair(ctx, "u1", "고마워", "천만에요", "general", 35); err != nil {
		t.Fatalf("AppendTurnPair: %v", err)
	}

	exchanges, err := st.RecentExchanges(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentExchanges: %v", err)
	}
	if len(exchanges) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(exchanges))
	}
	if exchanges[0].Question != "소화기 설치 기준?" || exchanges[1].Question != "고마워" {
		t.Fatalf("exchanges out of order: %+v", exchanges)
	}

	// Different users never share history.
	other, err := st.RecentExchanges(ctx, "u2", 10)
	if err != nil {
		t.Fatalf("RecentExchanges(u2): %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("u2 should have no history, got %+v", other)
	}
}

func TestAppendTurnPairIsAtomic(t *testing.T) {
	ctx := context.Background()
	st, cleanup := newTestStore(t, ctx)
	defer cleanup()

	// Force the assistant insert to fail mid-transaction.
	if _, err := st.DB.ExecContext(ctx, `ALTER TABLE chat_history ADD CONSTRAINT role_len CHECK (length(content) < 10)`); err != nil {
		t.Fatalf("add constraint: %v", err)
	}
	err := st.AppendTurnPair(ctx, "u1", "짧은 질문", "이 답변은 체크 제약보다 훨씬 깁니다", "general", 35)
	if err == nil {
		t.Fatal("expected append to fail")
	}

	var count int
	if err := st.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_history WHERE user_id='u1'`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("partial turn visible after failed append: %d rows", count)
	}
}

func TestToolStatsAggregates(t *testing.T) {
	ctx := context.Background()
	st, cleanup := newTestStore(t, ctx)
	defer cleanup()

	for i := 0; i < 3; i++ {
		if err := st.AppendTurnPair(ctx, "u1", "질문", "답변", "statute", 80); err != nil {
			t.Fatalf("AppendTurnPair: %v", err)
		}
	}
	if err := st.AppendTurnPair(ctx, "u1", "질문", "답변", "news", 40); err != nil {
		t.Fatalf("AppendTurnPair: %v", err)
	}

	stats, err := st.ToolStats(ctx)
	if err != nil {
		t.Fatalf("ToolStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 tools, got %+v", stats)
	}
	if stats[0].Tool != "statute" || stats[0].Count != 3 || stats[0].AvgScore != 80 {
		t.Fatalf("unexpected leading stat: %+v", stats[0])
	}
}
