package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Store wraps the relational side: conversation history and statute text.
type Store struct {
	DB *sql.DB
}

// New opens a postgres connection with the given DSN.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// Turn is one persisted chat-history row.
type Turn struct {
	ID        int64
	SessionID string
	TurnIndex int64
	Role      string
	Content   string
	UserID    string
	Tool      string
	Score     int
	CreatedAt time.Time
}

// Exchange is one (question, answer) pair, oldest first.
type Exchange struct {
	Question string
	Answer   string
}

// ToolStat aggregates assistant turns per producing tool.
type ToolStat struct {
	Tool     string
	Count    int64
	AvgScore float64
	LastUsed time.Time
}

// AppendTurnPair writes the user turn and the assistant turn in a single
// transaction: either both rows become visible or neither does.
func (s *Store) AppendTurnPair(ctx context.Context, userID, question, answer, tool string, score int) error {
	meta, err := json.Marshal(map[string]string{"tool": tool})
	if err != nil {
		return fmt.Errorf("marshal turn metadata: %w", err)
	}
	sessionID := uuid.NewString()
	turnIndex := time.Now().UnixMilli()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin turn tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `
INSERT INTO chat_history (session_id, turn_index, role, content, user_id, metadata, score, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`
	if _, err := tx.ExecContext(ctx, insert, sessionID, turnIndex, "user", question, userID, meta, score); err != nil {
		return fmt.Errorf("insert user turn: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, sessionID, turnIndex+1, "assistant", answer, userID, meta, score); err != nil {
		return fmt.Errorf("insert assistant turn: %w", err)
	}
	return tx.Commit()
}

// RecentTurns returns up to limit most recent turns for the user, newest
// first.
func (s *Store) RecentTurns(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, session_id, turn_index, role, content, user_id, COALESCE(metadata->>'tool',''), COALESCE(score,0), created_at
FROM chat_history
WHERE user_id = $1
ORDER BY created_at DESC, turn_index DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent turns: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.TurnIndex, &t.Role, &t.Content, &t.UserID, &t.Tool, &t.Score, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentExchanges pairs the user's most recent turns into (question, answer)
// exchanges, oldest first, for router/LLM context.
func (s *Store) RecentExchanges(ctx context.Context, userID string, limit int) ([]Exchange, error) {
	turns, err := s.RecentTurns(ctx, userID, limit*2)
	if err != nil {
		return nil, err
	}
	// Pair by session id; turns arrive newest first.
	bySession := make(map[string]*Exchange)
	var order []string
	for _, t := range turns {
		ex, ok := bySession[t.SessionID]
		if !ok {
			ex = &Exchange{}
			bySession[t.SessionID] = ex
			order = append(order, t.SessionID)
		}
		switch t.Role {
		case "user":
			ex.Question = t.Content
		case "assistant":
			ex.Answer = t.Content
		}
	}
	var out []Exchange
	for i := len(order) - 1; i >= 0; i-- { // back to chronological order
		ex := bySession[order[i]]
		if ex.Question == "" && ex.Answer == "" {
			continue
		}
		out = append(out, *ex)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// SearchTurns runs a keyword lookup over the user's past questions.
func (s *Store) SearchTurns(ctx context.Context, userID, keyword string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, session_id, turn_index, role, content, user_id, COALESCE(metadata->>'tool',''), COALESCE(score,0), created_at
FROM chat_history
WHERE user_id = $1 AND role = 'user' AND content ILIKE $2
ORDER BY created_at DESC
LIMIT $3`, userID, "%"+keyword+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search turns: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.TurnIndex, &t.Role, &t.Content, &t.UserID, &t.Tool, &t.Score, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ToolStats aggregates assistant-turn counts, average score and last use per
// producing tool, most used first.
func (s *Store) ToolStats(ctx context.Context) ([]ToolStat, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT COALESCE(metadata->>'tool','unknown') AS tool, COUNT(*), COALESCE(AVG(score),0), MAX(created_at)
FROM chat_history
WHERE role = 'assistant'
GROUP BY metadata->>'tool'
ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query tool stats: %w", err)
	}
	defer rows.Close()

	var out []ToolStat
	for rows.Next() {
		var st ToolStat
		if err := rows.Scan(&st.Tool, &st.Count, &st.AvgScore, &st.LastUsed); err != nil {
			return nil, fmt.Errorf("scan tool stat: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteTurnsBefore drops history rows older than the cutoff. Used by the
// retention cleaner.
func (s *Store) DeleteTurnsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old turns: %w", err)
	}
	return res.RowsAffected()
}

// CreateUser registers a new account.
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES ($1,$2,$3,NOW())`, uuid.NewString(), email, hash)
	return err
}

// GetUserByEmail fetches the account id and password hash for login.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}
