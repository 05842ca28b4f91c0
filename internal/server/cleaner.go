package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/linkcampus/llex/internal/store"
)

// Cleaner prunes conversation history past the retention window on a
// cron schedule.
type Cleaner struct {
	Store         *store.Store
	Cron          string
	RetentionDays int
	Stop          chan struct{}

	logger *log.Logger
}

// Start runs the cleaner loop until Stop is closed. A retention of zero
// disables pruning entirely.
func (cl *Cleaner) Start() {
	cl.logger = log.New(log.Writer(), "[CLEANER] ", log.LstdFlags)
	if cl.RetentionDays <= 0 {
		cl.logger.Print("retention disabled, cleaner idle")
		return
	}
	expr, err := cronexpr.Parse(cl.Cron)
	if err != nil {
		cl.logger.Printf("invalid cron %q, cleaner idle: %v", cl.Cron, err)
		return
	}
	go func() {
		for {
			next := expr.Next(time.Now())
			if next.IsZero() {
				return
			}
			select {
			case <-cl.Stop:
				return
			case <-time.After(time.Until(next)):
				cl.tick()
			}
		}
	}()
}

func (cl *Cleaner) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	cutoff := time.Now().AddDate(0, 0, -cl.RetentionDays)
	n, err := cl.Store.DeleteTurnsBefore(ctx, cutoff)
	if err != nil {
		cl.logger.Printf("prune failed: %v", err)
		return
	}
	if n > 0 {
		cl.logger.Printf("pruned %d turns older than %s", n, cutoff.Format("2006-01-02"))
	}
}
