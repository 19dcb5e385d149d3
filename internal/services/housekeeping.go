package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

type SessionSweeper interface {
	CancelPendingSessions(ctx context.Context, keep []string) (int64, error)
}

type TempOwner interface {
	Owns(dir string) bool
}

// Completions retries finalized sessions the database has not recorded yet.
type Completions interface {
	RetryCompletions(ctx context.Context) []string
}

// Housekeeper cleans up what a previous process or an abandoned session left behind.
type Housekeeper struct {
	store       SessionSweeper
	sessions    TempOwner
	completions Completions
	tempRoot    string
}

func NewHousekeeper(store SessionSweeper, sessions TempOwner, completions Completions, tempRoot string) *Housekeeper {
	return &Housekeeper{store: store, sessions: sessions, completions: completions, tempRoot: tempRoot}
}

// Recover runs once at startup. Journaled completions are saved first; sessions
// still pending after that lost their in-memory state, so they are cancelled and their
// temp directories removed. A completion the database still refuses is left pending.
func (h *Housekeeper) Recover(ctx context.Context) error {
	if err := os.MkdirAll(h.tempRoot, 0o755); err != nil {
		return err
	}

	keep := h.completions.RetryCompletions(ctx)
	if len(keep) > 0 {
		log.Warnf("%d finalized sessions are still not marked completed", len(keep))
	}

	n, err := h.store.CancelPendingSessions(ctx, keep)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Infof("cancelled %d upload sessions left by a previous run", n)
	}

	h.SweepTemp()
	return nil
}

// SweepTemp removes directories under the temp root that no live session owns.
// Dot directories, such as the completion journal, are left alone.
func (h *Housekeeper) SweepTemp() int {
	entries, err := os.ReadDir(h.tempRoot)
	if err != nil {
		log.Warnf("read temp root: %v", err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(h.tempRoot, entry.Name())
		if h.sessions.Owns(dir) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			log.Warnf("remove orphaned temp dir %s: %v", dir, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Infof("removed %d orphaned temp directories", removed)
	}
	return removed
}
