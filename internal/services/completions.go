package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	commitAttempts     = 3
	defaultCommitDelay = 500 * time.Millisecond
)

// completion is a finalized session whose completed status has not reached the
// database yet. Its files are already in both destinations.
type completion struct {
	SessionID  string `json:"session_id"`
	PrimaryDir string `json:"primary_dir"`
	MirrorDir  string `json:"mirror_dir"`
}

// journal keeps unsaved completions in memory and, when dir is set, one JSON file per
// session so that they outlive a restart.
type journal struct {
	mu      sync.Mutex
	dir     string
	entries map[string]completion
}

func newJournal(dir string) *journal {
	return &journal{dir: dir, entries: make(map[string]completion)}
}

func (j *journal) path(sessionID string) string {
	return filepath.Join(j.dir, sessionID+".json")
}

func (j *journal) add(c completion) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[c.SessionID] = c

	if j.dir == "" {
		return nil
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(j.path(c.SessionID), data, 0o644)
}

func (j *journal) remove(sessionID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.entries, sessionID)

	if j.dir == "" {
		return
	}
	if err := os.Remove(j.path(sessionID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithField("session_id", sessionID).Warnf("remove completion entry: %v", err)
	}
}

// list returns every known completion, including entries written by a previous process.
func (j *journal) list() []completion {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.dir != "" {
		j.load()
	}

	out := make([]completion, 0, len(j.entries))
	for _, c := range j.entries {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].SessionID < out[b].SessionID })
	return out
}

func (j *journal) load() {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("read completion journal: %v", err)
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(j.dir, entry.Name()))
		if err != nil {
			log.Warnf("read completion entry %s: %v", entry.Name(), err)
			continue
		}
		var c completion
		if err := json.Unmarshal(data, &c); err != nil || c.SessionID == "" {
			log.Warnf("bad completion entry %s: %v", entry.Name(), err)
			continue
		}
		j.entries[c.SessionID] = c
	}
}

// commit marks a finalized session completed, retrying with a growing delay. When the
// database stays unreachable the completion is journaled for RetryCompletions.
func (u *Uploads) commit(ctx context.Context, logger *log.Entry, c completion) {
	delay := u.commitDelay
	var err error
	for attempt := 1; attempt <= commitAttempts; attempt++ {
		if err = u.store.CompleteSession(ctx, c.SessionID, c.PrimaryDir, c.MirrorDir); err == nil {
			return
		}
		if attempt == commitAttempts {
			break
		}
		logger.Warnf("mark session completed (attempt %d): %v", attempt, err)
		select {
		case <-ctx.Done():
			attempt = commitAttempts
		case <-time.After(delay):
			delay *= 2
		}
	}

	logger.Errorf("mark session completed, will retry later: %v", err)
	if jerr := u.completions.add(c); jerr != nil {
		logger.Errorf("journal completion: %v", jerr)
	}
}

// RetryCompletions tries once more to save every journaled completion and returns the
// ids of sessions still unsaved.
func (u *Uploads) RetryCompletions(ctx context.Context) []string {
	var left []string
	for _, c := range u.completions.list() {
		logger := log.WithField("session_id", c.SessionID)
		if err := u.store.CompleteSession(ctx, c.SessionID, c.PrimaryDir, c.MirrorDir); err != nil {
			logger.Warnf("mark session completed: %v", err)
			left = append(left, c.SessionID)
			continue
		}
		u.completions.remove(c.SessionID)
		logger.Info("saved delayed session completion")
	}
	return left
}
