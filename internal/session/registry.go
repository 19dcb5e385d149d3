// Package session holds the volatile per-user upload batches.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/clock"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	"github.com/google/uuid"
)

const DefaultMaxFiles = 10

type State int

const (
	StateOpen State = iota
	StateFull
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateFull:
		return "full"
	case StateFinalizing:
		return "finalizing"
	default:
		return "open"
	}
}

// File is an accepted file waiting in the session's temp directory.
type File struct {
	OriginalName string
	StoredName   string
	Size         int64
	Hash         string
	// Moved is set once both destination copies exist and the temp copy is gone.
	Moved bool
}

// Session is a point-in-time copy of a user's batch.
type Session struct {
	ID        string
	UserID    string
	TempPath  string
	CreatedAt time.Time
	// LastActive is when the session was opened or last accepted a file.
	LastActive time.Time
	Files      []File
	State      State
	Max        int
}

func (s Session) Count() int {
	return len(s.Files)
}

// Remaining lists files still sitting in temp.
func (s Session) Remaining() []File {
	out := make([]File, 0, len(s.Files))
	for _, f := range s.Files {
		if !f.Moved {
			out = append(out, f)
		}
	}
	return out
}

type entry struct {
	id         string
	tempPath   string
	createdAt  time.Time
	lastActive time.Time
	files      []File
	finalizing bool
}

type Options struct {
	TempRoot       string
	MaxFiles       int
	SummaryWindow  time.Duration
	SummaryMaxWait time.Duration
	Clock          clock.Clock
}

// Registry owns the open sessions, the files not yet summarized and the summary timers,
// all keyed by user id.
type Registry struct {
	mu       sync.Mutex
	tempRoot string
	max      int
	clock    clock.Clock
	sessions map[string]*entry
	pending  map[string][]File
	timers   *Debouncer

	onSummary func(userID string)
}

func NewRegistry(opts Options) *Registry {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	r := &Registry{
		tempRoot: opts.TempRoot,
		max:      opts.MaxFiles,
		clock:    opts.Clock,
		sessions: make(map[string]*entry),
		pending:  make(map[string][]File),
	}
	r.timers = NewDebouncer(opts.Clock, opts.SummaryWindow, opts.SummaryMaxWait, r.summaryDue)
	return r
}

// OnSummary sets the callback run when a user's burst of files has gone quiet.
func (r *Registry) OnSummary(fn func(userID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSummary = fn
}

func (r *Registry) summaryDue(userID string) {
	r.mu.Lock()
	fn := r.onSummary
	r.mu.Unlock()
	if fn != nil {
		fn(userID)
	}
}

func (r *Registry) MaxFiles() int {
	return r.max
}

func (r *Registry) snapshot(userID string, e *entry) Session {
	files := make([]File, len(e.files))
	copy(files, e.files)

	state := StateOpen
	switch {
	case e.finalizing:
		state = StateFinalizing
	case len(e.files) >= r.max:
		state = StateFull
	}

	return Session{
		ID:         e.id,
		UserID:     userID,
		TempPath:   e.tempPath,
		CreatedAt:  e.createdAt,
		LastActive: e.lastActive,
		Files:      files,
		State:      state,
		Max:        r.max,
	}
}

// Start opens a new session with its own temp directory.
func (r *Registry) Start(userID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[userID]; ok {
		return Session{}, botErrors.ErrSessionAlreadyOpen
	}

	id := uuid.NewString()
	tempPath := filepath.Join(r.tempRoot, id)
	if err := os.MkdirAll(tempPath, 0o755); err != nil {
		return Session{}, fmt.Errorf("create temp dir: %w", err)
	}

	now := r.clock.Now()
	e := &entry{id: id, tempPath: tempPath, createdAt: now, lastActive: now}
	r.sessions[userID] = e
	delete(r.pending, userID)

	return r.snapshot(userID, e), nil
}

func (r *Registry) Get(userID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[userID]
	if !ok {
		return Session{}, botErrors.ErrNoActiveSession
	}
	return r.snapshot(userID, e), nil
}

// CheckCapacity fails early when the session cannot take another file.
func (r *Registry) CheckCapacity(userID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[userID]
	if !ok {
		return Session{}, botErrors.ErrNoActiveSession
	}
	if e.finalizing {
		return Session{}, botErrors.ErrFinalizeInProgress
	}
	if len(e.files) >= r.max {
		return r.snapshot(userID, e), botErrors.ErrCapacityExceeded
	}
	return r.snapshot(userID, e), nil
}

// AddFile appends an accepted file to the session identified by sessionID and
// (re)schedules the summary. The id check catches sessions cancelled or replaced
// while the file was being downloaded and validated.
func (r *Registry) AddFile(userID, sessionID string, file File) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[userID]
	switch {
	case !ok:
		return Session{}, botErrors.ErrNoActiveSession
	case e.id != sessionID:
		return Session{}, botErrors.ErrSessionChanged
	case e.finalizing:
		return Session{}, botErrors.ErrFinalizeInProgress
	case len(e.files) >= r.max:
		return r.snapshot(userID, e), botErrors.ErrCapacityExceeded
	}

	file.Moved = false
	e.files = append(e.files, file)
	e.lastActive = r.clock.Now()
	r.pending[userID] = append(r.pending[userID], file)
	r.timers.Touch(userID)

	return r.snapshot(userID, e), nil
}

// TakePending returns and clears the files accepted since the last summary.
func (r *Registry) TakePending(userID string) ([]File, Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[userID]
	if !ok || e.finalizing {
		delete(r.pending, userID)
		return nil, Session{}, false
	}
	files := r.pending[userID]
	delete(r.pending, userID)
	return files, r.snapshot(userID, e), len(files) > 0
}

// BeginFinalize moves the session to finalizing and cancels any pending summary.
func (r *Registry) BeginFinalize(userID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[userID]
	switch {
	case !ok:
		return Session{}, botErrors.ErrNoActiveSession
	case e.finalizing:
		return Session{}, botErrors.ErrFinalizeInProgress
	case len(e.files) == 0:
		return Session{}, botErrors.ErrEmptySession
	}

	e.finalizing = true
	r.timers.Cancel(userID)
	delete(r.pending, userID)

	return r.snapshot(userID, e), nil
}

// EndFinalize closes the session on success. On failure it returns to open/full
// with the given stored names marked as moved, so a retry only handles the rest.
func (r *Registry) EndFinalize(userID, sessionID string, ok bool, moved []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.sessions[userID]
	if !exists || e.id != sessionID {
		return
	}
	if ok {
		delete(r.sessions, userID)
		return
	}

	done := make(map[string]struct{}, len(moved))
	for _, name := range moved {
		done[name] = struct{}{}
	}
	for i := range e.files {
		if _, ok := done[e.files[i].StoredName]; ok {
			e.files[i].Moved = true
		}
	}
	e.finalizing = false
}

// Cancel closes the session and removes its temp directory.
func (r *Registry) Cancel(userID string) (Session, error) {
	r.mu.Lock()
	e, ok := r.sessions[userID]
	if !ok {
		r.mu.Unlock()
		return Session{}, botErrors.ErrNoActiveSession
	}
	if e.finalizing {
		r.mu.Unlock()
		return Session{}, botErrors.ErrFinalizeInProgress
	}
	snap := r.snapshot(userID, e)
	delete(r.sessions, userID)
	delete(r.pending, userID)
	r.timers.Cancel(userID)
	r.mu.Unlock()

	if err := os.RemoveAll(snap.TempPath); err != nil {
		return snap, fmt.Errorf("remove temp dir: %w", err)
	}
	return snap, nil
}

// Idle returns sessions with no activity since cutoff that are not finalizing.
func (r *Registry) Idle(cutoff time.Time) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Session
	for userID, e := range r.sessions {
		if !e.finalizing && e.lastActive.Before(cutoff) {
			out = append(out, r.snapshot(userID, e))
		}
	}
	return out
}

// Owns reports whether dir is the temp directory of a live session.
func (r *Registry) Owns(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.sessions {
		if filepath.Clean(e.tempPath) == filepath.Clean(dir) {
			return true
		}
	}
	return false
}
