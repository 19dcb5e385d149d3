package session

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/clock"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, max int) (*Registry, *clock.Manual) {
	t.Helper()
	c := clock.NewManual(t0)
	r := NewRegistry(Options{
		TempRoot:      t.TempDir(),
		MaxFiles:      max,
		SummaryWindow: 2 * time.Second,
		Clock:         c,
	})
	return r, c
}

func file(name string) File {
	return File{OriginalName: name, StoredName: name, Size: 1}
}

func TestStart(t *testing.T) {
	r, _ := newTestRegistry(t, 3)

	s, err := r.Start("u1")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	require.Zero(t, s.Count())
	require.Equal(t, StateOpen, s.State)
	require.DirExists(t, s.TempPath)

	_, err = r.Start("u1")
	require.ErrorIs(t, err, botErrors.ErrSessionAlreadyOpen)

	other, err := r.Start("u2")
	require.NoError(t, err)
	require.NotEqual(t, s.TempPath, other.TempPath)
}

func TestAddFileCapacity(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	s, err := r.Start("u1")
	require.NoError(t, err)

	for i, name := range []string{"a", "b", "c"} {
		got, err := r.AddFile("u1", s.ID, file(name))
		require.NoError(t, err)
		require.Equal(t, i+1, got.Count())
	}

	got, err := r.Get("u1")
	require.NoError(t, err)
	require.Equal(t, StateFull, got.State)

	_, err = r.CheckCapacity("u1")
	require.ErrorIs(t, err, botErrors.ErrCapacityExceeded)

	got, err = r.AddFile("u1", s.ID, file("d"))
	require.ErrorIs(t, err, botErrors.ErrCapacityExceeded)
	require.Equal(t, 3, got.Count())
}

func TestAddFileAfterSessionReplaced(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	s, err := r.Start("u1")
	require.NoError(t, err)

	_, err = r.Cancel("u1")
	require.NoError(t, err)
	_, err = r.AddFile("u1", s.ID, file("a"))
	require.ErrorIs(t, err, botErrors.ErrNoActiveSession)

	_, err = r.Start("u1")
	require.NoError(t, err)
	_, err = r.AddFile("u1", s.ID, file("a"))
	require.ErrorIs(t, err, botErrors.ErrSessionChanged)
}

func TestConcurrentAddFileKeepsBound(t *testing.T) {
	r, _ := newTestRegistry(t, 10)
	s, err := r.Start("u1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.AddFile("u1", s.ID, file("x"))
		}()
	}
	wg.Wait()

	got, err := r.Get("u1")
	require.NoError(t, err)
	require.Equal(t, 10, got.Count())
}

func TestSummaryCoversBurst(t *testing.T) {
	r, c := newTestRegistry(t, 10)

	var summaries [][]File
	r.OnSummary(func(userID string) {
		files, _, ok := r.TakePending(userID)
		if ok {
			summaries = append(summaries, files)
		}
	})

	s, err := r.Start("u1")
	require.NoError(t, err)

	_, err = r.AddFile("u1", s.ID, file("a"))
	require.NoError(t, err)
	c.Advance(500 * time.Millisecond)
	_, err = r.AddFile("u1", s.ID, file("b"))
	require.NoError(t, err)
	c.Advance(500 * time.Millisecond)
	_, err = r.AddFile("u1", s.ID, file("c"))
	require.NoError(t, err)

	c.Advance(2 * time.Second)
	require.Len(t, summaries, 1)
	require.Len(t, summaries[0], 3)

	_, err = r.AddFile("u1", s.ID, file("d"))
	require.NoError(t, err)
	c.Advance(2 * time.Second)
	require.Len(t, summaries, 2)
	require.Equal(t, "d", summaries[1][0].OriginalName)
}

func TestCancelStopsSummary(t *testing.T) {
	r, c := newTestRegistry(t, 10)
	fired := 0
	r.OnSummary(func(string) { fired++ })

	s, err := r.Start("u1")
	require.NoError(t, err)
	_, err = r.AddFile("u1", s.ID, file("a"))
	require.NoError(t, err)

	_, err = r.Cancel("u1")
	require.NoError(t, err)
	c.Advance(5 * time.Second)
	require.Zero(t, fired)
	require.Zero(t, c.Pending())
}

func TestCancelIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t, 10)
	s, err := r.Start("u1")
	require.NoError(t, err)

	_, err = r.Cancel("u1")
	require.NoError(t, err)
	require.NoDirExists(t, s.TempPath)

	_, err = r.Cancel("u1")
	require.ErrorIs(t, err, botErrors.ErrNoActiveSession)
}

func TestFinalizeLifecycle(t *testing.T) {
	r, c := newTestRegistry(t, 2)
	fired := 0
	r.OnSummary(func(string) { fired++ })

	s, err := r.Start("u1")
	require.NoError(t, err)

	_, err = r.BeginFinalize("u1")
	require.ErrorIs(t, err, botErrors.ErrEmptySession)

	_, err = r.AddFile("u1", s.ID, file("a"))
	require.NoError(t, err)
	_, err = r.AddFile("u1", s.ID, file("b"))
	require.NoError(t, err)

	got, err := r.BeginFinalize("u1")
	require.NoError(t, err)
	require.Equal(t, StateFinalizing, got.State)

	c.Advance(5 * time.Second)
	require.Zero(t, fired)

	_, err = r.BeginFinalize("u1")
	require.ErrorIs(t, err, botErrors.ErrFinalizeInProgress)
	_, err = r.Cancel("u1")
	require.ErrorIs(t, err, botErrors.ErrFinalizeInProgress)

	r.EndFinalize("u1", s.ID, false, []string{"a"})
	got, err = r.Get("u1")
	require.NoError(t, err)
	require.Equal(t, StateFull, got.State)
	require.Equal(t, 2, got.Count())
	require.Equal(t, []File{{OriginalName: "b", StoredName: "b", Size: 1}}, got.Remaining())

	_, err = r.BeginFinalize("u1")
	require.NoError(t, err)
	r.EndFinalize("u1", s.ID, true, nil)

	_, err = r.Get("u1")
	require.ErrorIs(t, err, botErrors.ErrNoActiveSession)
}

func TestIdleAndOwns(t *testing.T) {
	r, c := newTestRegistry(t, 10)
	old, err := r.Start("u1")
	require.NoError(t, err)
	c.Advance(time.Hour)
	_, err = r.Start("u2")
	require.NoError(t, err)

	idle := r.Idle(c.Now().Add(-30 * time.Minute))
	require.Len(t, idle, 1)
	require.Equal(t, "u1", idle[0].UserID)

	require.True(t, r.Owns(old.TempPath))

	// a file counts as activity
	c.Advance(time.Hour)
	_, err = r.AddFile("u1", old.ID, file("late.pdf"))
	require.NoError(t, err)
	c.Advance(10 * time.Minute)
	idle = r.Idle(c.Now().Add(-30 * time.Minute))
	require.Len(t, idle, 1)
	require.Equal(t, "u2", idle[0].UserID)
	require.False(t, r.Owns(filepath.Join(os.TempDir(), "nope")))
}
