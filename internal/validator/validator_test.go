package validator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubReputation struct {
	report Report
	err    error
	calls  int
}

func (s *stubReputation) Lookup(_ context.Context, _ string) (Report, error) {
	s.calls++
	return s.report, s.err
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestCheckExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		ok       bool
	}{
		{"pdf", "a.pdf", true},
		{"unknown extension", "survey.dgps", true},
		{"no extension", "README", true},
		{"executable", "virus.exe", false},
		{"upper case script", "Setup.PS1", false},
		{"video", "clip.mkv", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := CheckExtension(tt.filename)
			require.Equal(t, tt.ok, ok)
		})
	}

	msg, _ := CheckExtension("virus.exe")
	require.Equal(t, "Dangerous file type detected: exe", msg)
	msg, _ = CheckExtension("clip.MP4")
	require.Equal(t, "Video file extension mp4 not allowed.", msg)
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted without reputation", func(t *testing.T) {
		path := writeFile(t, "a.pdf", []byte("pdf body"))
		out, err := New(DefaultMaxSize, nil).Classify(ctx, "a.pdf", path, 8)
		require.NoError(t, err)
		require.True(t, out.Accepted())
		require.Len(t, out.Hash, 64)
	})

	t.Run("size reported in human units", func(t *testing.T) {
		path := writeFile(t, "big.csv", []byte("x"))
		out, err := New(DefaultMaxSize, nil).Classify(ctx, "big.csv", path, 25*1024*1024)
		require.NoError(t, err)
		require.Equal(t, []string{"File too large: 25.0 MB (max: 20.0 MB)"}, out.Errors)
		require.NotEmpty(t, out.Hash)
	})

	t.Run("extension and size errors are ordered", func(t *testing.T) {
		path := writeFile(t, "virus.exe", []byte("MZ"))
		out, err := New(DefaultMaxSize, nil).Classify(ctx, "virus.exe", path, 30*1024*1024)
		require.NoError(t, err)
		require.Len(t, out.Errors, 2)
		require.Contains(t, out.Errors[0], "Dangerous")
		require.Contains(t, out.Errors[1], "too large")
	})

	t.Run("dangerous extension regardless of size or content", func(t *testing.T) {
		for _, content := range [][]byte{nil, []byte("hello"), make([]byte, 4096)} {
			path := writeFile(t, "run.sh", content)
			out, err := New(DefaultMaxSize, nil).Classify(ctx, "run.sh", path, int64(len(content)))
			require.NoError(t, err)
			require.False(t, out.Accepted())
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		path := writeFile(t, "a.pdf", []byte("same bytes"))
		v := New(DefaultMaxSize, nil)
		first, err := v.Classify(ctx, "a.pdf", path, 10)
		require.NoError(t, err)
		second, err := v.Classify(ctx, "a.pdf", path, 10)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("reputation failure does not block", func(t *testing.T) {
		path := writeFile(t, "a.pdf", []byte("x"))
		rep := &stubReputation{err: errors.New("timeout")}
		out, err := New(DefaultMaxSize, rep).Classify(ctx, "a.pdf", path, 1)
		require.NoError(t, err)
		require.True(t, out.Accepted())
		require.Contains(t, out.Note, "failed")
	})

	t.Run("unknown hash passes", func(t *testing.T) {
		path := writeFile(t, "a.pdf", []byte("x"))
		out, err := New(DefaultMaxSize, &stubReputation{report: Report{Known: false, Positives: 3}}).
			Classify(ctx, "a.pdf", path, 1)
		require.NoError(t, err)
		require.True(t, out.Accepted())
	})

	t.Run("known threats reject", func(t *testing.T) {
		path := writeFile(t, "a.pdf", []byte("x"))
		out, err := New(DefaultMaxSize, &stubReputation{report: Report{Known: true, Positives: 4}}).
			Classify(ctx, "a.pdf", path, 1)
		require.NoError(t, err)
		require.Equal(t, []string{"VirusTotal detected 4 threats in file"}, out.Errors)
	})

	t.Run("reputation skipped for rejected files", func(t *testing.T) {
		path := writeFile(t, "virus.exe", []byte("x"))
		rep := &stubReputation{}
		_, err := New(DefaultMaxSize, rep).Classify(ctx, "virus.exe", path, 1)
		require.NoError(t, err)
		require.Zero(t, rep.calls)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := New(DefaultMaxSize, nil).Classify(ctx, "a.pdf", filepath.Join(t.TempDir(), "gone"), 1)
		require.Error(t, err)
	})
}

func TestPrecheck(t *testing.T) {
	v := New(10, nil)
	require.Equal(t, int64(10), v.MaxSize())

	out := v.Precheck("big.exe", 11)
	require.Equal(t, []string{
		"Dangerous file type detected: exe",
		"File too large: 11.0 Bytes (max: 10.0 Bytes)",
	}, out.Errors)
	require.Empty(t, out.Hash)

	require.True(t, v.Precheck("ok.pdf", 10).Accepted())
}
