// Package finalizer copies a finished batch from temp storage into the primary and
// mirror trees.
package finalizer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/session"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Job struct {
	SessionID   string
	UserID      string
	DisplayName string
	TempPath    string
	Files       []session.File
}

type Placed struct {
	StoredName  string
	PrimaryPath string
	MirrorPath  string
}

type Result struct {
	PrimaryDir string
	MirrorDir  string
	// Moved lists files copied to both trees and removed from temp, also when Finalize fails.
	Moved []Placed
}

type Finalizer struct {
	primaryRoot string
	mirrorRoot  string
	subPath     string
	now         func() time.Time
}

func New(primaryRoot, mirrorRoot, subPath string, now func() time.Time) *Finalizer {
	if now == nil {
		now = time.Now
	}
	return &Finalizer{
		primaryRoot: primaryRoot,
		mirrorRoot:  mirrorRoot,
		subPath:     subPath,
		now:         now,
	}
}

func (f *Finalizer) Destinations(displayName string) (string, string) {
	rel := RelativeDir(f.now(), f.subPath, displayName)
	return filepath.Join(f.primaryRoot, rel), filepath.Join(f.mirrorRoot, rel)
}

// Finalize copies every file of the job into both trees. A temp file is deleted only
// after both of its copies exist. The first failure aborts the run; files handled
// before it stay committed and are reported in Result.Moved.
func (f *Finalizer) Finalize(ctx context.Context, job Job) (Result, error) {
	primaryDir, mirrorDir := f.Destinations(job.DisplayName)
	res := Result{PrimaryDir: primaryDir, MirrorDir: mirrorDir}

	for _, dir := range []string{primaryDir, mirrorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	for _, file := range job.Files {
		if file.Moved {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		placed, err := f.place(ctx, filepath.Join(job.TempPath, file.StoredName), file.OriginalName, primaryDir, mirrorDir)
		if err != nil {
			return res, fmt.Errorf("finalize %s: %w", file.OriginalName, err)
		}
		placed.StoredName = file.StoredName
		res.Moved = append(res.Moved, placed)

		log.WithFields(log.Fields{
			"session_id": job.SessionID,
			"primary":    placed.PrimaryPath,
			"mirror":     placed.MirrorPath,
		}).Debug("file finalized")
	}

	if err := os.RemoveAll(job.TempPath); err != nil {
		log.Warnf("remove temp dir %s: %v", job.TempPath, err)
	}
	return res, nil
}

func (f *Finalizer) place(ctx context.Context, src, name, primaryDir, mirrorDir string) (Placed, error) {
	var placed Placed

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path, err := copyInto(gctx, src, primaryDir, name)
		placed.PrimaryPath = path
		return err
	})
	g.Go(func() error {
		path, err := copyInto(gctx, src, mirrorDir, name)
		placed.MirrorPath = path
		return err
	})

	if err := g.Wait(); err != nil {
		// keep the temp original; drop the copy that did land so a retry does not duplicate it
		for _, path := range []string{placed.PrimaryPath, placed.MirrorPath} {
			if path != "" {
				if rmErr := os.Remove(path); rmErr != nil {
					log.Warnf("rollback %s: %v", path, rmErr)
				}
			}
		}
		return Placed{}, err
	}

	if err := os.Remove(src); err != nil {
		log.Warnf("remove temp copy %s: %v", src, err)
	}
	return placed, nil
}

// copyInto returns the destination path only when the copy is complete.
func copyInto(ctx context.Context, src, dir, name string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, stored, err := Reserve(dir, name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, stored)

	_, err = io.Copy(out, &ctxReader{ctx: ctx, r: in})
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
