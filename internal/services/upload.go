package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/finalizer"
	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/internal/session"
	"github.com/PFEPLTechHub/document-bot/internal/transport"
	"github.com/PFEPLTechHub/document-bot/internal/utils"
	"github.com/PFEPLTechHub/document-bot/internal/validator"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const (
	photoName      = "photo.jpg"
	summaryTimeout = 30 * time.Second
)

type UploadStore interface {
	CreateSession(ctx context.Context, session *models.UploadSession) error
	CompleteSession(ctx context.Context, sessionID, primaryPath, mirrorPath string) error
	CancelSession(ctx context.Context, sessionID string) error
	LogFile(ctx context.Context, userID string, file *models.File) error
}

type Gate interface {
	CanUpload(ctx context.Context, user *models.User) error
}

type Classifier interface {
	MaxSize() int64
	Precheck(filename string, size int64) validator.Outcome
	Classify(ctx context.Context, filename, path string, size int64) (validator.Outcome, error)
}

type Relocator interface {
	Finalize(ctx context.Context, job finalizer.Job) (finalizer.Result, error)
}

type Downloader interface {
	Open(ctx context.Context, file transport.FileRef) (io.ReadCloser, error)
}

type Sender interface {
	Send(ctx context.Context, userID, text string, keyboard transport.Keyboard)
}

type UploadDeps struct {
	Store      UploadStore
	Gate       Gate
	Registry   *session.Registry
	Classifier Classifier
	Relocator  Relocator
	Files      Downloader
	Notify     Sender
	Now        func() time.Time
	// JournalDir holds completions the database has not accepted yet. Empty keeps
	// them in memory only.
	JournalDir       string
	CommitRetryDelay time.Duration
}

// Uploads runs the session lifecycle: start, receive, summarize, finalize, cancel.
type Uploads struct {
	store    UploadStore
	gate     Gate
	registry *session.Registry
	classify Classifier
	relocate Relocator
	files    Downloader
	notify   Sender
	now      func() time.Time

	completions *journal
	commitDelay time.Duration
}

func NewUploads(d UploadDeps) *Uploads {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.CommitRetryDelay <= 0 {
		d.CommitRetryDelay = defaultCommitDelay
	}
	u := &Uploads{
		store:    d.Store,
		gate:     d.Gate,
		registry: d.Registry,
		classify: d.Classifier,
		relocate: d.Relocator,
		files:    d.Files,
		notify:   d.Notify,
		now:      d.Now,

		completions: newJournal(d.JournalDir),
		commitDelay: d.CommitRetryDelay,
	}
	d.Registry.OnSummary(u.summaryDue)
	return u
}

func (u *Uploads) summaryDue(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
	defer cancel()
	u.SendSummary(ctx, userID)
}

func (u *Uploads) Start(ctx context.Context, user *models.User) error {
	if err := u.gate.CanUpload(ctx, user); err != nil {
		return err
	}

	sess, err := u.registry.Start(user.ID)
	if err != nil {
		return err
	}

	record := &models.UploadSession{
		SessionID: sess.ID,
		UserID:    user.ID,
		Status:    models.SessionPending,
		TempPath:  sess.TempPath,
	}
	if err := u.store.CreateSession(ctx, record); err != nil {
		if _, cancelErr := u.registry.Cancel(user.ID); cancelErr != nil {
			log.Warnf("drop session %s: %v", sess.ID, cancelErr)
		}
		return err
	}

	log.WithFields(log.Fields{"user_id": user.ID, "session_id": sess.ID}).Info("upload session started")
	u.notify.Send(ctx, user.ID, startText(sess.Max), startKeyboard())
	return nil
}

func (u *Uploads) Ready(ctx context.Context, user *models.User) error {
	if _, err := u.registry.Get(user.ID); err != nil {
		return err
	}
	u.notify.Send(ctx, user.ID, "📁 Ready to receive files!\n\n"+
		"Send all files at once or send one by one, We are ready to receive your files!", nil)
	return nil
}

func (u *Uploads) Continue(ctx context.Context, user *models.User) error {
	sess, err := u.registry.Get(user.ID)
	if err != nil {
		return err
	}
	if sess.State == session.StateFull {
		return botErrors.ErrCapacityExceeded
	}
	u.notify.Send(ctx, user.ID, "📁 Continue uploading files...\n\nSend your next document.", nil)
	return nil
}

// HandleFile downloads one file into the session's temp directory, validates it and
// queues it for the next summary. Rejected files are recorded and removed. A file whose
// announced size is over the limit is rejected without downloading it.
func (u *Uploads) HandleFile(ctx context.Context, user *models.User, ref transport.FileRef, caption string) error {
	sess, err := u.registry.CheckCapacity(user.ID)
	if err != nil {
		return err
	}

	name := ref.Name
	if ref.IsPhoto {
		name = photoFileName(caption)
	}
	logger := log.WithFields(log.Fields{"user_id": user.ID, "session_id": sess.ID, "file": name})

	limit := u.classify.MaxSize()
	if ref.Size > limit {
		u.reject(ctx, logger, user, sess.ID, name, "", ref.Size, u.classify.Precheck(name, ref.Size))
		return nil
	}

	stored, size, err := u.download(ctx, sess.TempPath, name, ref, limit)
	if err != nil {
		return fmt.Errorf("download %s: %w", name, err)
	}
	path := filepath.Join(sess.TempPath, stored)

	if size > limit {
		// the copy stopped at limit+1 bytes, so the announced size is the better figure
		discard(path)
		u.reject(ctx, logger, user, sess.ID, name, stored, max(size, ref.Size), u.classify.Precheck(name, max(size, ref.Size)))
		return nil
	}

	outcome, err := u.classify.Classify(ctx, name, path, size)
	if err != nil {
		discard(path)
		return fmt.Errorf("validate %s: %w", name, err)
	}
	if outcome.Note != "" {
		logger.Debug(outcome.Note)
	}

	if !outcome.Accepted() {
		discard(path)
		u.reject(ctx, logger, user, sess.ID, name, stored, size, outcome)
		return nil
	}

	u.logFile(ctx, logger, user.ID, &models.File{
		SessionID:        sess.ID,
		OriginalName:     name,
		StoredName:       stored,
		Size:             size,
		Hash:             outcome.Hash,
		ValidationStatus: models.ValidationPassed,
	})

	_, err = u.registry.AddFile(user.ID, sess.ID, session.File{
		OriginalName: name,
		StoredName:   stored,
		Size:         size,
		Hash:         outcome.Hash,
	})
	if err != nil {
		discard(path)
		return err
	}
	logger.Debug("file accepted")
	return nil
}

// reject records a failed file and tells the user why. The temp copy, if any, is
// already gone.
func (u *Uploads) reject(ctx context.Context, logger *log.Entry, user *models.User, sessionID, name, stored string, size int64, outcome validator.Outcome) {
	u.logFile(ctx, logger, user.ID, &models.File{
		SessionID:        sessionID,
		OriginalName:     name,
		StoredName:       stored,
		Size:             size,
		Hash:             outcome.Hash,
		ValidationStatus: models.ValidationFailed,
		ValidationErrors: pq.StringArray(outcome.Errors),
	})
	logger.WithField("errors", outcome.Errors).Info("file rejected")
	u.notify.Send(ctx, user.ID, rejectionText(name, outcome.Errors), nil)
}

func (u *Uploads) logFile(ctx context.Context, logger *log.Entry, userID string, record *models.File) {
	if err := u.store.LogFile(ctx, userID, record); err != nil {
		logger.Warnf("record file: %v", err)
	}
}

// download copies at most limit+1 bytes, enough to tell that a file is too large.
func (u *Uploads) download(ctx context.Context, dir, name string, ref transport.FileRef, limit int64) (string, int64, error) {
	body, err := u.files.Open(ctx, ref)
	if err != nil {
		return "", 0, err
	}
	defer body.Close()

	out, stored, err := finalizer.Reserve(dir, name)
	if err != nil {
		return "", 0, err
	}
	size, err := io.Copy(out, io.LimitReader(body, limit+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		discard(filepath.Join(dir, stored))
		return "", 0, err
	}
	return stored, size, nil
}

// photoFileName names a photo after its caption, falling back to photo.jpg.
func photoFileName(caption string) string {
	name := strings.TrimSpace(caption)
	if name == "" {
		return photoName
	}
	if filepath.Ext(name) == "" {
		name += ".jpg"
	}
	return name
}

func discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("remove %s: %v", path, err)
	}
}

// SendSummary reports the files accepted since the previous summary and offers to
// add more or finalize. Nothing is sent when no file is waiting.
func (u *Uploads) SendSummary(ctx context.Context, userID string) {
	files, sess, ok := u.registry.TakePending(userID)
	if !ok {
		return
	}

	lines := make([]sessionLine, 0, len(files))
	for _, f := range files {
		lines = append(lines, sessionLine{name: f.OriginalName, size: f.Size})
	}
	u.notify.Send(ctx, userID, summaryText(lines, sess.Count(), sess.Max), summaryKeyboard(sess.State == session.StateFull))
}

func (u *Uploads) Finalize(ctx context.Context, user *models.User) error {
	sess, err := u.registry.BeginFinalize(user.ID)
	if err != nil {
		return err
	}
	logger := log.WithFields(log.Fields{"user_id": user.ID, "session_id": sess.ID})

	res, err := u.relocate.Finalize(ctx, finalizer.Job{
		SessionID:   sess.ID,
		UserID:      user.ID,
		DisplayName: user.Name(),
		TempPath:    sess.TempPath,
		Files:       sess.Files,
	})
	if err != nil {
		moved := make([]string, 0, len(res.Moved))
		for _, p := range res.Moved {
			moved = append(moved, p.StoredName)
		}
		u.registry.EndFinalize(user.ID, sess.ID, false, moved)
		logger.WithField("moved", len(moved)).Errorf("finalize: %v", err)
		return fmt.Errorf("%w: %w", botErrors.ErrFinalizeFailed, err)
	}

	u.commit(ctx, logger, completion{SessionID: sess.ID, PrimaryDir: res.PrimaryDir, MirrorDir: res.MirrorDir})
	u.registry.EndFinalize(user.ID, sess.ID, true, nil)

	names := make([]string, 0, len(sess.Files))
	for _, f := range sess.Files {
		names = append(names, f.OriginalName)
	}
	logger.WithFields(log.Fields{"files": len(names), "primary": res.PrimaryDir}).Info("upload session completed")
	u.notify.Send(ctx, user.ID, completedText(names), nil)
	return nil
}

func (u *Uploads) Cancel(ctx context.Context, user *models.User) error {
	sess, err := u.close(ctx, user.ID)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": user.ID, "session_id": sess.ID}).Info("upload session cancelled")
	u.notify.Send(ctx, user.ID, "❌ Session cancelled and temporary files removed.\nUse /upload to start a new session.", nil)
	return nil
}

// Expire cancels an idle session, unless the user has moved on to another one or
// touched it since it was found idle.
func (u *Uploads) Expire(ctx context.Context, idle session.Session) {
	current, err := u.registry.Get(idle.UserID)
	if err != nil || current.ID != idle.ID || current.State == session.StateFinalizing {
		return
	}
	if current.LastActive.After(idle.LastActive) {
		return
	}
	if _, err := u.close(ctx, idle.UserID); err != nil {
		log.WithField("session_id", idle.ID).Warnf("expire session: %v", err)
		return
	}
	log.WithFields(log.Fields{"user_id": idle.UserID, "session_id": idle.ID}).Info("idle upload session expired")
	u.notify.Send(ctx, idle.UserID, "⌛ Your upload session was cancelled after a long time without activity.\n"+
		"Use /upload to start a new one.", nil)
}

func (u *Uploads) close(ctx context.Context, userID string) (session.Session, error) {
	sess, err := u.registry.Cancel(userID)
	if sess.ID == "" {
		return sess, err
	}
	if err != nil {
		log.WithField("session_id", sess.ID).Warnf("cancel session: %v", err)
	}
	if err := u.store.CancelSession(ctx, sess.ID); err != nil {
		log.WithField("session_id", sess.ID).Errorf("mark session cancelled: %v", err)
	}
	return sess, nil
}

func (u *Uploads) Status(ctx context.Context, user *models.User) error {
	if err := u.gate.CanUpload(ctx, user); err != nil {
		return err
	}
	sess, err := u.registry.Get(user.ID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("📊 Current Session Status\n\n%s\nFiles uploaded: %d/%d\nStarted: %s ago\n\nUse /cancel to cancel this session.",
		utils.ProgressBar(sess.Count(), sess.Max), sess.Count(), sess.Max, utils.FormatAge(sess.CreatedAt, u.now()))
	if sess.State == session.StateFinalizing {
		text += "\nFiles are being moved to storage right now."
	}
	u.notify.Send(ctx, user.ID, text, nil)
	return nil
}
