package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/access"
	"github.com/PFEPLTechHub/document-bot/internal/clock"
	"github.com/PFEPLTechHub/document-bot/internal/finalizer"
	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/internal/notifier"
	"github.com/PFEPLTechHub/document-bot/internal/repositories/repofake"
	"github.com/PFEPLTechHub/document-bot/internal/services"
	"github.com/PFEPLTechHub/document-bot/internal/session"
	"github.com/PFEPLTechHub/document-bot/internal/transport"
	"github.com/PFEPLTechHub/document-bot/internal/validator"
	"github.com/stretchr/testify/require"
)

type chatBot struct {
	mu    sync.Mutex
	files map[string][]byte
	inbox map[string][]string
}

func (b *chatBot) Updates(context.Context) <-chan transport.Event { return nil }

func (b *chatBot) Send(_ context.Context, userID, text string, _ transport.Keyboard) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inbox[userID] = append(b.inbox[userID], text)
	return nil
}

func (b *chatBot) Open(_ context.Context, file transport.FileRef) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[file.ID]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *chatBot) last(userID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.inbox[userID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

type fixture struct {
	ctx      context.Context
	repo     *repofake.FakeRepo
	bot      *chatBot
	clock    *clock.Manual
	handler  *Handler
	registry *session.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	repo := repofake.New()
	repo.PutUser(models.User{ID: "m1", DisplayName: "Meera", Role: models.RoleManager})
	repo.PutUser(models.User{ID: "n1", DisplayName: "Neha"})

	c := clock.NewManual(time.Date(2025, time.May, 2, 9, 0, 0, 0, time.UTC))
	bot := &chatBot{files: make(map[string][]byte), inbox: make(map[string][]string)}
	notify := notifier.New(bot)
	ctrl := access.New(repo, access.NewMemoryMarkers(c.Now))
	registry := session.NewRegistry(session.Options{
		TempRoot:      filepath.Join(root, "temp"),
		SummaryWindow: 2 * time.Second,
		Clock:         c,
	})

	uploads := services.NewUploads(services.UploadDeps{
		Store:      repo,
		Gate:       ctrl,
		Registry:   registry,
		Classifier: validator.New(validator.DefaultMaxSize, nil),
		Relocator:  finalizer.New(filepath.Join(root, "primary"), filepath.Join(root, "mirror"), "DGPS Data", c.Now),
		Files:      bot,
		Notify:     notify,
		Now:        c.Now,
	})
	team := services.NewTeam(services.TeamDeps{
		Access: ctrl,
		Notify: notify,
		Limits: services.Limits{MaxFiles: registry.MaxFiles(), MaxSize: validator.DefaultMaxSize},
	})

	return fixture{
		ctx:      context.Background(),
		repo:     repo,
		bot:      bot,
		clock:    c,
		handler:  New(uploads, team, notify),
		registry: registry,
	}
}

func (fx fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := fx.repo.UserByID(fx.ctx, id)
	require.NoError(t, err)
	return u
}

func (fx fixture) text(t *testing.T, id, text string) {
	fx.handler.Handle(fx.ctx, fx.user(t, id), transport.Event{UserID: id, Text: text})
}

func (fx fixture) press(t *testing.T, id, data string) {
	fx.handler.Handle(fx.ctx, fx.user(t, id), transport.Event{UserID: id, Callback: data})
}

func TestInviteApproveUpload(t *testing.T) {
	fx := newFixture(t)

	fx.press(t, "m1", "invite_user")
	invitation, err := fx.repo.ActiveInvitation(fx.ctx, "m1")
	require.NoError(t, err)
	require.Contains(t, fx.bot.last("m1"), "/start "+invitation.Code)

	fx.text(t, "n1", "/start "+invitation.Code)
	require.Contains(t, fx.bot.last("m1"), "New Registration Request")

	fx.text(t, "n1", "/upload")
	require.Contains(t, fx.bot.last("n1"), "still pending approval")

	fx.press(t, "m1", "direct_approve_1")
	require.Contains(t, fx.bot.last("n1"), "approved")

	fx.text(t, "n1", "/upload")
	require.Contains(t, fx.bot.last("n1"), "Please upload your files here")

	fx.bot.files["f1"] = []byte("hello")
	fx.handler.Handle(fx.ctx, fx.user(t, "n1"), transport.Event{UserID: "n1", File: &transport.FileRef{ID: "f1", Name: "notes.txt", Size: 5}})
	fx.clock.Advance(2 * time.Second)
	require.Contains(t, fx.bot.last("n1"), "notes.txt (5.0 Bytes)")

	fx.press(t, "n1", "finalize_upload")
	require.Contains(t, fx.bot.last("n1"), "Upload Completed Successfully")
}

func TestRejectReasonRouting(t *testing.T) {
	fx := newFixture(t)
	fx.press(t, "m1", "invite_user")
	invitation, err := fx.repo.ActiveInvitation(fx.ctx, "m1")
	require.NoError(t, err)
	fx.text(t, "n1", "/start "+invitation.Code)

	fx.press(t, "m1", "reject_1")
	require.Contains(t, fx.bot.last("m1"), "provide a reason")

	fx.text(t, "m1", "not on the project")
	require.Contains(t, fx.bot.last("m1"), "has been rejected")
	require.Contains(t, fx.bot.last("n1"), "Reason: not on the project")

	// the next plain message is no longer taken as a reason
	fx.text(t, "m1", "hello")
	require.Contains(t, fx.bot.last("m1"), "Document Upload Bot")
}

func TestCommandClearsPendingReason(t *testing.T) {
	fx := newFixture(t)
	fx.press(t, "m1", "invite_user")
	invitation, err := fx.repo.ActiveInvitation(fx.ctx, "m1")
	require.NoError(t, err)
	fx.text(t, "n1", "/start "+invitation.Code)

	fx.press(t, "m1", "reject_1")
	fx.text(t, "m1", "/status")
	fx.text(t, "m1", "some text")

	request, err := fx.repo.LatestRequest(fx.ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, models.RequestPending, request.Status)
}

func TestUnknownInput(t *testing.T) {
	fx := newFixture(t)

	fx.text(t, "n1", "/dance")
	require.Contains(t, fx.bot.last("n1"), "didn't understand")

	fx.press(t, "n1", "launch_missiles")
	require.Empty(t, fx.bot.inbox["n1"][1:])

	fx.text(t, "n1", "/manage_users")
	require.Contains(t, fx.bot.last("n1"), "don't have access")
}

func TestFileWithoutSession(t *testing.T) {
	fx := newFixture(t)
	fx.bot.files["f1"] = []byte("x")
	fx.handler.Handle(fx.ctx, fx.user(t, "m1"), transport.Event{UserID: "m1", File: &transport.FileRef{ID: "f1", Name: "a.pdf"}})
	require.Contains(t, fx.bot.last("m1"), "No active session")
}
