package notifier

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/session"
	"github.com/PFEPLTechHub/document-bot/internal/transport"
	"github.com/stretchr/testify/require"
)

type flakyBot struct {
	mu   sync.Mutex
	sent []string
}

func (b *flakyBot) Updates(context.Context) <-chan transport.Event { return nil }

func (b *flakyBot) Open(context.Context, transport.FileRef) (io.ReadCloser, error) {
	return nil, errors.New("unused")
}

func (b *flakyBot) Send(_ context.Context, userID, _ string, _ transport.Keyboard) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if userID == "blocked" {
		return errors.New("bot was blocked by the user")
	}
	b.sent = append(b.sent, userID)
	return nil
}

func TestSendAllSwallowsFailures(t *testing.T) {
	bot := &flakyBot{}
	New(bot).SendAll(context.Background(), []string{"a", "blocked", "b"}, "hello")
	require.Equal(t, []string{"a", "b"}, bot.sent)
}

type idleStub struct {
	sessions []session.Session
}

func (s idleStub) Idle(time.Time) []session.Session {
	return s.sessions
}

func TestCheckSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan session.Session)
	go CheckSessions(ctx, 10*time.Millisecond, time.Hour, idleStub{sessions: []session.Session{{UserID: "u1"}}}, out)

	select {
	case s := <-out:
		require.Equal(t, "u1", s.UserID)
	case <-time.After(time.Second):
		t.Fatal("no idle session reported")
	}
}
