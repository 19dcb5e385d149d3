package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/handlers"
	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/internal/notifier"
	"github.com/PFEPLTechHub/document-bot/internal/services"
	"github.com/PFEPLTechHub/document-bot/internal/session"
	"github.com/PFEPLTechHub/document-bot/internal/transport"
	"github.com/PFEPLTechHub/document-bot/internal/utils"
	log "github.com/sirupsen/logrus"
)

// completionsKey queues completion retries behind each other, apart from any user.
const completionsKey = "\x00completions"

type UserStore interface {
	UpsertUser(ctx context.Context, id, username, displayName string) (*models.User, error)
}

type Options struct {
	Bot         transport.Bot
	Users       UserStore
	Handler     *handlers.Handler
	Uploads     *services.Uploads
	Registry    *session.Registry
	Housekeeper *services.Housekeeper
	IdleTimeout time.Duration
	CheckEvery  time.Duration
}

type App struct {
	bot         transport.Bot
	users       UserStore
	handler     *handlers.Handler
	uploads     *services.Uploads
	registry    *session.Registry
	housekeeper *services.Housekeeper
	idleTimeout time.Duration
	checkEvery  time.Duration
	locks       *utils.KeyLock
	wg          sync.WaitGroup
}

func NewApp(opts Options) *App {
	return &App{
		bot:         opts.Bot,
		users:       opts.Users,
		handler:     opts.Handler,
		uploads:     opts.Uploads,
		registry:    opts.Registry,
		housekeeper: opts.Housekeeper,
		idleTimeout: opts.IdleTimeout,
		checkEvery:  opts.CheckEvery,
		locks:       utils.NewKeyLock(),
	}
}

// Run recovers state left by a previous process, then serves updates until SIGINT/SIGTERM
// or until ctx is done. Each event runs in its own goroutine; events of one user are
// handled one at a time, in the order they arrived.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.housekeeper.Recover(ctx); err != nil {
		return err
	}

	expired := make(chan session.Session)
	go notifier.CheckSessions(ctx, a.checkEvery, a.idleTimeout, a.registry, expired)

	retry := time.NewTicker(a.checkEvery)
	defer retry.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	updates := a.bot.Updates(ctx)
	log.Info("Bot is running")

	for {
		select {
		case ev, ok := <-updates:
			if !ok {
				a.wg.Wait()
				return nil
			}
			a.spawn(ev.UserID, func() { a.Updates(ctx, ev) })
		case s := <-expired:
			a.spawn(s.UserID, func() { a.uploads.Expire(ctx, s) })
		case <-retry.C:
			a.spawn(completionsKey, func() { a.uploads.RetryCompletions(ctx) })
		case <-ctx.Done():
			a.wg.Wait()
			return nil
		case sig := <-quit:
			log.Infof("Received signal: %s. Shutting down...", sig)
			cancel()
			a.wg.Wait()
			return nil
		}
	}
}

// spawn runs fn after every earlier event of userID. The turn is taken here, on the
// loop goroutine, so one user's events keep their arrival order. A panic is logged
// and does not reach the loop.
func (a *App) spawn(userID string, fn func()) {
	wait, done := a.locks.Enqueue(userID)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		wait()
		defer done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("user_id", userID).Errorf("handler panic: %v", r)
			}
		}()
		fn()
	}()
}
