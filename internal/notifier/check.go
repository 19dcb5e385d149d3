package notifier

import (
	"context"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/session"
)

type IdleFinder interface {
	Idle(cutoff time.Time) []session.Session
}

// CheckSessions reports sessions idle for longer than timeout on out, once per interval,
// until ctx is done.
func CheckSessions(ctx context.Context, interval, timeout time.Duration, finder IdleFinder, out chan<- session.Session) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, s := range finder.Idle(now.Add(-timeout)) {
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
