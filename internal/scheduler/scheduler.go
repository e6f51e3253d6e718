// Package scheduler drives daemon-mode snapshot refreshes on a cron
// cadence.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pgpwatch/munin-pgp-expiration/internal/logging"
	"github.com/pgpwatch/munin-pgp-expiration/internal/mailbox"
)

// RefreshFunc repopulates the snapshot from the network.
type RefreshFunc func(ctx context.Context) error

// Job marks one due refresh. Jobs pass through a single-slot mailbox: if a
// refresh is still running when the next tick fires, the ticks collapse
// into one pending job.
type Job struct {
	Requested time.Time
}

type Scheduler struct {
	spec    string
	refresh RefreshFunc
	mb      *mailbox.Mailbox[Job]
	log     logging.Logger
}

// New creates a scheduler for the given cron spec.
func New(spec string, refresh RefreshFunc, log logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Nop{}
	}
	return &Scheduler{spec: spec, refresh: refresh, mb: mailbox.New[Job](), log: log}
}

// Run refreshes once at startup, then on every schedule tick, until ctx is
// cancelled. Refresh errors are logged, not fatal: the next tick retries.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() {
		s.mb.Put(Job{Requested: time.Now()})
	}); err != nil {
		return fmt.Errorf("parsing refresh schedule %q: %w", s.spec, err)
	}
	c.Start()
	defer c.Stop()

	s.log.Info("scheduler started", "schedule", s.spec)
	s.mb.Put(Job{Requested: time.Now()})

	for {
		job, ok := s.mb.Take(ctx)
		if !ok {
			s.log.Info("scheduler stopped")
			return nil
		}
		s.log.Debug("refresh due", "requested", job.Requested)
		if err := s.refresh(ctx); err != nil {
			s.log.Error("refresh failed", "error", err)
		}
	}
}
