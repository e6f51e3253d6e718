// Package plugin ties the resolution engine, the snapshot cache and the
// Munin renderers to the collector verbs.
package plugin

import (
	"context"
	"errors"
	"io"

	"github.com/pgpwatch/munin-pgp-expiration/internal/config"
	"github.com/pgpwatch/munin-pgp-expiration/internal/expiry"
	"github.com/pgpwatch/munin-pgp-expiration/internal/logging"
	"github.com/pgpwatch/munin-pgp-expiration/internal/munin"
	"github.com/pgpwatch/munin-pgp-expiration/internal/snapshot"
)

type App struct {
	cfg    *config.Config
	runner *expiry.Runner
	store  *snapshot.Store
	log    logging.Logger
}

// New wires an App from its collaborators.
func New(cfg *config.Config, runner *expiry.Runner, store *snapshot.Store, log logging.Logger) *App {
	if log == nil {
		log = logging.Nop{}
	}
	return &App{cfg: cfg, runner: runner, store: store, log: log}
}

// Refresh runs a resolution batch and replaces the cached snapshot.
func (a *App) Refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	identities := a.cfg.Identities()
	if len(identities) == 0 {
		return nil, errors.New(`environment variable "emails" is not set`)
	}

	snap := a.runner.Run(ctx, identities)
	if err := a.store.Save(snap); err != nil {
		return nil, err
	}
	a.log.Info("snapshot refreshed", "path", a.store.Path(), "identities", len(identities))
	return snap, nil
}

// results returns the cached snapshot, resolving on demand when the cache
// is cold. A present but unreadable cache is fatal.
func (a *App) results(ctx context.Context) (*snapshot.Snapshot, error) {
	snap, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}
	a.log.Info("no cached snapshot, resolving on demand")
	return a.Refresh(ctx)
}

// EmitConfig writes configuration mode output; with the dirtyconfig
// capability active, the values follow immediately.
func (a *App) EmitConfig(ctx context.Context, w io.Writer) error {
	snap, err := a.results(ctx)
	if err != nil {
		return err
	}
	munin.WriteConfig(w, snap)
	if a.cfg.DirtyConfigEnabled() {
		munin.WriteValues(w, snap)
	}
	return nil
}

// EmitValues writes value mode output.
func (a *App) EmitValues(ctx context.Context, w io.Writer) error {
	snap, err := a.results(ctx)
	if err != nil {
		return err
	}
	munin.WriteValues(w, snap)
	return nil
}
