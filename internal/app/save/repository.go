// Package save binds the game's persistence hooks to a key/value store.
package save

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"skyisle/internal/app/game"
	domainsave "skyisle/internal/domain/save"
	"skyisle/internal/domain/world"
	"skyisle/internal/platform/store"
)

const writeTimeout = 2 * time.Second

// Repository reads and writes one slot's record. Write failures are logged
// and swallowed so the simulation never stalls on storage.
type Repository struct {
	store  store.Store
	key    string
	logger zerolog.Logger
}

func NewRepository(s store.Store, namespace string, logger zerolog.Logger) *Repository {
	key := domainsave.Key(namespace)
	return &Repository{store: s, key: key, logger: logger.With().Str("save_key", key).Logger()}
}

func (r *Repository) Key() string { return r.key }

// Load returns the stored record. A missing, unreadable or malformed record
// reports false and the caller starts a new game.
func (r *Repository) Load(ctx context.Context) (domainsave.Record, bool) {
	b, err := r.store.Load(ctx, r.key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn().Err(err).Msg("load save failed")
		}
		return domainsave.Record{}, false
	}
	rec, err := domainsave.Decode(b)
	if err != nil {
		r.logger.Warn().Err(err).Msg("ignoring unreadable save")
		return domainsave.Record{}, false
	}
	return rec, true
}

func (r *Repository) Save(rec domainsave.Record) {
	b, err := rec.Encode()
	if err != nil {
		r.logger.Warn().Err(err).Msg("encode save failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.store.Save(ctx, r.key, b); err != nil {
		r.logger.Warn().Err(err).Msg("write save failed")
	}
}

func (r *Repository) Reset() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.store.Delete(ctx, r.key); err != nil {
		r.logger.Warn().Err(err).Msg("delete save failed")
	}
}

// Resume builds a fresh game, applies the stored record if there is one and
// opens the welcome banner. The game saves through opts.Saver when set and
// through the repository otherwise.
func (r *Repository) Resume(ctx context.Context, l world.Layout, opts game.Options) *game.Game {
	if opts.Saver == nil {
		opts.Saver = r
	}
	g := game.New(l, opts)
	if rec, ok := r.Load(ctx); ok {
		g.Restore(rec)
	}
	g.Welcome()
	return g
}
