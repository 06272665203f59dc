// Package registry constructs and tracks one sync session per namespace.
// A session bundles the record store, status projection and sync engine
// for a single user; consumers receive it by handle instead of reaching
// for a package-level instance.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/notesync/internal/config"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/migrations"
	"github.com/dmitrijs2005/notesync/internal/remote"
	"github.com/dmitrijs2005/notesync/internal/repositories/syncmeta"
	"github.com/dmitrijs2005/notesync/internal/store"
	"github.com/dmitrijs2005/notesync/internal/syncer"
	"github.com/pressly/goose/v3"
)

// Session is the per-namespace bundle handed to consumers.
type Session struct {
	Namespace string
	Store     *store.Store
	Engine    *syncer.Engine
	Status    *syncer.Status

	db *sql.DB
}

// Close releases the session's database handle.
func (s *Session) Close() error {
	return s.db.Close()
}

// RemoteFactory builds the remote service client for a namespace. Tests
// substitute fixtures through it.
type RemoteFactory func(namespace string) remote.Service

// Registry opens and caches sessions keyed by namespace.
type Registry struct {
	cfg       *config.Config
	log       logging.Logger
	newRemote RemoteFactory

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Registry.
type Option func(*Registry)

// WithRemoteFactory overrides how remote clients are built.
func WithRemoteFactory(f RemoteFactory) Option {
	return func(r *Registry) { r.newRemote = f }
}

func New(cfg *config.Config, log logging.Logger, opts ...Option) *Registry {
	r := &Registry{
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*Session),
	}
	r.newRemote = func(namespace string) remote.Service {
		return remote.NewHTTPClient(cfg.ServerEndpointURL, cfg.AuthToken, cfg.RequestTimeout)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunMigrations applies the embedded schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open returns the live session for namespace, creating it on first use.
// The database file is scoped to the namespace, so records and ledger of
// different users never share state.
func (r *Registry) Open(ctx context.Context, namespace string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[namespace]; ok {
		return s, nil
	}

	dsn := filepath.Join(r.cfg.DatabaseDir, "notes_"+namespace+".db")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log := r.log.With("namespace", namespace)
	st := store.New(db, log)
	status := syncer.NewStatus()
	st.Subscribe(status.HandleEvent)

	ledger := syncmeta.NewSQLiteRepository(db)
	engine := syncer.NewEngine(st, ledger, r.newRemote(namespace), status, log)

	// prime the projection from persisted state
	pending, err := ledger.PendingCount(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	last, err := ledger.LastSyncTime(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	status.Prime(pending, last)

	s := &Session{
		Namespace: namespace,
		Store:     st,
		Engine:    engine,
		Status:    status,
		db:        db,
	}
	r.sessions[namespace] = s
	return s, nil
}

// Close shuts down the session for namespace, if any.
func (r *Registry) Close(namespace string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[namespace]
	if !ok {
		return nil
	}
	delete(r.sessions, namespace)
	return s.Close()
}

// CloseAll shuts down every open session.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for ns, s := range r.sessions {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.sessions, ns)
	}
	return firstErr
}
