package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

const (
	defaultDBDriver     = "postgres"
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25
)

// ErrMissingURL is returned when no database URL has been configured.
var ErrMissingURL = errors.New("DATABASE_URL is required")

// Handle is the process-wide database connection. It is opened on first use
// and reused afterwards. A failed attempt leaves the handle empty so the next
// caller tries again; a successful connection is never replaced.
type Handle struct {
	mu   sync.Mutex
	url  string
	open func(ctx context.Context, url string) (*sql.DB, error)
	db   *sql.DB
}

// NewHandle returns a lazily connecting handle for the given PostgreSQL URL.
func NewHandle(url string) *Handle {
	return &Handle{url: url, open: Open}
}

// Wrap returns a handle around an already open pool.
func Wrap(db *sql.DB) *Handle {
	return &Handle{db: db}
}

// Get returns the shared pool, connecting on the first call.
func (h *Handle) Get(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db != nil {
		return h.db, nil
	}
	if h.open == nil {
		return nil, errors.New("database handle is not configured")
	}

	db, err := h.open(ctx, h.url)
	if err != nil {
		return nil, err
	}
	h.db = db
	return db, nil
}

// Ping checks connectivity, connecting first if needed.
func (h *Handle) Ping(ctx context.Context) error {
	db, err := h.Get(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close releases the pool if one was opened.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

// Open connects to PostgreSQL and verifies the connection with a ping.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, ErrMissingURL
	}

	db, err := sql.Open(defaultDBDriver, url)
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(defaultConnMaxIdle)
	db.SetConnMaxLifetime(defaultConnMaxLife)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetMaxOpenConns(defaultMaxOpenConns)

	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
