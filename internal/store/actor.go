// Package store owns the bot's single SQLite connection behind an actor:
// callers submit typed requests over a bounded channel and one consumer
// goroutine, pinned to a dedicated OS thread, executes them sequentially.
// This serializes all storage access, keeps blocking database calls off the
// cooperative scheduler, and gives read-your-writes ordering to any caller
// that submits two requests in sequence.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ErrClosed is returned by Submit after the actor has shut down.
var ErrClosed = errors.New("store: actor is closed")

// requestBufferSize bounds how many requests may queue before submitters
// block.
const requestBufferSize = 32

// Schema applies one package's idempotent table setup.
type Schema func(db *sql.DB) error

// Actor owns the database connection. Construct with New; no other component
// may touch the connection directly.
type Actor struct {
	db       *sql.DB
	requests chan boxedRequest
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// New opens the database, applies every schema before serving any request,
// and starts the consumer loop. A schema failure closes the connection and
// returns an error; callers are expected to abort startup rather than run
// against a malformed schema.
func New(path string, schemas ...Schema) (*Actor, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("unable to open database %q: %w", path, err)
	}
	// The actor is the sole user of this handle; a second connection would
	// break the total ordering guarantee.
	db.SetMaxOpenConns(1)

	for _, schema := range schemas {
		if err := schema(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialise database schema: %w", err)
		}
	}

	a := &Actor{
		db:       db,
		requests: make(chan boxedRequest, requestBufferSize),
		done:     make(chan struct{}),
	}
	go a.loop()

	slog.Info("storage actor ready", slog.String("path", path))
	return a, nil
}

// loop dequeues one request at a time. Panic recovery lives inside each
// envelope so a failing request answers its own caller and the loop keeps
// serving.
func (a *Actor) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(a.done)

	for req := range a.requests {
		req.run(a.db)
	}
}

// Close stops accepting new requests, drains the ones already queued and
// closes the connection.
func (a *Actor) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.requests)
	a.mu.Unlock()

	<-a.done
	return a.db.Close()
}
