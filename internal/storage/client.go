// Package storage implements chunked file transfer and filesystem
// operations over an open device session.
package storage

import (
	"log/slog"
	"time"

	"github.com/devlink-io/devlink/internal/session"
)

const (
	// DefaultChunkSize is the write chunk size. Device-side buffers are
	// small, so chunks stay well under a kilobyte.
	DefaultChunkSize = 512

	// DefaultKeepAlive is how long a write exchange may go without
	// traffic from the device before a ping is injected to hold the
	// session open.
	DefaultKeepAlive = 3 * time.Second
)

// Options tunes transfer behavior. The zero value picks the defaults.
type Options struct {
	// ChunkSize caps the data bytes per write frame.
	ChunkSize int

	// PrefetchStat makes reads stat the file first so progress events
	// carry a total and missing files fail before any data moves.
	PrefetchStat bool

	// KeepAliveInterval is the quiet period before a keep-alive ping
	// during chunked writes.
	KeepAliveInterval time.Duration
}

// Client runs storage operations on one session. Like the session it is
// not safe for concurrent use.
type Client struct {
	s    *session.Session
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

// New wraps an open session.
func New(s *session.Session, opts Options, log *slog.Logger) *Client {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.KeepAliveInterval <= 0 {
		opts.KeepAliveInterval = DefaultKeepAlive
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{s: s, opts: opts, log: log, now: time.Now}
}
