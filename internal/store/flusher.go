package store

import (
	"sync"
	"time"

	"github.com/soyeahso/irccore/internal/logging"
)

// FlusherConfig controls when buffered entries are written.
type FlusherConfig struct {
	// MaxEntries triggers a flush when the buffer holds this many entries.
	// Default: 32.
	MaxEntries int

	// IdleTimeout triggers a flush when no entry arrives within this duration.
	// Default: 1 second.
	IdleTimeout time.Duration
}

// Flusher buffers transcript entries and writes them in bursts, so a busy
// channel does not hit the database once per line.
type Flusher struct {
	cfg FlusherConfig
	tr  *Transcript
	log *logging.Logger

	mu      sync.Mutex
	buf     []Entry
	timer   *time.Timer
	written int
	closed  bool
}

// NewFlusher creates a flusher writing to tr.
func NewFlusher(tr *Transcript, cfg FlusherConfig, log *logging.Logger) *Flusher {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 32
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = time.Second
	}
	return &Flusher{cfg: cfg, tr: tr, log: log.Sub("transcript")}
}

// Record buffers e. Entries are stamped on arrival, so a late flush keeps
// their order and time.
func (f *Flusher) Record(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return f.tr.Record(e)
	}

	f.buf = append(f.buf, e)

	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.cfg.IdleTimeout, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.flushLocked()
	})

	if len(f.buf) >= f.cfg.MaxEntries {
		f.flushLocked()
	}
	return nil
}

// Flush writes everything buffered so far.
func (f *Flusher) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.flushLocked()
}

// Close flushes and makes later Records write through.
func (f *Flusher) Close() error {
	f.Flush()
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Written returns how many entries have reached the database.
func (f *Flusher) Written() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

func (f *Flusher) flushLocked() {
	if len(f.buf) == 0 {
		return
	}
	for _, e := range f.buf {
		if err := f.tr.Record(e); err != nil {
			f.log.Error().Err(err).Str("label", e.Label).Msg("failed to record transcript line")
			continue
		}
		f.written++
	}
	f.log.Trace().Int("entries", len(f.buf)).Msg("flushed")
	f.buf = f.buf[:0]
}
