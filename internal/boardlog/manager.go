package boardlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/bridgetable/internal/table"
)

const (
	defaultFlushBoards   = 1
	defaultFlushInterval = 30 * time.Second
	// After this many failed flushes in a row the manager stops writing and
	// drops what it holds rather than growing without bound.
	maxConsecutiveFailures = 3
	filePerm               = 0o644
)

var ErrClosed = errors.New("boardlog: manager closed")

// Config controls where and how often records are written.
type Config struct {
	Dir           string
	FlushBoards   int
	FlushInterval time.Duration
	Clock         quartz.Clock
}

// Manager buffers finished boards and writes each one to its own file.
type Manager struct {
	cfg    Config
	logger *log.Logger
	clock  quartz.Clock
	stamp  string

	mu       sync.Mutex
	buffer   []Record
	written  int
	failures int
	disabled bool
	closed   bool

	ticker   *quartz.Ticker
	flushReq chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates the output directory and starts the background flusher.
func NewManager(logger *log.Logger, cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("boardlog: directory is required")
	}
	if cfg.FlushBoards <= 0 {
		cfg.FlushBoards = defaultFlushBoards
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("boardlog: create %s: %w", cfg.Dir, err)
	}

	m := &Manager{
		cfg:      cfg,
		logger:   logger.WithPrefix("boardlog"),
		clock:    cfg.Clock,
		stamp:    cfg.Clock.Now().UTC().Format("20060102T150405Z"),
		flushReq: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	m.ticker = m.clock.NewTicker(cfg.FlushInterval, "boardlog", "flush")

	m.wg.Add(1)
	go m.run()
	return m, nil
}

// RecordBoard queues a finished board. The write happens in the background
// once enough boards are buffered or the flush interval passes.
func (m *Manager) RecordBoard(sum *table.BoardSummary) error {
	if sum == nil {
		return nil
	}
	rec := FromSummary(sum, m.clock.Now())

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.disabled {
		m.mu.Unlock()
		return nil
	}
	m.buffer = append(m.buffer, rec)
	full := len(m.buffer) >= m.cfg.FlushBoards
	m.mu.Unlock()

	if full {
		select {
		case m.flushReq <- struct{}{}:
		default:
		}
	}
	return nil
}

// Flush writes every buffered record now.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushLocked()
}

// Close stops the background flusher and writes whatever is left.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.stop)
	m.wg.Wait()
	m.ticker.Stop()
	return m.Flush()
}

// Written reports how many records have reached disk.
func (m *Manager) Written() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

func (m *Manager) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ticker.C:
			m.flushAndLog()
		case <-m.flushReq:
			m.flushAndLog()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) flushAndLog() {
	if err := m.Flush(); err != nil {
		m.logger.Error("Failed to write board records", "error", err)
	}
}

func (m *Manager) flushLocked() error {
	if m.disabled || len(m.buffer) == 0 {
		return nil
	}

	for len(m.buffer) > 0 {
		rec := m.buffer[0]
		if err := m.writeRecord(&rec); err != nil {
			return m.handleFailure(err)
		}
		m.buffer = m.buffer[1:]
		m.written++
	}
	m.failures = 0
	m.buffer = nil
	return nil
}

func (m *Manager) handleFailure(err error) error {
	m.failures++
	if m.failures >= maxConsecutiveFailures {
		m.logger.Error("Disabling board log after repeated failures",
			"failures", m.failures,
			"dropped", len(m.buffer),
			"error", err)
		m.disabled = true
		m.buffer = nil
	}
	return err
}

func (m *Manager) writeRecord(rec *Record) error {
	data, err := EncodeToBytes(rec)
	if err != nil {
		return fmt.Errorf("encode board %d: %w", rec.Board, err)
	}
	path := filepath.Join(m.cfg.Dir, m.fileName(rec))
	if err := writeFileAtomic(path, data, filePerm); err != nil {
		return fmt.Errorf("write board %d: %w", rec.Board, err)
	}
	m.logger.Debug("Wrote board record", "board", rec.Board, "path", path)
	return nil
}

func (m *Manager) fileName(rec *Record) string {
	return fmt.Sprintf("board-%s-%04d%s", m.stamp, rec.Board, fileExt)
}
