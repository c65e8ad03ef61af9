package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 500 * time.Millisecond

// Status describes the configuration currently in effect.
type Status struct {
	Path        string
	FromFile    bool
	Checksum    string
	LoadedAt    time.Time
	ReloadCount uint64
}

// Manager handles configuration loading and hot-reload.
// It uses atomic pointer swaps to ensure thread-safe config updates.
type Manager struct {
	config atomic.Pointer[Config]
	status atomic.Pointer[Status]
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	reloads  uint64
}

// NewManager loads path, or defaults when path does not exist.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{path: path, logger: logger}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// SetLogger replaces the logger used for reload events. Call it before Watch.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Get returns the current configuration.
// This is safe to call concurrently from multiple goroutines.
func (m *Manager) Get() *Config {
	return m.config.Load()
}

// Status returns metadata about the active configuration.
func (m *Manager) Status() Status {
	return *m.status.Load()
}

// OnChange registers a callback invoked after each successful reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Reload reads the configuration again. On failure the current one is kept.
func (m *Manager) Reload() error {
	data, err := os.ReadFile(m.path)
	fromFile := err == nil
	var cfg *Config
	switch {
	case err == nil:
		cfg, err = parse(data)
	case m.path == "" || errors.Is(err, fs.ErrNotExist):
		data = nil
		cfg, err = Load("")
	}
	if err != nil {
		return err
	}

	sum := sha256.Sum256(data)

	m.mu.Lock()
	m.reloads++
	status := &Status{
		Path:        m.path,
		FromFile:    fromFile,
		Checksum:    hex.EncodeToString(sum[:]),
		LoadedAt:    time.Now(),
		ReloadCount: m.reloads,
	}
	listeners := append([]func(*Config){}, m.onChange...)
	initial := m.config.Load() == nil
	m.config.Store(cfg)
	m.status.Store(status)
	m.mu.Unlock()

	if initial {
		return nil
	}
	m.logger.Info("configuration reloaded", "path", m.path, "checksum", status.Checksum[:12])
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Watch starts watching the configuration file for changes.
// The parent directory is watched so editors that replace the file on save
// are still seen. It debounces rapid changes and reloads atomically.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	target, err := filepath.Abs(m.path)
	if err != nil {
		_ = watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return err
	}

	m.mu.Lock()
	m.watcher = watcher
	m.mu.Unlock()

	go m.watchLoop(ctx, watcher, target)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string) {
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				if err := m.Reload(); err != nil {
					m.logger.Error("failed to reload config, keeping current", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("config watcher error", "error", err)
		}
	}
}

// Close stops the configuration watcher.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		err := m.watcher.Close()
		m.watcher = nil
		return err
	}
	return nil
}
