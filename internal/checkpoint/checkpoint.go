// Package checkpoint persists the resume state of a halted acquisition run
// between CLI invocations. The acquisition pipeline itself never touches it.
package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// ErrNoCheckpoint is returned when nothing is saved for a query.
var ErrNoCheckpoint = errors.New("no checkpoint found")

// Saved is the on-disk form of a checkpoint.
type Saved struct {
	Checkpoint tender.Checkpoint `json:"checkpoint"`
	SavedAt    time.Time         `json:"saved_at"`
}

// Manager loads and stores checkpoints keyed by query.
type Manager interface {
	Load(ctx context.Context, q tender.Query) (*Saved, error)
	Save(ctx context.Context, cp tender.Checkpoint) error
	Clear(ctx context.Context, q tender.Query) error
}

// Config selects the manager.
type Config struct {
	Enabled bool
	Dir     string
}

// Option customizes the file manager.
type Option func(*fileManager)

// WithMirror also uploads every saved checkpoint to store.
func WithMirror(store tender.BlobStore) Option {
	return func(m *fileManager) { m.mirror = store }
}

// WithClock sets the clock used for SavedAt.
func WithClock(c tender.Clock) Option {
	return func(m *fileManager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *fileManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager returns a file manager, or a no-op one when disabled.
func NewManager(cfg Config, opts ...Option) (Manager, error) {
	if !cfg.Enabled {
		return noopManager{}, nil
	}
	if cfg.Dir == "" {
		return nil, errors.New("checkpoint directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create checkpoint directory %s: %w", cfg.Dir, err)
	}
	m := &fileManager{dir: cfg.Dir, clock: wallClock{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type fileManager struct {
	dir    string
	mirror tender.BlobStore
	clock  tender.Clock
	logger *zap.Logger
}

// FileName names the checkpoint of q.
func FileName(q tender.Query) string {
	parts := []string{"checkpoint"}
	if q.RegistryNumber != "" {
		parts = append(parts, "reestr", q.RegistryNumber)
	} else {
		parts = append(parts, q.Region, q.ExactDate)
	}
	subsystem := q.Subsystem
	if subsystem == "" {
		subsystem = tender.DefaultSubsystem
	}
	parts = append(parts, subsystem)
	return sanitize(strings.Join(parts, "_")) + ".json"
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		default:
			return '-'
		}
	}, name)
}

func (m *fileManager) path(q tender.Query) string {
	return filepath.Join(m.dir, FileName(q))
}

func (m *fileManager) Load(_ context.Context, q tender.Query) (*Saved, error) {
	data, err := os.ReadFile(m.path(q))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCheckpoint
		}
		return nil, fmt.Errorf("read checkpoint file: %w", err)
	}
	var saved Saved
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("parse checkpoint file: %w", err)
	}
	return &saved, nil
}

func (m *fileManager) Save(ctx context.Context, cp tender.Checkpoint) error {
	saved := Saved{Checkpoint: cp, SavedAt: m.clock.Now()}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	path := m.path(cp.State.Query)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename checkpoint file: %w", err)
	}
	if m.mirror != nil {
		uri, err := m.mirror.PutObject(ctx, "checkpoints/"+filepath.Base(path), "application/json", bytes.NewReader(data))
		if err != nil {
			m.logger.Warn("checkpoint mirror failed", zap.String("path", path), zap.Error(err))
		} else {
			m.logger.Debug("checkpoint mirrored", zap.String("uri", uri))
		}
	}
	return nil
}

func (m *fileManager) Clear(_ context.Context, q tender.Query) error {
	if err := os.Remove(m.path(q)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove checkpoint file: %w", err)
	}
	return nil
}

type noopManager struct{}

func (noopManager) Load(context.Context, tender.Query) (*Saved, error) { return nil, ErrNoCheckpoint }

func (noopManager) Save(context.Context, tender.Checkpoint) error { return nil }

func (noopManager) Clear(context.Context, tender.Query) error { return nil }

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }
