package meta

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hordecore/hordecore/internal/data"
)

// StorageKey is the local storage key the profile lives under.
const StorageKey = "hordecore.meta"

// Storage is a local string key-value store. Get returns ErrNotFound for a
// missing key.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Remote is a per-player profile store reached over the network.
type Remote interface {
	Load(ctx context.Context, playerID string) (State, error)
	Save(ctx context.Context, playerID string, s State) error
}

// Manager loads and saves the profile. Local storage is authoritative for
// availability; a remote copy, when configured, is merged in on load.
type Manager struct {
	storage  Storage
	remote   Remote
	tables   *data.Tables
	log      *zap.Logger
	playerID string
}

// NewManager creates a Manager. remote may be nil.
func NewManager(storage Storage, remote Remote, tables *data.Tables, playerID string, log *zap.Logger) *Manager {
	return &Manager{storage: storage, remote: remote, tables: tables, log: log, playerID: playerID}
}

// Load returns the merged local and remote profile. It always returns a
// usable State; the error reports storage failures that forced a fallback.
func (m *Manager) Load(ctx context.Context) (State, error) {
	var errs []error
	local := NewState(m.tables)

	raw, err := m.storage.Get(StorageKey)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		m.log.Warn("local profile unreadable, using defaults", zap.Error(err))
		errs = append(errs, fmt.Errorf("local load: %w", err))
	default:
		var fixes []string
		local, fixes = Decode([]byte(raw), m.tables)
		if len(fixes) > 0 {
			m.log.Warn("meta state repaired", zap.Strings("repairs", fixes))
		}
	}

	if m.remote == nil {
		return local, errors.Join(errs...)
	}
	remote, err := m.remote.Load(ctx, m.playerID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		m.log.Warn("remote profile unavailable", zap.String("player", m.playerID), zap.Error(err))
		errs = append(errs, fmt.Errorf("remote load: %w", err))
	default:
		repaired, fixes := Repair(remote, m.tables)
		if len(fixes) > 0 {
			m.log.Warn("remote meta state repaired", zap.Strings("repairs", fixes))
		}
		local = Merge(local, repaired)
	}
	return local, errors.Join(errs...)
}

// Save writes the profile to local storage.
func (m *Manager) Save(s State) error {
	b, err := Encode(s)
	if err != nil {
		return err
	}
	if err := m.storage.Set(StorageKey, string(b)); err != nil {
		return fmt.Errorf("local save: %w", err)
	}
	return nil
}

// Push uploads the profile. It is a no-op without a remote.
func (m *Manager) Push(ctx context.Context, s State) error {
	if m.remote == nil {
		return nil
	}
	if err := m.remote.Save(ctx, m.playerID, s); err != nil {
		return fmt.Errorf("remote save %s: %w", m.playerID, err)
	}
	return nil
}

// MemStorage is an in-memory Storage.
type MemStorage map[string]string

func (m MemStorage) Get(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m MemStorage) Set(key, value string) error {
	m[key] = value
	return nil
}

func (m MemStorage) Remove(key string) error {
	delete(m, key)
	return nil
}
