// Package bodies stores user-submitted impactors together with the effects
// computed for them on the angle-factor path.
package bodies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/impact-atlas/internal/impact"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrNotFound is returned when no body has the requested ID.
var ErrNotFound = errors.New("custom body not found")

const defaultName = "Custom Asteroid"

// Body is a stored custom impactor.
type Body struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Params    impact.Body    `json:"params"`
	Effects   impact.Effects `json:"impact"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store keeps custom bodies in memory and mirrors them to a JSON file.
// File writes are best-effort: a failed write is logged and the in-memory
// state stays authoritative for the life of the process.
type Store struct {
	path   string
	clock  clockwork.Clock
	logger *slog.Logger

	mu     sync.RWMutex
	bodies []Body

	// writeMu orders file writes so the last write reflects the latest state.
	writeMu sync.Mutex
}

// Open loads the store from path. A missing file starts an empty store; an
// unreadable or corrupt file is logged and also starts empty. An empty path
// keeps the store in memory only.
func Open(path string, clock clockwork.Clock, logger *slog.Logger) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Store{path: path, clock: clock, logger: logger}
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s
	case err != nil:
		logger.Warn("read custom bodies failed, starting empty", "path", path, "error", err)
		return s
	}

	if err := json.Unmarshal(data, &s.bodies); err != nil {
		logger.Warn("decode custom bodies failed, starting empty", "path", path, "error", err)
		s.bodies = nil
	}
	return s
}

// Create validates b, computes its effects and stores it.
func (s *Store) Create(_ context.Context, name string, b impact.Body) (Body, error) {
	eff, err := impact.ComputeEffects(b)
	if err != nil {
		return Body{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName
	}

	body := Body{
		ID:        uuid.NewString(),
		Name:      name,
		Params:    b,
		Effects:   eff,
		CreatedAt: s.clock.Now().UTC(),
	}

	s.mu.Lock()
	s.bodies = append(s.bodies, body)
	s.mu.Unlock()

	s.persist()
	return body, nil
}

// List returns all bodies in creation order.
func (s *Store) List(_ context.Context) []Body {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.bodies)
}

// Get returns the body with the given ID.
func (s *Store) Get(_ context.Context, id string) (Body, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bodies {
		if b.ID == id {
			return b, nil
		}
	}
	return Body{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
}

// Delete removes the body with the given ID.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.bodies, func(b Body) bool { return b.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.bodies = slices.Delete(s.bodies, i, i+1)
	s.mu.Unlock()

	s.persist()
	return nil
}

func (s *Store) persist() {
	if s.path == "" {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	snapshot := append([]Body{}, s.bodies...)
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		s.logger.Warn("encode custom bodies failed", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Warn("create custom bodies directory failed", "path", s.path, "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn("write custom bodies failed", "path", s.path, "error", err)
	}
}
