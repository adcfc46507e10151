package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/dsn"
)

// Factory builds an unconnected backend.
type Factory func(cfg core.TargetConfig, logger *slog.Logger) Backend

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a backend factory to the registry.
// Called by backend implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a backend factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// NewBackend creates a backend for cfg. When cfg.Backend is empty it is
// derived from the URL: MotherDuck databases get "motherduck", everything
// else "duckdb". The logger is passed to the factory (nil discards).
func NewBackend(cfg core.TargetConfig, logger *slog.Logger) (Backend, error) {
	if cfg.Backend == "" {
		cfg.Backend = Detect(cfg.URL)
	}

	factory, ok := Get(cfg.Backend)
	if !ok {
		return nil, &UnknownBackendError{
			Type:      cfg.Backend,
			Available: List(),
		}
	}
	return factory(cfg, logger), nil
}

// Detect names the built-in backend for a connection URL.
func Detect(rawURL string) string {
	u, err := dsn.Parse(rawURL)
	if err != nil {
		return "duckdb"
	}
	if u.Shape() == core.BackendMotherDuck {
		return "motherduck"
	}
	return "duckdb"
}

// List returns all registered backend names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownBackendError is returned when an unknown backend type is requested.
type UnknownBackendError struct {
	Type      string
	Available []string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown backend type %q\nAvailable backends: %v\nHint: Check backend in duckgorm.yaml", e.Type, e.Available)
}
