package cart

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const defaultNamespace = "p9-cart"

// Manager hands out one Store per browser. Each store persists under a key
// derived from the shared namespace and the browser's cart ID, so a returning
// visitor gets the same slot back. Stores are cached for the process lifetime;
// two requests from the same browser mutate the same in-memory store.
type Manager struct {
	mu        sync.Mutex
	stores    map[string]*Store
	namespace string
	disk      Persister
	logger    *zap.Logger
}

// ManagerDeps configures a Manager.
type ManagerDeps struct {
	// Namespace prefixes every storage key. Defaults to "p9-cart".
	Namespace string
	Persister Persister
	Logger    *zap.Logger
}

// NewManager constructs a Manager.
func NewManager(deps ManagerDeps) *Manager {
	ns := strings.TrimSpace(deps.Namespace)
	if ns == "" {
		ns = defaultNamespace
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		stores:    make(map[string]*Store),
		namespace: ns,
		disk:      deps.Persister,
		logger:    logger,
	}
}

// Store returns the cart store for the given browser ID, creating and loading
// it on first use. An empty ID maps to the bare namespace slot.
func (m *Manager) Store(ctx context.Context, id string) *Store {
	key := m.keyFor(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[key]; ok {
		return s
	}

	s, err := NewStore(ctx, StoreDeps{
		Key:       key,
		Persister: m.disk,
		Logger:    m.logger,
	})
	if err != nil {
		// Only reachable with an empty key, which keyFor never produces.
		s, _ = NewStore(ctx, StoreDeps{Key: defaultNamespace, Logger: m.logger})
	}
	m.stores[key] = s
	return s
}

func (m *Manager) keyFor(id string) string {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return m.namespace
	}
	return m.namespace + ":" + trimmed
}
