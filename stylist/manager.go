package stylist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/raushankrgupta/eyewear-stylist/models"
)

// Manager hands out the live controller for a session id. Recently used
// controllers stay in an LRU; older ones are reloaded from the store.
// A controller evicted while an action is in flight is pinned until it
// goes idle, so a session never has two live controllers.
type Manager struct {
	deps   Dependencies
	mu     sync.Mutex
	cache  *lru.Cache[string, *Controller]
	pinned map[string]*Controller
}

func NewManager(cacheSize int, deps Dependencies) (*Manager, error) {
	if deps.Store == nil {
		return nil, errors.New("stylist manager needs a session store")
	}
	m := &Manager{deps: deps, pinned: make(map[string]*Controller)}
	cache, err := lru.NewWithEvict[string, *Controller](cacheSize, m.onEvict)
	if err != nil {
		return nil, err
	}
	m.cache = cache
	return m, nil
}

// onEvict runs inside cache.Add, which is only called with m.mu held.
func (m *Manager) onEvict(id string, c *Controller) {
	if c.Busy() {
		m.pinned[id] = c
	}
}

// Create starts a new session in consultant mode.
func (m *Manager) Create(ctx context.Context) (*Controller, error) {
	now := time.Now()
	session := &models.Session{
		ID:        uuid.NewString(),
		Mode:      models.ModeConsultant,
		Messages:  []models.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.deps.Store.Save(ctx, session); err != nil {
		return nil, err
	}

	c := NewController(session.Clone(), m.deps)
	m.mu.Lock()
	m.pruneLocked()
	m.cache.Add(session.ID, c)
	m.mu.Unlock()
	return c, nil
}

// Get returns the controller for id, loading it from the store on a miss.
func (m *Manager) Get(ctx context.Context, id string) (*Controller, error) {
	if c, ok := m.cache.Get(id); ok {
		return c, nil
	}

	m.mu.Lock()
	if c, ok := m.pinned[id]; ok {
		delete(m.pinned, id)
		m.cache.Add(id, c)
		m.mu.Unlock()
		return c, nil
	}
	m.mu.Unlock()

	session, err := m.deps.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have loaded or revived it meanwhile; keep that one
	if c, ok := m.pinned[id]; ok {
		delete(m.pinned, id)
		m.cache.Add(id, c)
		return c, nil
	}
	c := NewController(session, m.deps)
	if prev, ok, _ := m.cache.PeekOrAdd(id, c); ok {
		return prev, nil
	}
	return c, nil
}

// pruneLocked forgets pinned controllers that finished their action.
// Their last state has been persisted by then.
func (m *Manager) pruneLocked() {
	for id, c := range m.pinned {
		if !c.Busy() {
			delete(m.pinned, id)
		}
	}
}

// Shutdown waits for background archive uploads of live controllers.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	controllers := m.cache.Values()
	for _, c := range m.pinned {
		controllers = append(controllers, c)
	}
	m.mu.Unlock()
	for _, c := range controllers {
		c.WaitBackground()
	}
}
