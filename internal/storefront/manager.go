// Package storefront wires the per-session cart, wishlist, discount and pricing state.
package storefront

import (
	"container/list"
	"context"
	"runtime"
	"strings"
	"sync"
	"time"
	"weak"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/storage"
	"github.com/angelmondragon/storefront/internal/wishlist"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const defaultMaxCachedSessions = 10000

// ManagerParams groups dependencies for the session manager.
type ManagerParams struct {
	Storage    storage.Storage
	Validator  DiscountValidator
	Calculator pricing.Calculator
	Logger     *logger.Logger
	// MaxCachedSessions bounds the in-process session cache. Zero uses a default.
	MaxCachedSessions int
	Now               func() time.Time
}

// Manager hands out sessions, loading them from storage on first use and caching
// them in process. Within a process there is at most one live *Session per id:
// the most recently used maxCached sessions are pinned, and a session that fell
// out of that set is handed out again for as long as any caller still holds it.
// Several processes sharing one storage see last-writer-wins.
type Manager struct {
	st        storage.Storage
	validator DiscountValidator
	calc      pricing.Calculator
	logg      *logger.Logger
	now       func() time.Time
	maxCached int

	loads singleflight.Group

	mu      sync.Mutex
	recent  *list.List // of *Session, most recently used first
	pinned  map[string]*list.Element
	handles map[string]weak.Pointer[Session]
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage is required")
	}
	if params.Validator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount validator is required")
	}
	calc := params.Calculator
	if calc == (pricing.Calculator{}) {
		calc = pricing.NewCalculator()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	maxCached := params.MaxCachedSessions
	if maxCached <= 0 {
		maxCached = defaultMaxCachedSessions
	}
	return &Manager{
		st:        params.Storage,
		validator: params.Validator,
		calc:      calc,
		logg:      params.Logger,
		now:       now,
		maxCached: maxCached,
		recent:    list.New(),
		pinned:    make(map[string]*list.Element),
		handles:   make(map[string]weak.Pointer[Session]),
	}, nil
}

// Session returns the session for id, creating empty state on first access.
// Concurrent first accesses to one id share a single storage load; loads for
// different ids do not wait on each other.
func (m *Manager) Session(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	if s := m.lookup(id); s != nil {
		return s, nil
	}

	v, err, _ := m.loads.Do(id, func() (any, error) {
		// A load that finished between lookup and Do has already published.
		if s := m.lookup(id); s != nil {
			return s, nil
		}
		s, err := m.load(ctx, id)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.publishLocked(s), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (m *Manager) lookup(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.pinned[id]; ok {
		m.recent.MoveToFront(el)
		return el.Value.(*Session)
	}
	if h, ok := m.handles[id]; ok {
		if s := h.Value(); s != nil {
			m.pinLocked(s)
			return s
		}
		delete(m.handles, id)
	}
	return nil
}

// publishLocked makes s the canonical session for its id, unless another live
// instance already is.
func (m *Manager) publishLocked(s *Session) *Session {
	if h, ok := m.handles[s.ID]; ok {
		if live := h.Value(); live != nil {
			m.pinLocked(live)
			return live
		}
	}
	h := weak.Make(s)
	m.handles[s.ID] = h
	runtime.AddCleanup(s, m.dropHandle, handleRef{id: s.ID, handle: h})
	m.pinLocked(s)
	return s
}

func (m *Manager) pinLocked(s *Session) {
	if el, ok := m.pinned[s.ID]; ok {
		m.recent.MoveToFront(el)
		return
	}
	m.pinned[s.ID] = m.recent.PushFront(s)
	for m.recent.Len() > m.maxCached {
		m.unpinOldestLocked()
	}
}

// unpinOldestLocked releases the least recently used session. Its state stays in
// storage, and holders of the pointer keep sharing it with later callers.
func (m *Manager) unpinOldestLocked() {
	el := m.recent.Back()
	if el == nil {
		return
	}
	m.recent.Remove(el)
	delete(m.pinned, el.Value.(*Session).ID)
}

type handleRef struct {
	id     string
	handle weak.Pointer[Session]
}

// dropHandle runs once a session is garbage collected.
func (m *Manager) dropHandle(ref handleRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handles[ref.id] == ref.handle {
		delete(m.handles, ref.id)
	}
}

// cached reports the number of pinned sessions.
func (m *Manager) cached() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recent.Len()
}

// Ping reports whether the storage backend is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.st.Ping(ctx)
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	c, err := cart.Load(ctx, m.st, id)
	if err != nil {
		return nil, err
	}
	w, err := wishlist.Load(ctx, m.st, id)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		Cart:      c,
		Wishlist:  w,
		st:        m.st,
		validator: m.validator,
		calc:      m.calc,
		logg:      m.logg,
		now:       m.now,
	}

	var applied AppliedDiscount
	found, err := storage.LoadJSON(ctx, m.st, s.discountKey(), &applied)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load applied discount")
	}
	if found && applied.Code != "" {
		s.applied = &applied
	}

	if m.logg != nil {
		m.logg.Debug(m.logg.WithSessionID(ctx, id), "session loaded")
	}
	return s, nil
}
