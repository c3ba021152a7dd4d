package bridge

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/levels"
)

// HubConfig holds configuration for the hub.
type HubConfig struct {
	Session       Config        // Template for new sessions
	IdleTimeout   time.Duration // How long an unwatched session lives without requests
	CleanupPeriod time.Duration // How often to look for idle sessions
	MaxSessions   int           // 0 means unlimited
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Session:       DefaultConfig(),
		IdleTimeout:   10 * time.Minute,
		CleanupPeriod: 30 * time.Second,
		MaxSessions:   256,
	}
}

// ErrTooManySessions is returned by Create when the hub is full.
var ErrTooManySessions = errors.New("bridge: too many sessions")

// Hub tracks hosted sessions.
// Thread-safe for concurrent access.
type Hub struct {
	config  HubConfig
	catalog *levels.Catalog
	logger  *log.Logger
	saver   ResultSaver // Optional, can be nil

	mu       sync.RWMutex
	sessions map[SessionID]*Session

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub serving levels from catalog.
func NewHub(cfg HubConfig, catalog *levels.Catalog, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		config:   cfg,
		catalog:  catalog,
		logger:   logger,
		sessions: make(map[SessionID]*Session),
		done:     make(chan struct{}),
	}
}

// SetResultSaver sets the optional result saver for new sessions.
func (h *Hub) SetResultSaver(saver ResultSaver) {
	h.saver = saver
}

// Catalog returns the level catalog.
func (h *Hub) Catalog() *levels.Catalog {
	return h.catalog
}

// Start begins background cleanup of idle sessions.
func (h *Hub) Start() {
	if h.config.CleanupPeriod > 0 && h.config.IdleTimeout > 0 {
		go h.cleanupLoop()
	}
}

// Stop closes every session and ends background work.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[SessionID]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Create starts a session on the level with the given id. An empty id
// means the first level of the catalog.
func (h *Hub) Create(levelID, player string) (*Session, error) {
	var (
		lvl levels.Level
		err error
	)
	if levelID == "" {
		lvl, err = h.catalog.First()
	} else {
		lvl, err = h.catalog.Get(levelID)
	}
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.config.MaxSessions > 0 && len(h.sessions) >= h.config.MaxSessions {
		return nil, ErrTooManySessions
	}

	cfg := h.config.Session
	cfg.Player = player
	s, err := NewSession(lvl.World, cfg, h.logger)
	if err != nil {
		return nil, err
	}
	s.SetResultSaver(h.saver)
	h.sessions[s.ID()] = s
	s.Start()

	// Drop the entry once the session ends for any reason.
	go func() {
		select {
		case <-s.Done():
			h.forget(s.ID())
		case <-h.done:
		}
	}()

	h.logger.Info("session created", "session", string(s.ID()), "level", lvl.ID, "player", player)
	return s, nil
}

// Get returns a session by id.
func (h *Hub) Get(id SessionID) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Remove closes and forgets a session.
func (h *Hub) Remove(id SessionID) bool {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if ok {
		s.Close()
		h.logger.Info("session removed", "session", string(id))
	}
	return ok
}

func (h *Hub) forget(id SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// IDs returns the ids of every live session, sorted.
func (h *Hub) IDs() []SessionID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]SessionID, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(h.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.cleanupIdle(time.Now())
		case <-h.done:
			return
		}
	}
}

// cleanupIdle closes sessions nobody has talked to or watched for a while.
func (h *Hub) cleanupIdle(now time.Time) int {
	h.mu.Lock()
	var idle []*Session
	for id, s := range h.sessions {
		if s.Subscribers() == 0 && now.Sub(s.LastActive()) > h.config.IdleTimeout {
			idle = append(idle, s)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()

	for _, s := range idle {
		h.logger.Info("session expired", "session", string(s.ID()))
		s.Close()
	}
	return len(idle)
}
