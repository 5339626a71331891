package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

// Client tracks one connected identity.
type Client struct {
	// ID is the verified account identity.
	ID string
	// DisplayName is shown to opponents.
	DisplayName string
	// ConnectedAt is when the connection was registered.
	ConnectedAt time.Time
	// Entity is the outbox for pushing messages to the client.
	Entity *BridgeEntity
}

// Manager tracks connected clients and per-identity movement locks.
// All methods are safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	clients    map[string]*Client // id → client
	locked     map[string]bool    // id → movement locked
	outboxSize int
	logger     *zap.Logger
}

// NewManager creates an empty Manager whose clients buffer up to outboxSize messages.
//
// Precondition: logger must be non-nil.
func NewManager(outboxSize int, logger *zap.Logger) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		locked:     make(map[string]bool),
		outboxSize: outboxSize,
		logger:     logger,
	}
}

// AddClient registers a connection for id.
//
// Precondition: id must be non-empty.
// Postcondition: Returns the created Client, or an error if id is already connected.
func (m *Manager) AddClient(id, displayName string) (*Client, error) {
	if id == "" {
		return nil, errors.New("client id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[id]; exists {
		return nil, fmt.Errorf("client %q already connected", id)
	}
	if displayName == "" {
		displayName = id
	}
	c := &Client{
		ID:          id,
		DisplayName: displayName,
		ConnectedAt: time.Now(),
		Entity:      NewBridgeEntity(id, m.outboxSize),
	}
	m.clients[id] = c
	return c, nil
}

// RemoveClient unregisters id and closes its outbox. A movement lock held by id
// is kept until the battle that set it releases it.
//
// Postcondition: id is no longer online. Returns an error if it was not connected.
func (m *Manager) RemoveClient(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, exists := m.clients[id]
	if !exists {
		return fmt.Errorf("client %q not found", id)
	}
	_ = c.Entity.Close()
	delete(m.clients, id)
	return nil
}

// GetClient returns the client for id.
//
// Postcondition: Returns (client, true) if connected, or (nil, false) otherwise.
func (m *Manager) GetClient(id string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	return c, ok
}

// IsOnline reports whether id has a registered connection.
func (m *Manager) IsOnline(id string) bool {
	_, ok := m.GetClient(id)
	return ok
}

// DisplayName returns id's display name, or id itself when it is not connected.
func (m *Manager) DisplayName(id string) string {
	if c, ok := m.GetClient(id); ok {
		return c.DisplayName
	}
	return id
}

// Send encodes msg as JSON and pushes it to id's outbox. Messages for identities
// that are not connected, or whose outbox is full, are dropped and logged.
func (m *Manager) Send(id string, msg battle.Message) {
	c, ok := m.GetClient(id)
	if !ok {
		m.logger.Debug("dropping message for offline client",
			zap.String("client_id", id),
			zap.String("type", msg.Type),
		)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("encoding outbound message",
			zap.String("client_id", id),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		return
	}
	if err := c.Entity.Push(data); err != nil {
		m.logger.Warn("dropping outbound message",
			zap.String("client_id", id),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
	}
}

// SetMovementLocked locks or unlocks world movement for id.
func (m *Manager) SetMovementLocked(id string, locked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if locked {
		m.locked[id] = true
	} else {
		delete(m.locked, id)
	}
}

// MovementLocked reports whether id's world movement is locked.
func (m *Manager) MovementLocked(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locked[id]
}

// ClientIDs returns the ids of all connected clients in sorted order.
func (m *Manager) ClientIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClientCount returns the total number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
