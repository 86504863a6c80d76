package hass

import (
	"context"
	"sort"
	"sync"
)

// MockClient is an in-memory StateClient for tests. It records every write
// and delete so tests can assert on idempotence.
type MockClient struct {
	mu       sync.Mutex
	entities map[string]Entity

	Writes  []string
	Deletes []string

	// FailGet makes GetState fail for the listed entity IDs.
	FailGet map[string]error
	// FailDelete makes DeleteState fail for the listed entity IDs.
	FailDelete map[string]error
	// FailList makes ListStates fail.
	FailList error
}

func NewMockClient() *MockClient {
	return &MockClient{
		entities:   map[string]Entity{},
		FailGet:    map[string]error{},
		FailDelete: map[string]error{},
	}
}

// Put seeds a raw entity without recording a write.
func (m *MockClient) Put(entityID, state string, attrs Attributes) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[entityID] = Entity{EntityID: entityID, State: state, Attributes: copyAttrs(attrs)}
}

// Remove drops an entity without recording a delete.
func (m *MockClient) Remove(entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entities, entityID)
}

// Get returns a copy of the stored entity.
func (m *MockClient) Get(entityID string) (Entity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[entityID]
	return e, ok
}

// IDs returns all stored entity IDs, sorted.
func (m *MockClient) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entities))
	for id := range m.entities {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ResetLog clears the recorded writes and deletes.
func (m *MockClient) ResetLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes = nil
	m.Deletes = nil
}

func (m *MockClient) GetState(_ context.Context, entityID string) (*Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailGet[entityID]; err != nil {
		return nil, err
	}
	e, ok := m.entities[entityID]
	if !ok {
		return nil, ErrNotFound
	}
	e.Attributes = copyAttrs(e.Attributes)
	return &e, nil
}

func (m *MockClient) SetState(_ context.Context, entityID, state string, attrs Attributes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[entityID] = Entity{EntityID: entityID, State: state, Attributes: copyAttrs(attrs)}
	m.Writes = append(m.Writes, entityID)
	return nil
}

func (m *MockClient) DeleteState(_ context.Context, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailDelete[entityID]; err != nil {
		return err
	}
	delete(m.entities, entityID)
	m.Deletes = append(m.Deletes, entityID)
	return nil
}

func (m *MockClient) ListStates(_ context.Context) ([]Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailList != nil {
		return nil, m.FailList
	}
	out := make([]Entity, 0, len(m.entities))
	for _, e := range m.entities {
		e.Attributes = copyAttrs(e.Attributes)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

func copyAttrs(a Attributes) Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
