// Package store provides in-memory repository implementations (for testing/dev).
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hipnotik/commission-engine/commission"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of the repository interfaces
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	sales     map[commission.SaleID]commission.Sale
	employees map[commission.EmployeeID]commission.Employee
	clients   map[commission.ClientID]commission.Client
	configs   map[commission.Month]commission.Config
}

func NewMemory() *Memory {
	return &Memory{
		sales:     make(map[commission.SaleID]commission.Sale),
		employees: make(map[commission.EmployeeID]commission.Employee),
		clients:   make(map[commission.ClientID]commission.Client),
		configs:   make(map[commission.Month]commission.Config),
	}
}

// -----------------------------------------------------------------------------
// Sales
// -----------------------------------------------------------------------------

// SaveSale inserts or replaces a sale, recomputing its score from the stored
// attributes. The stored score can never diverge from the stored sale.
func (m *Memory) SaveSale(_ context.Context, s commission.Sale) (commission.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = commission.SaleID(uuid.NewString())
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.UpdatedAt = time.Now().UTC()
	s.Score = commission.Score(s)
	m.sales[s.ID] = s
	return s, nil
}

func (m *Memory) GetSale(_ context.Context, id commission.SaleID) (*commission.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) ListSales(_ context.Context) ([]commission.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commission.Sale, 0, len(m.sales))
	for _, s := range m.sales {
		out = append(out, s)
	}
	return out, nil
}

func (m *Memory) SalesByMonth(_ context.Context, month commission.Month) (map[commission.EmployeeID][]commission.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[commission.EmployeeID][]commission.Sale)
	for _, s := range m.sales {
		if month.Contains(s.CreatedAt) {
			out[s.CreatedBy] = append(out[s.CreatedBy], s)
		}
	}
	return out, nil
}

func (m *Memory) SalesByEmployeeMonth(_ context.Context, id commission.EmployeeID, month commission.Month) ([]commission.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []commission.Sale
	for _, s := range m.sales {
		if s.CreatedBy == id && month.Contains(s.CreatedAt) {
			out = append(out, s)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Employees / clients
// -----------------------------------------------------------------------------

func (m *Memory) SaveEmployee(_ context.Context, e commission.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id commission.EmployeeID) (*commission.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]commission.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commission.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	return out, nil
}

func (m *Memory) SaveClient(_ context.Context, c commission.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return nil
}

func (m *Memory) GetClient(_ context.Context, id commission.ClientID) (*commission.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) ListClients(_ context.Context) ([]commission.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commission.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Configs
// -----------------------------------------------------------------------------

func (m *Memory) GetConfig(_ context.Context, month commission.Month) (*commission.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[month]
	if !ok {
		return nil, commission.ErrConfigNotFound
	}
	out := copyConfig(cfg)
	return &out, nil
}

// PutConfig validates and upserts, enforcing the optimistic version check.
func (m *Memory) PutConfig(_ context.Context, cfg commission.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.configs[cfg.Month]
	if exists && cfg.Version != 0 && cfg.Version != existing.Version {
		return &commission.ConflictError{
			Month:           cfg.Month,
			ExpectedVersion: cfg.Version,
			ActualVersion:   existing.Version,
		}
	}
	cfg.Version = existing.Version + 1
	m.configs[cfg.Month] = cfg
	return nil
}

func (m *Memory) DuplicateConfig(_ context.Context, source, target commission.Month, overwrite bool) (*commission.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.configs[source]
	if !ok {
		return nil, commission.ErrConfigNotFound
	}
	existing, exists := m.configs[target]
	if exists && !overwrite {
		return nil, commission.ErrDuplicateTargetExists
	}

	cp := src.Clone(target)
	cp.Version = existing.Version + 1
	m.configs[target] = cp
	out := copyConfig(cp)
	return &out, nil
}

// copyConfig deep-copies a stored config, preserving identities. Readers
// must never share slices with the store.
func copyConfig(cfg commission.Config) commission.Config {
	out := cfg
	out.Categories = make([]commission.Category, len(cfg.Categories))
	copy(out.Categories, cfg.Categories)
	return out
}
