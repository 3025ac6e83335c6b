package ledger

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when an identifier does not name a stored entity.
var ErrNotFound = errors.New("ledger: entity not found")

// Store is the ledger the engine reads from and writes back to.
// Objects returned by List*/lookups are live: mutating them mutates the store.
// Update* replaces the stored entity with the same ID and fails with ErrNotFound
// when the ID is unknown.
type Store interface {
	ListCompanies() []*Company
	ListSuppliers() []*Supplier
	ListProducts() []*Product

	Company(id string) (*Company, error)
	Supplier(id string) (*Supplier, error)
	Product(id string) (*Product, error)

	AddCompany(c *Company) error
	AddSupplier(s *Supplier) error
	AddProduct(p *Product) error

	UpdateCompany(c *Company) error
	UpdateSupplier(s *Supplier) error
	UpdateProduct(p *Product) error

	Clear()
}

// MemoryStore is an in-process Store. List order is insertion order, which keeps
// simulation runs reproducible.
type MemoryStore struct {
	mu sync.RWMutex

	companies []*Company
	suppliers []*Supplier
	products  []*Product

	companyIdx  map[string]int
	supplierIdx map[string]int
	productIdx  map[string]int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companyIdx:  make(map[string]int),
		supplierIdx: make(map[string]int),
		productIdx:  make(map[string]int),
	}
}

func (m *MemoryStore) ListCompanies() []*Company {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Company(nil), m.companies...)
}

func (m *MemoryStore) ListSuppliers() []*Supplier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Supplier(nil), m.suppliers...)
}

func (m *MemoryStore) ListProducts() []*Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Product(nil), m.products...)
}

func (m *MemoryStore) Company(id string) (*Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.companyIdx[id]
	if !ok {
		return nil, fmt.Errorf("company %q: %w", id, ErrNotFound)
	}
	return m.companies[i], nil
}

func (m *MemoryStore) Supplier(id string) (*Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.supplierIdx[id]
	if !ok {
		return nil, fmt.Errorf("supplier %q: %w", id, ErrNotFound)
	}
	return m.suppliers[i], nil
}

func (m *MemoryStore) Product(id string) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.productIdx[id]
	if !ok {
		return nil, fmt.Errorf("product %q: %w", id, ErrNotFound)
	}
	return m.products[i], nil
}

func (m *MemoryStore) AddCompany(c *Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.companyIdx[c.ID]; dup {
		return fmt.Errorf("company %q already exists", c.ID)
	}
	m.companyIdx[c.ID] = len(m.companies)
	m.companies = append(m.companies, c)
	return nil
}

func (m *MemoryStore) AddSupplier(s *Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.supplierIdx[s.ID]; dup {
		return fmt.Errorf("supplier %q already exists", s.ID)
	}
	if s.Stock == nil {
		s.Stock = make(map[string]int)
	}
	m.supplierIdx[s.ID] = len(m.suppliers)
	m.suppliers = append(m.suppliers, s)
	return nil
}

func (m *MemoryStore) AddProduct(p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.productIdx[p.ID]; dup {
		return fmt.Errorf("product %q already exists", p.ID)
	}
	m.productIdx[p.ID] = len(m.products)
	m.products = append(m.products, p)
	return nil
}

func (m *MemoryStore) UpdateCompany(c *Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.companyIdx[c.ID]
	if !ok {
		return fmt.Errorf("update company %q: %w", c.ID, ErrNotFound)
	}
	m.companies[i] = c
	return nil
}

func (m *MemoryStore) UpdateSupplier(s *Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.supplierIdx[s.ID]
	if !ok {
		return fmt.Errorf("update supplier %q: %w", s.ID, ErrNotFound)
	}
	m.suppliers[i] = s
	return nil
}

func (m *MemoryStore) UpdateProduct(p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.productIdx[p.ID]
	if !ok {
		return fmt.Errorf("update product %q: %w", p.ID, ErrNotFound)
	}
	m.products[i] = p
	return nil
}

// Clear drops every entity.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies, m.suppliers, m.products = nil, nil, nil
	m.companyIdx = make(map[string]int)
	m.supplierIdx = make(map[string]int)
	m.productIdx = make(map[string]int)
}
