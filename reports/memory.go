package reports

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"alternanceetmoi.fr/reports/models"
	"github.com/google/uuid"
)

var errStoreRefused = errors.New("The store refused the operation.")

// MemoryStore keeps reports in memory with the ordering rules of GormStore.
// It backs tests of the workflows and of the page handlers.
type MemoryStore struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]models.Report
	updates int

	// FailSetAttachments, FailUpdate and FailDelete force errors.
	FailSetAttachments bool
	FailUpdate         bool
	FailDelete         bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[uuid.UUID]models.Report{}}
}

func (m *MemoryStore) Insert(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.Attachments == nil {
		r.Attachments = models.Attachments{}
	}

	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	m.rows[r.ID] = clone(*r)

	return nil
}

func (m *MemoryStore) Find(_ context.Context, id uuid.UUID) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}

	r = clone(r)

	return &r, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, owner uuid.UUID) ([]models.Report, error) {
	list := m.filter(func(r models.Report) bool { return r.UserID == owner })

	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.After(list[j].Date)
		}

		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	return list, nil
}

func (m *MemoryStore) ListSince(_ context.Context, owner uuid.UUID, since time.Time) ([]models.Report, error) {
	list := m.filter(func(r models.Report) bool {
		return r.UserID == owner && !r.Date.Before(since)
	})

	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })

	return list, nil
}

func (m *MemoryStore) SetAttachments(_ context.Context, id uuid.UUID, list models.Attachments) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSetAttachments {
		return errStoreRefused
	}

	r, ok := m.rows[id]
	if !ok {
		return ErrNoRowsUpdated
	}

	if list == nil {
		list = models.Attachments{}
	}

	r.Attachments = append(models.Attachments{}, list...)
	m.rows[id] = r
	m.updates++

	return nil
}

func (m *MemoryStore) Update(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUpdate {
		return errStoreRefused
	}

	prev, ok := m.rows[r.ID]
	if !ok {
		return ErrNoRowsUpdated
	}

	next := clone(*r)
	next.UserID = prev.UserID
	next.CreatedAt = prev.CreatedAt
	m.rows[r.ID] = next
	m.updates++

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete {
		return errStoreRefused
	}

	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}

	delete(m.rows, id)

	return nil
}

// Updates counts the writes made after inserts.
func (m *MemoryStore) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.updates
}

func (m *MemoryStore) filter(keep func(models.Report) bool) []models.Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := []models.Report{}
	for _, r := range m.rows {
		if keep(r) {
			list = append(list, clone(r))
		}
	}

	return list
}

func clone(r models.Report) models.Report {
	r.Attachments = append(models.Attachments{}, r.Attachments...)
	return r
}
