package recurring

import (
	"context"
	"errors"
	"sync"

	"github.com/Veraticus/findash/internal/model"
)

var errWriteFailed = errors.New("write failed")

// mockStore records writes in memory. IDs in failIDs fail to write.
type mockStore struct {
	records map[string]model.CashflowRecord
	failIDs map[string]bool
	saved   []*model.Settings
	order   []string
	saveErr error
	mu      sync.Mutex
}

func newMockStore() *mockStore {
	return &mockStore{
		records: make(map[string]model.CashflowRecord),
		failIDs: make(map[string]bool),
	}
}

func (m *mockStore) CreateCashflowRecord(_ context.Context, record *model.CashflowRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failIDs[record.ID] {
		return false, errWriteFailed
	}
	if _, ok := m.records[record.ID]; ok {
		return false, nil
	}
	m.records[record.ID] = *record
	m.order = append(m.order, record.ID)
	return true, nil
}

func (m *mockStore) SaveSettings(_ context.Context, settings *model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, settings.Clone())
	return nil
}

func (m *mockStore) list() []model.CashflowRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.CashflowRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out
}
