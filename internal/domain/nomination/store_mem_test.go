package nomination

import (
	"context"
	"sort"
	"sync"
)

// memStore implements StoreAPI with the same atomicity contract as the
// Postgres store, for tests that exercise the service without a database.
type memStore struct {
	mu   sync.Mutex
	byID map[string]Nomination
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]Nomination)}
}

var _ StoreAPI = (*memStore)(nil)

func (m *memStore) GetNomination(_ context.Context, id string) (Nomination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return Nomination{}, ErrNotFound
	}
	return n, nil
}

func (m *memStore) CreateNomination(_ context.Context, n Nomination, cfg Config) (Nomination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := 0
	load := 0
	for _, existing := range m.byID {
		if !existing.Active() {
			continue
		}
		if existing.CycleID == n.CycleID && existing.RequesterID == n.RequesterID {
			active++
			if existing.ReviewerKey() == n.ReviewerKey() {
				return Nomination{}, ErrDuplicateNomination
			}
		}
		if existing.ReviewerKey() == n.ReviewerKey() &&
			(cfg.ReviewerLoadAcrossCycles || existing.CycleID == n.CycleID) {
			load++
		}
	}
	if active >= cfg.MaxActivePerRequester {
		return Nomination{}, ErrCapacityExceeded
	}
	if load >= cfg.MaxReviewerLoad {
		return Nomination{}, ErrReviewerOverloaded
	}
	m.byID[n.ID] = n
	return n, nil
}

func (m *memStore) UpdateNomination(_ context.Context, n Nomination) (Nomination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[n.ID]
	if !ok {
		return Nomination{}, ErrNotFound
	}
	if current.Version != n.Version {
		return Nomination{}, ErrConcurrentModification
	}
	n.Version++
	m.byID[n.ID] = n
	return n, nil
}

func (m *memStore) ListByRequester(_ context.Context, cycleID, requesterID string) ([]Nomination, error) {
	return m.filter(func(n Nomination) bool {
		return n.CycleID == cycleID && n.RequesterID == requesterID
	}), nil
}

func (m *memStore) ListByReviewer(_ context.Context, cycleID, reviewerKey string) ([]Nomination, error) {
	return m.filter(func(n Nomination) bool {
		return n.CycleID == cycleID && n.ReviewerKey() == reviewerKey
	}), nil
}

func (m *memStore) ListByCycle(_ context.Context, cycleID string) ([]Nomination, error) {
	return m.filter(func(n Nomination) bool { return n.CycleID == cycleID }), nil
}

func (m *memStore) ReviewerLoad(_ context.Context, cycleID, reviewerKey string, acrossCycles bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.byID {
		if !n.Active() || n.ReviewerKey() != reviewerKey {
			continue
		}
		if !acrossCycles && n.CycleID != cycleID {
			continue
		}
		count++
	}
	return count, nil
}

func (m *memStore) filter(keep func(Nomination) bool) []Nomination {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Nomination
	for _, n := range m.byID {
		if keep(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
