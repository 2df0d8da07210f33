package repository

import (
	"sort"
	"sync"

	"FXForge/internal/domain/models"
)

// SeriesStore holds the raw series for one pipeline run. Series are
// validated once at Put and never mutated afterwards, so every downstream
// stage observes a stable snapshot. The store is caller-owned; there is no
// process-wide instance.
type SeriesStore struct {
	mu     sync.RWMutex
	series map[string]*models.Series
}

// NewSeriesStore creates an empty store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{series: make(map[string]*models.Series)}
}

// Put validates and stores a series. It fails with DuplicateSeriesError if
// the name is already taken for this run, and with InvalidSeriesError if the
// series violates ordering or value invariants.
func (st *SeriesStore) Put(s *models.Series) error {
	if err := s.Validate(); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.series[s.Name]; ok {
		return &models.DuplicateSeriesError{Name: s.Name}
	}
	st.series[s.Name] = s
	return nil
}

// Get returns the named series or NotFoundError.
func (st *SeriesStore) Get(name string) (*models.Series, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.series[name]
	if !ok {
		return nil, &models.NotFoundError{Name: name}
	}
	return s, nil
}

// Names returns all stored series names, sorted. The pipeline iterates in
// this order so runs are deterministic.
func (st *SeriesStore) Names() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	names := make([]string, 0, len(st.series))
	for n := range st.series {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored series.
func (st *SeriesStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.series)
}
