package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pyrcn/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	layers      map[string]model.LayerRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.layers = make(map[string]model.LayerRecord)
	return nil
}

func (s *MemoryStore) SaveLayer(_ context.Context, record model.LayerRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.layers[record.ID] = cloneRecord(record)
	return nil
}

func (s *MemoryStore) GetLayer(_ context.Context, id string) (model.LayerRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.layers[id]
	if !ok {
		return model.LayerRecord{}, false, nil
	}
	return cloneRecord(record), true, nil
}

func (s *MemoryStore) ListLayers(_ context.Context) ([]model.LayerSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.LayerSummary, 0, len(s.layers))
	for _, record := range s.layers {
		out = append(out, record.Summary())
	}
	sortSummaries(out)
	return out, nil
}

func (s *MemoryStore) DeleteLayer(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.layers[id]
	delete(s.layers, id)
	return ok, nil
}

func cloneRecord(r model.LayerRecord) model.LayerRecord {
	r.Feedforward = cloneMatrix(r.Feedforward)
	if r.Recurrent != nil {
		rec := cloneMatrix(*r.Recurrent)
		r.Recurrent = &rec
	}
	r.Bias = append([]float64(nil), r.Bias...)
	if r.Config.RandomSeed != nil {
		seed := *r.Config.RandomSeed
		r.Config.RandomSeed = &seed
	}
	return r
}

func cloneMatrix(m model.MatrixRecord) model.MatrixRecord {
	m.Data = append([]float64(nil), m.Data...)
	m.Indptr = append([]int(nil), m.Indptr...)
	m.Indices = append([]int(nil), m.Indices...)
	return m
}

// sortSummaries orders by creation time, then id.
func sortSummaries(s []model.LayerSummary) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].CreatedAtUTC != s[j].CreatedAtUTC {
			return s[i].CreatedAtUTC < s[j].CreatedAtUTC
		}
		return s[i].ID < s[j].ID
	})
}
