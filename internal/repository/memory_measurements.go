package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"biotrack-data/internal/domain"
)

// MemoryMeasurementsRepo in-memory measurement store.
// The mutex also serializes UpsertCalculated's read-then-write.
type MemoryMeasurementsRepo struct {
	mu     sync.RWMutex
	nextID int64
	rows   []*domain.Measurement
}

func NewMemoryMeasurementsRepo() *MemoryMeasurementsRepo {
	return &MemoryMeasurementsRepo{nextID: 1}
}

var _ MeasurementsRepository = (*MemoryMeasurementsRepo)(nil)

func (r *MemoryMeasurementsRepo) Insert(_ context.Context, m *domain.Measurement) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(m), nil
}

func (r *MemoryMeasurementsRepo) insertLocked(m *domain.Measurement) int64 {
	cp := *m
	cp.ID = r.nextID
	r.nextID++
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.rows = append(r.rows, &cp)
	m.ID = cp.ID
	return cp.ID
}

func (r *MemoryMeasurementsRepo) LatestInWindow(_ context.Context, personID, biomarkerID int64, since time.Time) (*domain.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *domain.Measurement
	for _, m := range r.rows {
		if m.PersonID != personID || m.BiomarkerID != biomarkerID {
			continue
		}
		if m.SampleTime == nil || m.SampleTime.Before(since) {
			continue
		}
		if best == nil || m.SampleTime.After(*best.SampleTime) {
			best = m
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *MemoryMeasurementsRepo) LatestByCreated(_ context.Context, personID, biomarkerID int64) (*domain.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *domain.Measurement
	for _, m := range r.rows {
		if m.PersonID != personID || m.BiomarkerID != biomarkerID {
			continue
		}
		if best == nil || m.CreatedAt.After(best.CreatedAt) {
			best = m
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *MemoryMeasurementsRepo) ListByPerson(_ context.Context, personID int64, limit int) ([]*domain.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Measurement
	for _, m := range r.rows {
		if m.PersonID == personID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryMeasurementsRepo) UpsertCalculated(_ context.Context, m *domain.Measurement, since time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.PersonID != m.PersonID || row.BiomarkerID != m.BiomarkerID {
			continue
		}
		if row.SourceType != domain.SourceCalculated {
			continue
		}
		if row.SampleTime == nil || row.SampleTime.Before(since) {
			continue
		}
		row.ValueStd = m.ValueStd
		row.SampleTime = m.SampleTime
		return nil
	}
	r.insertLocked(m)
	return nil
}

// MemoryPersonsRepo in-memory person profiles.
type MemoryPersonsRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.Person
}

func NewMemoryPersonsRepo() *MemoryPersonsRepo {
	return &MemoryPersonsRepo{nextID: 1, byID: map[int64]*domain.Person{}}
}

var _ PersonsRepository = (*MemoryPersonsRepo)(nil)

func (r *MemoryPersonsRepo) GetPerson(_ context.Context, id int64) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryPersonsRepo) CreatePerson(_ context.Context, p *domain.Person) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.ID = r.nextID
	r.nextID++
	r.byID[cp.ID] = &cp
	p.ID = cp.ID
	return cp.ID, nil
}
