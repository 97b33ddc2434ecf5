package repository

import (
	"context"
	"sort"
	"sync"

	"biotrack-data/internal/domain"
)

// MemoryReferenceRangesRepo in-memory reference ranges.
type MemoryReferenceRangesRepo struct {
	mu     sync.RWMutex
	nextID int64
	ranges []*domain.ReferenceRange
}

func NewMemoryReferenceRangesRepo() *MemoryReferenceRangesRepo {
	return &MemoryReferenceRangesRepo{nextID: 1}
}

var _ ReferenceRangesRepository = (*MemoryReferenceRangesRepo)(nil)

func (r *MemoryReferenceRangesRepo) ListRanges(_ context.Context, biomarkerID int64) ([]*domain.ReferenceRange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.ReferenceRange
	for _, rr := range r.ranges {
		if rr.BiomarkerID == biomarkerID {
			cp := *rr
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryReferenceRangesRepo) CreateRange(_ context.Context, rr *domain.ReferenceRange) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rr
	cp.ID = r.nextID
	r.nextID++
	r.ranges = append(r.ranges, &cp)
	rr.ID = cp.ID
	return cp.ID, nil
}

// MemoryUnitConversionsRepo in-memory conversion edges keyed by (from, to).
type MemoryUnitConversionsRepo struct {
	mu     sync.RWMutex
	nextID int64
	edges  map[[2]string]*domain.UnitConversion
}

func NewMemoryUnitConversionsRepo() *MemoryUnitConversionsRepo {
	return &MemoryUnitConversionsRepo{nextID: 1, edges: map[[2]string]*domain.UnitConversion{}}
}

var _ UnitConversionsRepository = (*MemoryUnitConversionsRepo)(nil)

func (r *MemoryUnitConversionsRepo) FindConversion(_ context.Context, fromUnit, toUnit string) (*domain.UnitConversion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if uc, ok := r.edges[[2]string{fromUnit, toUnit}]; ok {
		cp := *uc
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryUnitConversionsRepo) CreateConversion(_ context.Context, uc *domain.UnitConversion) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *uc
	cp.ID = r.nextID
	r.nextID++
	r.edges[[2]string{cp.FromUnit, cp.ToUnit}] = &cp
	uc.ID = cp.ID
	return cp.ID, nil
}
