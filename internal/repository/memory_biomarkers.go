package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"biotrack-data/internal/domain"
)

// MemoryBiomarkersRepo in-memory catalog for tests and DB-less dev runs.
type MemoryBiomarkersRepo struct {
	mu       sync.RWMutex
	nextID   int64
	nextSyn  int64
	byID     map[int64]*domain.Biomarker
	byCode   map[string]*domain.Biomarker
	synonyms []*domain.BiomarkerSynonym
}

func NewMemoryBiomarkersRepo() *MemoryBiomarkersRepo {
	return &MemoryBiomarkersRepo{
		nextID:  1,
		nextSyn: 1,
		byID:    map[int64]*domain.Biomarker{},
		byCode:  map[string]*domain.Biomarker{},
	}
}

var _ BiomarkersRepository = (*MemoryBiomarkersRepo)(nil)

func (r *MemoryBiomarkersRepo) GetByCode(_ context.Context, code string) (*domain.Biomarker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bm, ok := r.byCode[code]; ok {
		cp := *bm
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryBiomarkersRepo) GetByID(_ context.Context, id int64) (*domain.Biomarker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bm, ok := r.byID[id]; ok {
		cp := *bm
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryBiomarkersRepo) ListBiomarkers(_ context.Context) ([]*domain.Biomarker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Biomarker, 0, len(r.byID))
	for _, bm := range r.byID {
		cp := *bm
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryBiomarkersRepo) CreateBiomarker(_ context.Context, bm *domain.Biomarker) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *bm
	cp.ID = r.nextID
	r.nextID++
	r.byID[cp.ID] = &cp
	r.byCode[cp.Code] = &cp
	bm.ID = cp.ID
	return cp.ID, nil
}

func (r *MemoryBiomarkersRepo) SetUnitStd(_ context.Context, id int64, unitStd string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bm, ok := r.byID[id]; ok {
		bm.UnitStd = unitStd
	}
	return nil
}

func (r *MemoryBiomarkersRepo) FindSynonym(_ context.Context, text string) (*domain.BiomarkerSynonym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(text))
	for _, syn := range r.synonyms {
		if strings.ToLower(syn.Text) == needle {
			cp := *syn
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryBiomarkersRepo) CreateSynonym(_ context.Context, syn *domain.BiomarkerSynonym) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *syn
	cp.ID = r.nextSyn
	r.nextSyn++
	r.synonyms = append(r.synonyms, &cp)
	syn.ID = cp.ID
	return cp.ID, nil
}

func (r *MemoryBiomarkersRepo) ListSynonyms(_ context.Context, biomarkerID int64) ([]*domain.BiomarkerSynonym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.BiomarkerSynonym
	for _, syn := range r.synonyms {
		if syn.BiomarkerID == biomarkerID {
			cp := *syn
			out = append(out, &cp)
		}
	}
	return out, nil
}
