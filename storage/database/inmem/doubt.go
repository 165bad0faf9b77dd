package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/doubt"
)

type doubtRepository struct {
	db *doubtTable
}

var _ doubt.Repository = (*doubtRepository)(nil)

func NewDoubtRepository(db *DB) doubt.Repository {
	return &doubtRepository{db: db.doubt}
}

func copyDoubt(d doubt.Doubt) doubt.Doubt {
	d.Student = ref(d.Student)
	if d.ResolvedBy != nil {
		resolver := ref(*d.ResolvedBy)
		d.ResolvedBy = &resolver
	}
	if d.ResolvedAt != nil {
		resolvedAt := *d.ResolvedAt
		d.ResolvedAt = &resolvedAt
	}
	d.Tags = copyStrings(d.Tags)
	d.Attachments = copyFiles(d.Attachments)
	responses := make([]doubt.Response, len(d.Responses))
	for i, resp := range d.Responses {
		resp.Author = ref(resp.Author)
		resp.Attachments = copyFiles(resp.Attachments)
		responses[i] = resp
	}
	d.Responses = responses
	return d
}

func (repo *doubtRepository) CreateDoubt(ctx context.Context, d doubt.Doubt) (doubt.Doubt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	d.ID = newID()
	d = copyDoubt(d)
	repo.db.table[d.ID] = &d
	return copyDoubt(d), nil
}

func (repo *doubtRepository) GetDoubt(ctx context.Context, id string) (doubt.Doubt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if d, ok := repo.db.table[id]; ok {
		return copyDoubt(*d), nil
	}
	return doubt.Doubt{}, doubt.ErrNotFound
}

func (repo *doubtRepository) QueryDoubts(ctx context.Context, filter doubt.QueryFilter, page core.Page) ([]doubt.Doubt, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	doubts := make([]doubt.Doubt, 0)
	for _, d := range repo.db.table {
		if filter.Match(*d) {
			doubts = append(doubts, copyDoubt(*d))
		}
	}
	sort.SliceStable(doubts, func(i, j int) bool { return doubts[i].CreatedAt.After(doubts[j].CreatedAt) })

	start, end := page.Bounds(len(doubts))
	return doubts[start:end], len(doubts), nil
}

func (repo *doubtRepository) AddResponse(ctx context.Context, id string, resp doubt.Response) (doubt.Doubt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[id]
	if !ok {
		return doubt.Doubt{}, doubt.ErrNotFound
	}
	resp.ID = newID()
	resp.Author = ref(resp.Author)
	resp.Attachments = copyFiles(resp.Attachments)
	orig.Responses = append(orig.Responses, resp)
	orig.Status = doubt.StatusAfterResponse(orig.Status, resp)
	orig.UpdatedAt = resp.CreatedAt
	return copyDoubt(*orig), nil
}

func (repo *doubtRepository) ResolveDoubt(ctx context.Context, d doubt.Doubt) (doubt.Doubt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[d.ID]
	if !ok {
		return doubt.Doubt{}, doubt.ErrNotFound
	}
	resolved := copyDoubt(d)
	orig.Status = resolved.Status
	orig.ResolvedBy = resolved.ResolvedBy
	orig.ResolvedAt = resolved.ResolvedAt
	orig.UpdatedAt = resolved.UpdatedAt
	return copyDoubt(*orig), nil
}
