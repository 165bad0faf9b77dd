package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/note"
)

type noteRepository struct {
	db *noteTable
}

var _ note.Repository = (*noteRepository)(nil)

func NewNoteRepository(db *DB) note.Repository {
	return &noteRepository{db: db.note}
}

func copyNote(n note.Note) note.Note {
	n.Teacher = ref(n.Teacher)
	n.Tags = copyStrings(n.Tags)
	return n
}

func (repo *noteRepository) CreateNote(ctx context.Context, n note.Note) (note.Note, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = newID()
	n = copyNote(n)
	repo.db.table[n.ID] = &n
	return copyNote(n), nil
}

func (repo *noteRepository) GetNote(ctx context.Context, id string) (note.Note, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return copyNote(*n), nil
	}
	return note.Note{}, note.ErrNotFound
}

func (repo *noteRepository) QueryNotes(ctx context.Context, filter note.QueryFilter, page core.Page) ([]note.Note, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notes := make([]note.Note, 0)
	for _, n := range repo.db.table {
		if filter.Match(*n) {
			notes = append(notes, copyNote(*n))
		}
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })

	start, end := page.Bounds(len(notes))
	return notes[start:end], len(notes), nil
}

func (repo *noteRepository) IncrementDownloads(ctx context.Context, id string) (note.Note, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok {
		return note.Note{}, note.ErrNotFound
	}
	n.Downloads++
	return copyNote(*n), nil
}

func (repo *noteRepository) UpdateNote(ctx context.Context, n note.Note) (note.Note, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[n.ID]
	if !ok {
		return note.Note{}, note.ErrNotFound
	}
	updated := copyNote(n)
	updated.Teacher = orig.Teacher
	updated.Downloads = orig.Downloads
	updated.CreatedAt = orig.CreatedAt
	repo.db.table[n.ID] = &updated
	return copyNote(updated), nil
}

func (repo *noteRepository) DeleteNote(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return note.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
