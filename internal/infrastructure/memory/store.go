// Package memory implements repository.Store on process memory. It backs the
// service and handler tests and DB_DRIVER=memory for local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	"github.com/oksasatya/go-recipe-api/internal/domain/repository"
)

type state struct {
	users   map[string]entity.User
	recipes map[int64]entity.Recipe
	attrs   map[entity.AttributeKind]map[int64]entity.Attribute
	// links holds recipe id -> attribute ids per kind
	links map[entity.AttributeKind]map[int64][]int64
	seq   map[string]int64
}

func newState() *state {
	return &state{
		users:   map[string]entity.User{},
		recipes: map[int64]entity.Recipe{},
		attrs: map[entity.AttributeKind]map[int64]entity.Attribute{
			entity.KindTag:        {},
			entity.KindIngredient: {},
		},
		links: map[entity.AttributeKind]map[int64][]int64{
			entity.KindTag:        {},
			entity.KindIngredient: {},
		},
		seq: map[string]int64{},
	}
}

func (s *state) next(name string) int64 {
	s.seq[name]++
	return s.seq[name]
}

// undoLog collects the inverse of every write made through a transaction.
type undoLog struct {
	steps []func(d *state)
}

// Store keeps all data behind one mutex. A failed WithinTx reverts only the
// writes made through its own tx handle; writes made elsewhere while it ran
// are kept. Transactions are not isolated from concurrent readers.
type Store struct {
	mu   *sync.Mutex
	data *state
	// txMu serialises transactions so undo logs do not interleave
	txMu *sync.Mutex
	undo *undoLog
}

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, txMu: &sync.Mutex{}, data: newState()}
}

func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

func (s *Store) Recipes() repository.RecipeRepository { return &recipeRepo{s: s} }

func (s *Store) Attributes(kind entity.AttributeKind) repository.AttributeRepository {
	return &attributeRepo{s: s, kind: kind}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.undo != nil {
		return fn(s)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	undo := &undoLog{}
	tx := &Store{mu: s.mu, txMu: s.txMu, data: s.data, undo: undo}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		for i := len(undo.steps) - 1; i >= 0; i-- {
			undo.steps[i](s.data)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// record registers the inverse of a write. Callers hold mu.
func (s *Store) record(step func(d *state)) {
	if s.undo != nil {
		s.undo.steps = append(s.undo.steps, step)
	}
}

// recordLinks saves the current association list of one recipe so a
// rollback puts it back, or removes it when there was none.
func (s *Store) recordLinks(kind entity.AttributeKind, recipeID int64) {
	prev, had := s.data.links[kind][recipeID]
	prev = append([]int64(nil), prev...)
	s.record(func(d *state) {
		if had {
			d.links[kind][recipeID] = prev
		} else {
			delete(d.links[kind], recipeID)
		}
	})
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.data.users[u.ID] = *u
	id := u.ID
	r.s.record(func(d *state) { delete(d.users, id) })
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.data.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.s.data.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.UpdatedAt = time.Now()
	r.s.data.users[u.ID] = *u
	r.s.record(func(d *state) { d.users[prev.ID] = prev })
	return nil
}

type recipeRepo struct{ s *Store }

func (r *recipeRepo) List(_ context.Context, userID string, f entity.RecipeFilter) ([]entity.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.Recipe, 0)
	for _, rec := range r.s.data.recipes {
		if rec.UserID != userID {
			continue
		}
		if len(f.TagIDs) > 0 && !intersects(r.s.data.links[entity.KindTag][rec.ID], f.TagIDs) {
			continue
		}
		if len(f.IngredientIDs) > 0 && !intersects(r.s.data.links[entity.KindIngredient][rec.ID], f.IngredientIDs) {
			continue
		}
		out = append(out, r.withAttributes(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *recipeRepo) GetByID(_ context.Context, userID string, id int64) (*entity.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.data.recipes[id]
	if !ok || rec.UserID != userID {
		return nil, repository.ErrNotFound
	}
	full := r.withAttributes(rec)
	return &full, nil
}

func (r *recipeRepo) Create(_ context.Context, rec *entity.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	rec.ID = r.s.data.next("recipes")
	rec.CreatedAt, rec.UpdatedAt = now, now
	stored := *rec
	stored.Tags, stored.Ingredients = nil, nil
	r.s.data.recipes[rec.ID] = stored
	id := rec.ID
	r.s.record(func(d *state) { delete(d.recipes, id) })
	return nil
}

func (r *recipeRepo) Update(_ context.Context, rec *entity.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.recipes[rec.ID]
	if !ok || existing.UserID != rec.UserID {
		return repository.ErrNotFound
	}
	rec.UpdatedAt = time.Now()
	stored := *rec
	stored.UserID = existing.UserID
	stored.CreatedAt = existing.CreatedAt
	stored.Tags, stored.Ingredients = nil, nil
	r.s.data.recipes[rec.ID] = stored
	r.s.record(func(d *state) { d.recipes[existing.ID] = existing })
	return nil
}

func (r *recipeRepo) SetImage(_ context.Context, userID string, id int64, image string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.recipes[id]
	if !ok || existing.UserID != userID {
		return repository.ErrNotFound
	}
	r.s.record(func(d *state) { d.recipes[existing.ID] = existing })
	updated := existing
	updated.Image = image
	updated.UpdatedAt = time.Now()
	r.s.data.recipes[id] = updated
	return nil
}

func (r *recipeRepo) Delete(_ context.Context, userID string, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.data.recipes[id]
	if !ok || rec.UserID != userID {
		return repository.ErrNotFound
	}
	for kind := range r.s.data.links {
		r.s.recordLinks(kind, id)
		delete(r.s.data.links[kind], id)
	}
	delete(r.s.data.recipes, id)
	r.s.record(func(d *state) { d.recipes[rec.ID] = rec })
	return nil
}

func (r *recipeRepo) SetAttributes(_ context.Context, recipeID int64, kind entity.AttributeKind, ids []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.recordLinks(kind, recipeID)
	if len(ids) == 0 {
		delete(r.s.data.links[kind], recipeID)
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	set := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			set = append(set, id)
		}
	}
	r.s.data.links[kind][recipeID] = set
	return nil
}

// withAttributes must be called with the mutex held.
func (r *recipeRepo) withAttributes(rec entity.Recipe) entity.Recipe {
	rec.Tags = r.resolve(entity.KindTag, rec.ID)
	rec.Ingredients = r.resolve(entity.KindIngredient, rec.ID)
	return rec
}

func (r *recipeRepo) resolve(kind entity.AttributeKind, recipeID int64) []entity.Attribute {
	out := []entity.Attribute{}
	for _, id := range r.s.data.links[kind][recipeID] {
		if a, ok := r.s.data.attrs[kind][id]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type attributeRepo struct {
	s    *Store
	kind entity.AttributeKind
}

func (r *attributeRepo) List(_ context.Context, userID string, assignedOnly bool) ([]entity.Attribute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var assigned map[int64]bool
	if assignedOnly {
		assigned = map[int64]bool{}
		for _, ids := range r.s.data.links[r.kind] {
			for _, id := range ids {
				assigned[id] = true
			}
		}
	}
	out := make([]entity.Attribute, 0)
	for _, a := range r.s.data.attrs[r.kind] {
		if a.UserID != userID {
			continue
		}
		if assignedOnly && !assigned[a.ID] {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].Name, out[j].Name); c != 0 {
			return c > 0
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *attributeRepo) GetByID(_ context.Context, userID string, id int64) (*entity.Attribute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.attrs[r.kind][id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *attributeRepo) FindByName(_ context.Context, userID, name string) (*entity.Attribute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *entity.Attribute
	for _, a := range r.s.data.attrs[r.kind] {
		if a.UserID != userID || a.Name != name {
			continue
		}
		if found == nil || a.ID < found.ID {
			match := a
			found = &match
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *attributeRepo) Create(_ context.Context, a *entity.Attribute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.data.next(string(r.kind))
	a.Kind = r.kind
	r.s.data.attrs[r.kind][a.ID] = *a
	kind, id := r.kind, a.ID
	r.s.record(func(d *state) { delete(d.attrs[kind], id) })
	return nil
}

func (r *attributeRepo) Update(_ context.Context, a *entity.Attribute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.attrs[r.kind][a.ID]
	if !ok || existing.UserID != a.UserID {
		return repository.ErrNotFound
	}
	kind, prev := r.kind, existing
	r.s.record(func(d *state) { d.attrs[kind][prev.ID] = prev })
	existing.Name = a.Name
	r.s.data.attrs[r.kind][a.ID] = existing
	return nil
}

func (r *attributeRepo) Delete(_ context.Context, userID string, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.attrs[r.kind][id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	kind := r.kind
	for recipeID, ids := range r.s.data.links[kind] {
		kept := make([]int64, 0, len(ids))
		for _, linked := range ids {
			if linked != id {
				kept = append(kept, linked)
			}
		}
		if len(kept) == len(ids) {
			continue
		}
		r.s.recordLinks(kind, recipeID)
		r.s.data.links[kind][recipeID] = kept
	}
	delete(r.s.data.attrs[kind], id)
	r.s.record(func(d *state) { d.attrs[kind][a.ID] = a })
	return nil
}

func intersects(have, want []int64) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

var _ repository.Store = (*Store)(nil)
