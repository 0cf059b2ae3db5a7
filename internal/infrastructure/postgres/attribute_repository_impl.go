package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	"github.com/oksasatya/go-recipe-api/internal/domain/repository"
)

// attributeTable names the storage of one attribute kind: its own table, the
// join table to recipes, and the join table's foreign key column.
type attributeTable struct {
	kind   entity.AttributeKind
	name   string
	join   string
	column string
}

var (
	tagTable        = attributeTable{kind: entity.KindTag, name: "tags", join: "recipe_tags", column: "tag_id"}
	ingredientTable = attributeTable{kind: entity.KindIngredient, name: "ingredients", join: "recipe_ingredients", column: "ingredient_id"}
)

func tableFor(kind entity.AttributeKind) attributeTable {
	if kind == entity.KindIngredient {
		return ingredientTable
	}
	return tagTable
}

type AttributeRepository struct {
	q querier
	t attributeTable
}

func NewAttributeRepository(q querier, kind entity.AttributeKind) *AttributeRepository {
	return &AttributeRepository{q: q, t: tableFor(kind)}
}

func (r *AttributeRepository) List(ctx context.Context, userID string, assignedOnly bool) ([]entity.Attribute, error) {
	query := fmt.Sprintf(`SELECT a.id, a.user_id, a.name FROM %s a WHERE a.user_id = $1`, r.t.name)
	if assignedOnly {
		query += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM %s j WHERE j.%s = a.id)`, r.t.join, r.t.column)
	}
	query += ` ORDER BY a.name DESC, a.id DESC`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.t.name, err)
	}
	defer rows.Close()

	out := make([]entity.Attribute, 0)
	for rows.Next() {
		a := entity.Attribute{Kind: r.t.kind}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.t.name, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AttributeRepository) GetByID(ctx context.Context, userID string, id int64) (*entity.Attribute, error) {
	query := fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE id = $1 AND user_id = $2`, r.t.name)
	return r.getOne(ctx, query, id, userID)
}

func (r *AttributeRepository) FindByName(ctx context.Context, userID, name string) (*entity.Attribute, error) {
	query := fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE user_id = $1 AND name = $2 ORDER BY id LIMIT 1`, r.t.name)
	return r.getOne(ctx, query, userID, name)
}

func (r *AttributeRepository) getOne(ctx context.Context, query string, args ...any) (*entity.Attribute, error) {
	a := &entity.Attribute{Kind: r.t.kind}
	if err := r.q.QueryRow(ctx, query, args...).Scan(&a.ID, &a.UserID, &a.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select %s: %w", r.t.name, err)
	}
	return a, nil
}

func (r *AttributeRepository) Create(ctx context.Context, a *entity.Attribute) error {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, name) VALUES ($1, $2) RETURNING id`, r.t.name)
	if err := r.q.QueryRow(ctx, query, a.UserID, a.Name).Scan(&a.ID); err != nil {
		return fmt.Errorf("insert %s: %w", r.t.name, err)
	}
	a.Kind = r.t.kind
	return nil
}

func (r *AttributeRepository) Update(ctx context.Context, a *entity.Attribute) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $1 WHERE id = $2 AND user_id = $3`, r.t.name)
	res, err := r.q.Exec(ctx, query, a.Name, a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.t.name, err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AttributeRepository) Delete(ctx context.Context, userID string, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.t.name)
	res, err := r.q.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.t.name, err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.AttributeRepository = (*AttributeRepository)(nil)
