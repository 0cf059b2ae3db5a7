package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	"github.com/oksasatya/go-recipe-api/internal/domain/repository"
)

const recipeColumns = `r.id, r.user_id, r.title, r.description, r.time_minutes, r.price::text, r.link, r.image, r.created_at, r.updated_at`

type RecipeRepository struct {
	q querier
}

func NewRecipeRepository(q querier) *RecipeRepository {
	return &RecipeRepository{q: q}
}

func (r *RecipeRepository) List(ctx context.Context, userID string, f entity.RecipeFilter) ([]entity.Recipe, error) {
	// nil id slices encode as NULL and disable the corresponding filter
	rows, err := r.q.Query(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes r
		WHERE r.user_id = $1
		  AND ($2::bigint[] IS NULL OR EXISTS (
		        SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY($2)))
		  AND ($3::bigint[] IS NULL OR EXISTS (
		        SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND ri.ingredient_id = ANY($3)))
		ORDER BY r.id DESC
	`, userID, nilIfEmpty(f.TagIDs), nilIfEmpty(f.IngredientIDs))
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]entity.Recipe, 0)
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	if err := r.loadAttributes(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *RecipeRepository) GetByID(ctx context.Context, userID string, id int64) (*entity.Recipe, error) {
	row := r.q.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1 AND r.user_id = $2`, id, userID)
	rec, err := scanRecipe(row)
	if err != nil {
		return nil, err
	}
	list := []entity.Recipe{*rec}
	if err := r.loadAttributes(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *RecipeRepository) Create(ctx context.Context, rec *entity.Recipe) error {
	row := r.q.QueryRow(ctx, `
		INSERT INTO recipes (user_id, title, description, time_minutes, price, link, image)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
		RETURNING id, created_at, updated_at
	`, rec.UserID, rec.Title, rec.Description, rec.TimeMinutes, rec.Price.StringFixed(2), rec.Link, rec.Image)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

func (r *RecipeRepository) Update(ctx context.Context, rec *entity.Recipe) error {
	rec.UpdatedAt = time.Now()
	res, err := r.q.Exec(ctx, `
		UPDATE recipes
		SET title = $1, description = $2, time_minutes = $3, price = $4::numeric, link = $5, image = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9
	`, rec.Title, rec.Description, rec.TimeMinutes, rec.Price.StringFixed(2), rec.Link, rec.Image, rec.UpdatedAt, rec.ID, rec.UserID)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RecipeRepository) SetImage(ctx context.Context, userID string, id int64, image string) error {
	res, err := r.q.Exec(ctx, `
		UPDATE recipes SET image = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3
	`, image, id, userID)
	if err != nil {
		return fmt.Errorf("set recipe image: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RecipeRepository) Delete(ctx context.Context, userID string, id int64) error {
	res, err := r.q.Exec(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RecipeRepository) SetAttributes(ctx context.Context, recipeID int64, kind entity.AttributeKind, ids []int64) error {
	t := tableFor(kind)
	if _, err := r.q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, t.join), recipeID); err != nil {
		return fmt.Errorf("clear %s: %w", t.join, err)
	}
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (recipe_id, %s)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, t.join, t.column)
	if _, err := r.q.Exec(ctx, query, recipeID, ids); err != nil {
		return fmt.Errorf("set %s: %w", t.join, err)
	}
	return nil
}

// loadAttributes fills Tags and Ingredients of every recipe in place.
func (r *RecipeRepository) loadAttributes(ctx context.Context, recipes []entity.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		index[recipes[i].ID] = i
		recipes[i].Tags = []entity.Attribute{}
		recipes[i].Ingredients = []entity.Attribute{}
	}

	for _, t := range []attributeTable{tagTable, ingredientTable} {
		rows, err := r.q.Query(ctx, fmt.Sprintf(`
			SELECT j.recipe_id, a.id, a.user_id, a.name
			FROM %s j
			JOIN %s a ON a.id = j.%s
			WHERE j.recipe_id = ANY($1)
			ORDER BY a.id
		`, t.join, t.name, t.column), ids)
		if err != nil {
			return fmt.Errorf("load %s: %w", t.name, err)
		}
		for rows.Next() {
			var recipeID int64
			a := entity.Attribute{Kind: t.kind}
			if err := rows.Scan(&recipeID, &a.ID, &a.UserID, &a.Name); err != nil {
				rows.Close()
				return fmt.Errorf("scan %s: %w", t.name, err)
			}
			rec := &recipes[index[recipeID]]
			if t.kind == entity.KindTag {
				rec.Tags = append(rec.Tags, a)
			} else {
				rec.Ingredients = append(rec.Ingredients, a)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("load %s: %w", t.name, err)
		}
	}
	return nil
}

func scanRecipe(row pgx.Row) (*entity.Recipe, error) {
	rec := &entity.Recipe{}
	var price string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &rec.TimeMinutes, &price,
		&rec.Link, &rec.Image, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan recipe: %w", err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	rec.Price = d
	return rec, nil
}

func nilIfEmpty(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

var _ repository.RecipeRepository = (*RecipeRepository)(nil)
