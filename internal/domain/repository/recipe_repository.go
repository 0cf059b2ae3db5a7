package repository

import (
	"context"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
)

// RecipeRepository reads and writes recipes. Every lookup is scoped by the
// owning user; a recipe owned by someone else is reported as ErrNotFound.
type RecipeRepository interface {
	// List returns the user's recipes, newest first, with tags and ingredients
	// loaded. Each recipe appears once even when several filter ids match.
	List(ctx context.Context, userID string, f entity.RecipeFilter) ([]entity.Recipe, error)
	GetByID(ctx context.Context, userID string, id int64) (*entity.Recipe, error)
	// Create inserts the scalar fields of r. Associations are written with
	// SetAttributes.
	Create(ctx context.Context, r *entity.Recipe) error
	// Update writes the scalar fields of r. The owner column is never updated.
	Update(ctx context.Context, r *entity.Recipe) error
	// SetImage points the recipe at a stored image and leaves every other
	// column as it is.
	SetImage(ctx context.Context, userID string, id int64, image string) error
	Delete(ctx context.Context, userID string, id int64) error
	// SetAttributes replaces the recipe's associations of the given kind.
	SetAttributes(ctx context.Context, recipeID int64, kind entity.AttributeKind, ids []int64) error
}
