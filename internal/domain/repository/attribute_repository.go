package repository

import (
	"context"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
)

// AttributeRepository manages one kind of attribute (tags or ingredients).
type AttributeRepository interface {
	// List returns the user's attributes ordered by name descending. With
	// assignedOnly set, only attributes referenced by a recipe are returned.
	List(ctx context.Context, userID string, assignedOnly bool) ([]entity.Attribute, error)
	GetByID(ctx context.Context, userID string, id int64) (*entity.Attribute, error)
	// FindByName returns the oldest attribute of the user with exactly this name.
	FindByName(ctx context.Context, userID, name string) (*entity.Attribute, error)
	Create(ctx context.Context, a *entity.Attribute) error
	Update(ctx context.Context, a *entity.Attribute) error
	Delete(ctx context.Context, userID string, id int64) error
}
