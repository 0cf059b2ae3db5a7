package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Store groups the repositories so a unit of work can span all of them.
type Store interface {
	Users() UserRepository
	Recipes() RecipeRepository
	Attributes(kind entity.AttributeKind) AttributeRepository
	// WithinTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
