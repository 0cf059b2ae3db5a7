package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is owned by exactly one user. UserID is set on creation and never
// rewritten by updates.
type Recipe struct {
	ID          int64
	UserID      string
	Title       string
	Description string
	TimeMinutes int
	Price       decimal.Decimal
	Link        string
	Image       string
	Tags        []Attribute
	Ingredients []Attribute
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *Recipe) String() string { return r.Title }

// RecipeFilter narrows a recipe listing. A recipe matches an id list when it
// carries any of the ids; the tag and ingredient lists are combined with AND.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}
