package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	repo "github.com/oksasatya/go-recipe-api/internal/domain/repository"
)

const maxNameLength = 255

// resolveAttributes finds the user's attribute for every name, creating the
// missing ones. Names match exactly. Repeated names resolve to one record and
// the result keeps first-seen order.
func resolveAttributes(ctx context.Context, attrs repo.AttributeRepository, kind entity.AttributeKind, userID string, names []string) ([]entity.Attribute, error) {
	out := make([]entity.Attribute, 0, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		field := fmt.Sprintf("%s[%d].name", fieldFor(kind), i)
		if strings.TrimSpace(name) == "" {
			return nil, invalid(field, "may not be blank")
		}
		if len(name) > maxNameLength {
			return nil, invalid(field, fmt.Sprintf("must be at most %d characters long", maxNameLength))
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		a, err := attrs.FindByName(ctx, userID, name)
		if errors.Is(err, repo.ErrNotFound) {
			a = &entity.Attribute{UserID: userID, Kind: kind, Name: name}
			if err = attrs.Create(ctx, a); err == nil {
				attributesCreated.Add(1)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("resolve %s %q: %w", kind, name, err)
		}
		out = append(out, *a)
	}
	return out, nil
}

// replaceAttributes resolves names and makes them the recipe's complete set
// of attributes of that kind. An empty names slice clears the set.
func replaceAttributes(ctx context.Context, tx repo.Store, kind entity.AttributeKind, userID string, recipeID int64, names []string) ([]entity.Attribute, error) {
	resolved, err := resolveAttributes(ctx, tx.Attributes(kind), kind, userID, names)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(resolved))
	for i, a := range resolved {
		ids[i] = a.ID
	}
	if err := tx.Recipes().SetAttributes(ctx, recipeID, kind, ids); err != nil {
		return nil, err
	}
	return resolved, nil
}

func fieldFor(kind entity.AttributeKind) string {
	if kind == entity.KindIngredient {
		return "ingredients"
	}
	return "tags"
}
