// Package repositorytest holds behaviour checks shared by every
// repository.Store implementation.
package repositorytest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	"github.com/oksasatya/go-recipe-api/internal/domain/repository"
)

// Run exercises a Store built by newStore. newStore is called once per
// subtest and must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("recipes", func(t *testing.T) { testRecipes(t, newStore(t)) })
	t.Run("recipe filters", func(t *testing.T) { testRecipeFilters(t, newStore(t)) })
	t.Run("attributes", func(t *testing.T) { testAttributes(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

func newUser(t *testing.T, s repository.Store) *entity.User {
	t.Helper()
	u := &entity.User{Email: uuid.NewString() + "@example.com", Password: "hash", IsActive: true}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func newRecipe(t *testing.T, s repository.Store, userID, title string) *entity.Recipe {
	t.Helper()
	r := &entity.Recipe{UserID: userID, Title: title, TimeMinutes: 5, Price: decimal.RequireFromString("4.50")}
	require.NoError(t, s.Recipes().Create(context.Background(), r))
	return r
}

func newAttr(t *testing.T, s repository.Store, kind entity.AttributeKind, userID, name string) *entity.Attribute {
	t.Helper()
	a := &entity.Attribute{UserID: userID, Name: name}
	require.NoError(t, s.Attributes(kind).Create(context.Background(), a))
	return a
}

func ids(recipes []entity.Recipe) []int64 {
	out := make([]int64, len(recipes))
	for i, r := range recipes {
		out[i] = r.ID
	}
	return out
}

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := newUser(t, s)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	dup := &entity.User{Email: u.Email, Password: "x"}
	assert.ErrorIs(t, s.Users().Create(ctx, dup), repository.ErrDuplicate)

	got, err := s.Users().GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Users().GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got.Name = "Renamed"
	got.IsStaff = true
	require.NoError(t, s.Users().Update(ctx, got))
	again, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Name)
	assert.True(t, again.IsStaff)
}

func testRecipes(t *testing.T, s repository.Store) {
	ctx := context.Background()
	owner, other := newUser(t, s), newUser(t, s)

	first := newRecipe(t, s, owner.ID, "First")
	second := newRecipe(t, s, owner.ID, "Second")
	newRecipe(t, s, other.ID, "Theirs")

	list, err := s.Recipes().List(ctx, owner.ID, entity.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID}, ids(list))
	assert.NotNil(t, list[0].Tags)
	assert.True(t, list[0].Price.Equal(decimal.RequireFromString("4.5")))

	_, err = s.Recipes().GetByID(ctx, other.ID, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stolen := *first
	stolen.UserID = other.ID
	stolen.Title = "Stolen"
	assert.ErrorIs(t, s.Recipes().Update(ctx, &stolen), repository.ErrNotFound)

	first.Title = "First, edited"
	first.Image = "/media/uploads/recipe/x.png"
	require.NoError(t, s.Recipes().Update(ctx, first))
	got, err := s.Recipes().GetByID(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "First, edited", got.Title)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Equal(t, "/media/uploads/recipe/x.png", got.Image)

	// SetImage touches the image column only
	got.Title = "Edited elsewhere"
	require.NoError(t, s.Recipes().Update(ctx, got))
	assert.ErrorIs(t, s.Recipes().SetImage(ctx, other.ID, first.ID, "/media/y.png"), repository.ErrNotFound)
	require.NoError(t, s.Recipes().SetImage(ctx, owner.ID, first.ID, "/media/uploads/recipe/y.png"))
	got, err = s.Recipes().GetByID(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited elsewhere", got.Title)
	assert.Equal(t, "/media/uploads/recipe/y.png", got.Image)

	assert.ErrorIs(t, s.Recipes().Delete(ctx, other.ID, first.ID), repository.ErrNotFound)
	require.NoError(t, s.Recipes().Delete(ctx, owner.ID, first.ID))
	_, err = s.Recipes().GetByID(ctx, owner.ID, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testRecipeFilters(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := newUser(t, s)
	vegan := newAttr(t, s, entity.KindTag, u.ID, "Vegan")
	quick := newAttr(t, s, entity.KindTag, u.ID, "Quick")
	leek := newAttr(t, s, entity.KindIngredient, u.ID, "Leek")

	a := newRecipe(t, s, u.ID, "A")
	b := newRecipe(t, s, u.ID, "B")
	c := newRecipe(t, s, u.ID, "C")
	require.NoError(t, s.Recipes().SetAttributes(ctx, a.ID, entity.KindTag, []int64{vegan.ID, quick.ID, vegan.ID}))
	require.NoError(t, s.Recipes().SetAttributes(ctx, b.ID, entity.KindTag, []int64{quick.ID}))
	require.NoError(t, s.Recipes().SetAttributes(ctx, b.ID, entity.KindIngredient, []int64{leek.ID}))

	got, err := s.Recipes().GetByID(ctx, u.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 2, "duplicate ids collapse")
	assert.Equal(t, vegan.ID, got.Tags[0].ID)

	list, err := s.Recipes().List(ctx, u.ID, entity.RecipeFilter{TagIDs: []int64{vegan.ID, quick.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID}, ids(list), "any-match, each recipe once")

	list, err = s.Recipes().List(ctx, u.ID, entity.RecipeFilter{TagIDs: []int64{quick.ID}, IngredientIDs: []int64{leek.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(list))

	require.NoError(t, s.Recipes().SetAttributes(ctx, a.ID, entity.KindTag, nil))
	got, err = s.Recipes().GetByID(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	list, err = s.Recipes().List(ctx, u.ID, entity.RecipeFilter{TagIDs: []int64{vegan.ID}})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.Recipes().List(ctx, u.ID, entity.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, ids(list))
}

func testAttributes(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u, other := newUser(t, s), newUser(t, s)
	tags := s.Attributes(entity.KindTag)

	apple := newAttr(t, s, entity.KindTag, u.ID, "Apple")
	zest := newAttr(t, s, entity.KindTag, u.ID, "Zest")
	dup := newAttr(t, s, entity.KindTag, u.ID, "Apple")
	newAttr(t, s, entity.KindTag, other.ID, "Mine")
	newAttr(t, s, entity.KindIngredient, u.ID, "Salt")

	list, err := tags.List(ctx, u.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{zest.ID, dup.ID, apple.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})

	found, err := tags.FindByName(ctx, u.ID, "Apple")
	require.NoError(t, err)
	assert.Equal(t, apple.ID, found.ID, "oldest wins")
	_, err = tags.FindByName(ctx, u.ID, "apple")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = tags.FindByName(ctx, other.ID, "Apple")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	r := newRecipe(t, s, u.ID, "Pie")
	require.NoError(t, s.Recipes().SetAttributes(ctx, r.ID, entity.KindTag, []int64{zest.ID}))
	assigned, err := tags.List(ctx, u.ID, true)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, zest.ID, assigned[0].ID)

	_, err = tags.GetByID(ctx, other.ID, zest.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	zest.Name = "Lemon zest"
	require.NoError(t, tags.Update(ctx, zest))
	got, err := s.Recipes().GetByID(ctx, u.ID, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "Lemon zest", got.Tags[0].Name)

	assert.ErrorIs(t, tags.Delete(ctx, other.ID, zest.ID), repository.ErrNotFound)
	require.NoError(t, tags.Delete(ctx, u.ID, zest.ID))
	got, err = s.Recipes().GetByID(ctx, u.ID, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func testTransactions(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := newUser(t, s)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Store) error {
		r := &entity.Recipe{UserID: u.ID, Title: "Doomed", Price: decimal.Zero}
		if err := tx.Recipes().Create(ctx, r); err != nil {
			return err
		}
		if err := tx.Attributes(entity.KindTag).Create(ctx, &entity.Attribute{UserID: u.ID, Name: "Doomed"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := s.Recipes().List(ctx, u.ID, entity.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	attrs, err := s.Attributes(entity.KindTag).List(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Empty(t, attrs)

	// a failed unit of work puts back rows and links it changed or removed
	kept := newRecipe(t, s, u.ID, "Kept title")
	lime := newAttr(t, s, entity.KindTag, u.ID, "Lime")
	require.NoError(t, s.Recipes().SetAttributes(ctx, kept.ID, entity.KindTag, []int64{lime.ID}))
	err = s.WithinTx(ctx, func(tx repository.Store) error {
		edited := *kept
		edited.Title = "Changed"
		if err := tx.Recipes().Update(ctx, &edited); err != nil {
			return err
		}
		if err := tx.Attributes(entity.KindTag).Delete(ctx, u.ID, lime.ID); err != nil {
			return err
		}
		if err := tx.Recipes().Delete(ctx, u.ID, kept.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	restored, err := s.Recipes().GetByID(ctx, u.ID, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kept title", restored.Title)
	require.Len(t, restored.Tags, 1)
	assert.Equal(t, "Lime", restored.Tags[0].Name)
	require.NoError(t, s.Recipes().Delete(ctx, u.ID, kept.ID))

	var created int64
	err = s.WithinTx(ctx, func(tx repository.Store) error {
		r := &entity.Recipe{UserID: u.ID, Title: "Kept", Price: decimal.Zero}
		if err := tx.Recipes().Create(ctx, r); err != nil {
			return err
		}
		created = r.ID
		// nested units of work join the outer one
		return tx.WithinTx(ctx, func(inner repository.Store) error {
			return inner.Recipes().SetAttributes(ctx, r.ID, entity.KindTag, nil)
		})
	})
	require.NoError(t, err)
	_, err = s.Recipes().GetByID(ctx, u.ID, created)
	assert.NoError(t, err)
}
