package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
)

func TestRecipeService_CreateWithNewAndExistingTags(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)

	first := sampleInput("Thai curry")
	first.Tags = namesPtr("Thai", "Dinner")
	r1 := createRecipe(t, f.svc, "u1", first)
	assert.Equal(t, []string{"Thai", "Dinner"}, attrNames(r1.Tags))
	assert.Equal(t, "u1", r1.UserID)

	second := sampleInput("Pad thai")
	second.Tags = namesPtr("Thai")
	r2 := createRecipe(t, f.svc, "u1", second)
	require.Len(t, r2.Tags, 1)
	assert.Equal(t, r1.Tags[0].ID, r2.Tags[0].ID)

	tags, err := f.attrs.List(ctx, "u1", entity.KindTag, false)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
	assert.Equal(t, "Pad thai", f.index.docs[r2.ID])
}

func TestRecipeService_CreateRequiresCoreFields(t *testing.T) {
	f := newRecipeFixture(t)

	_, err := f.svc.Create(context.Background(), "u1", RecipeInput{Title: strPtr("No price"), TimeMinutes: intPtr(5)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "price", verr.Field)
}

func TestRecipeService_PriceValidation(t *testing.T) {
	tests := []struct {
		price string
		ok    bool
	}{
		{"0", true},
		{"5.5", true},
		{"999.99", true},
		{"1000", false},
		{"-0.01", false},
		{"1.234", false},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			f := newRecipeFixture(t)
			in := sampleInput("Priced")
			in.Price = pricePtr(tt.price)
			_, err := f.svc.Create(context.Background(), "u1", in)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "price", verr.Field)
		})
	}
}

func TestRecipeService_BlankTagRollsBackCreate(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)

	in := sampleInput("Broken")
	in.Tags = namesPtr("Fine", "")
	_, err := f.svc.Create(ctx, "u1", in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	recipes, err := f.svc.List(ctx, "u1", entity.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, recipes)
	tags, err := f.attrs.List(ctx, "u1", entity.KindTag, false)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestRecipeService_PartialUpdateKeepsAssociations(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)

	in := sampleInput("Stew")
	in.Tags = namesPtr("Winter")
	in.Ingredients = namesPtr("Beef", "Carrot")
	rec := createRecipe(t, f.svc, "u1", in)

	updated, err := f.svc.Update(ctx, "u1", rec.ID, RecipeInput{Title: strPtr("Beef stew")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Beef stew", updated.Title)
	assert.Equal(t, 10, updated.TimeMinutes)
	assert.Equal(t, []string{"Winter"}, attrNames(updated.Tags))
	assert.ElementsMatch(t, []string{"Beef", "Carrot"}, attrNames(updated.Ingredients))
}

func TestRecipeService_UpdateReplacesAndClearsTags(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)

	in := sampleInput("Salad")
	in.Tags = namesPtr("Lunch")
	rec := createRecipe(t, f.svc, "u1", in)

	updated, err := f.svc.Update(ctx, "u1", rec.ID, RecipeInput{Tags: namesPtr("Dinner")}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dinner"}, attrNames(updated.Tags))

	// the replaced tag survives as a record
	tags, err := f.attrs.List(ctx, "u1", entity.KindTag, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Lunch", "Dinner"}, attrNames(tags))

	cleared, err := f.svc.Update(ctx, "u1", rec.ID, RecipeInput{Tags: namesPtr()}, true)
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)
}

func TestRecipeService_FullUpdateRequiresCoreFields(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)
	rec := createRecipe(t, f.svc, "u1", sampleInput("Bread"))

	_, err := f.svc.Update(ctx, "u1", rec.ID, RecipeInput{Title: strPtr("Rye bread")}, false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	full := sampleInput("Rye bread")
	full.Link = strPtr("https://example.com/rye")
	updated, err := f.svc.Update(ctx, "u1", rec.ID, full, false)
	require.NoError(t, err)
	assert.Equal(t, "Rye bread", updated.Title)
	assert.Equal(t, "https://example.com/rye", updated.Link)
	assert.Equal(t, "u1", updated.UserID)
}

func TestRecipeService_OtherUsersRecipesAreNotFound(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)
	rec := createRecipe(t, f.svc, "owner", sampleInput("Secret"))

	_, err := f.svc.Get(ctx, "intruder", rec.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)

	_, err = f.svc.Update(ctx, "intruder", rec.ID, RecipeInput{Title: strPtr("Mine")}, true)
	assert.ErrorIs(t, err, ErrRecipeNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, "intruder", rec.ID), ErrRecipeNotFound)

	_, err = f.svc.UploadImage(ctx, "intruder", rec.ID, "a.png", bytes.NewReader(pngBytes(t)))
	assert.ErrorIs(t, err, ErrRecipeNotFound)

	list, err := f.svc.List(ctx, "intruder", entity.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	still, err := f.svc.Get(ctx, "owner", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Secret", still.Title)
}

func TestRecipeService_ListOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)

	a := sampleInput("A")
	a.Tags = namesPtr("Vegan")
	a.Ingredients = namesPtr("Tofu")
	ra := createRecipe(t, f.svc, "u1", a)

	b := sampleInput("B")
	b.Tags = namesPtr("Quick")
	b.Ingredients = namesPtr("Egg")
	rb := createRecipe(t, f.svc, "u1", b)

	rc := createRecipe(t, f.svc, "u1", sampleInput("C"))

	all, err := f.svc.List(ctx, "u1", entity.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{rc.ID, rb.ID, ra.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	byTags, err := f.svc.List(ctx, "u1", entity.RecipeFilter{TagIDs: []int64{ra.Tags[0].ID, rb.Tags[0].ID}})
	require.NoError(t, err)
	assert.Len(t, byTags, 2)

	both, err := f.svc.List(ctx, "u1", entity.RecipeFilter{
		TagIDs:        []int64{ra.Tags[0].ID, rb.Tags[0].ID},
		IngredientIDs: []int64{rb.Ingredients[0].ID},
	})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, rb.ID, both[0].ID)
}

func TestRecipeService_DeleteRemovesFromIndex(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)
	rec := createRecipe(t, f.svc, "u1", sampleInput("Gone"))

	require.NoError(t, f.svc.Delete(ctx, "u1", rec.ID))
	assert.Equal(t, []int64{rec.ID}, f.index.deleted)

	_, err := f.svc.Get(ctx, "u1", rec.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestRecipeService_IndexFailureDoesNotFailWrite(t *testing.T) {
	f := newRecipeFixture(t)
	f.index.err = errors.New("es down")

	rec, err := f.svc.Create(context.Background(), "u1", sampleInput("Still saved"))
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
}

func TestRecipeService_UploadImage(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)
	rec := createRecipe(t, f.svc, "u1", sampleInput("Pictured"))

	updated, err := f.svc.UploadImage(ctx, "u1", rec.ID, "photo.PNG", bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.Image, "/media/uploads/recipe/"))
	assert.True(t, strings.HasSuffix(updated.Image, ".png"))
	require.Len(t, f.images.saved, 1)

	reloaded, err := f.svc.Get(ctx, "u1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Image, reloaded.Image)
}

func TestRecipeService_UploadImageKeepsConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)
	rec := createRecipe(t, f.svc, "u1", sampleInput("Pictured"))

	f.images.onSave = func() {
		_, err := f.svc.Update(ctx, "u1", rec.ID, RecipeInput{Title: strPtr("Renamed mid-upload")}, true)
		require.NoError(t, err)
	}
	updated, err := f.svc.UploadImage(ctx, "u1", rec.ID, "photo.png", bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, "Renamed mid-upload", updated.Title)
	assert.NotEmpty(t, updated.Image)
	assert.Equal(t, "Renamed mid-upload", f.index.docs[rec.ID])
}

func TestRecipeService_UploadImageWithoutFile(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)
	rec := createRecipe(t, f.svc, "u1", sampleInput("Pictured"))

	_, err := f.svc.UploadImage(ctx, "u1", rec.ID, "", nil)
	assert.ErrorIs(t, err, ErrImageMissing)
	_, err = f.svc.UploadImage(ctx, "intruder", rec.ID, "", nil)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestRecipeService_UploadImageRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)
	rec := createRecipe(t, f.svc, "u1", sampleInput("Pictured"))

	_, err := f.svc.UploadImage(ctx, "u1", rec.ID, "notes.png", strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	f.svc.MaxImageBytes = 16
	_, err = f.svc.UploadImage(ctx, "u1", rec.ID, "big.png", bytes.NewReader(pngBytes(t)))
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.Empty(t, f.images.saved)
}

func TestRecipeService_UploadImageWithoutStorage(t *testing.T) {
	f := newRecipeFixture(t)
	f.svc.Images = nil
	rec := createRecipe(t, f.svc, "u1", sampleInput("Pictured"))

	_, err := f.svc.UploadImage(context.Background(), "u1", rec.ID, "a.png", bytes.NewReader(pngBytes(t)))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestRecipeService_SearchKeepsOwnRecipesInRankOrder(t *testing.T) {
	ctx := context.Background()
	f := newRecipeFixture(t)
	r1 := createRecipe(t, f.svc, "u1", sampleInput("Curry"))
	r2 := createRecipe(t, f.svc, "u1", sampleInput("Curry soup"))
	foreign := createRecipe(t, f.svc, "u2", sampleInput("Curry too"))

	f.index.hits = []int64{r2.ID, foreign.ID, r1.ID, 999}
	got, err := f.svc.Search(ctx, "u1", "curry", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, r2.ID, got[0].ID)
	assert.Equal(t, r1.ID, got[1].ID)

	empty, err := f.svc.Search(ctx, "u1", "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestImageExt(t *testing.T) {
	assert.Equal(t, ".jpeg", imageExt("a.JPEG", "jpeg"))
	assert.Equal(t, ".jpg", imageExt("upload", "jpeg"))
	assert.Equal(t, ".webp", imageExt("a.txt", "webp"))
}
