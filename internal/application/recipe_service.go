package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	repo "github.com/oksasatya/go-recipe-api/internal/domain/repository"
)

// DefaultMaxImageBytes bounds recipe image uploads when no limit is configured.
const DefaultMaxImageBytes = 5 << 20

var maxPrice = decimal.RequireFromString("999.99")

// ImageStorage persists an uploaded object and returns its public reference.
type ImageStorage interface {
	Save(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// RecipeIndex is the full-text index kept beside the database. It is best
// effort: failures are logged and never fail a write.
type RecipeIndex interface {
	Index(ctx context.Context, r *entity.Recipe) error
	Delete(ctx context.Context, recipeID int64) error
	Search(ctx context.Context, userID, query string, size int) ([]int64, error)
}

type RecipeService struct {
	Store         repo.Store
	Images        ImageStorage
	Index         RecipeIndex
	Logger        *logrus.Logger
	MaxImageBytes int64
}

func NewRecipeService(store repo.Store, images ImageStorage, index RecipeIndex, logger *logrus.Logger, maxImageBytes int64) *RecipeService {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &RecipeService{
		Store:         store,
		Images:        images,
		Index:         index,
		Logger:        logger,
		MaxImageBytes: maxImageBytes,
	}
}

// RecipeInput carries the writable recipe fields. A nil field was not
// supplied. A nil Tags or Ingredients leaves the association untouched; a
// non-nil empty slice clears it.
type RecipeInput struct {
	Title       *string
	Description *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Link        *string
	Tags        *[]string
	Ingredients *[]string
}

func (s *RecipeService) List(ctx context.Context, userID string, f entity.RecipeFilter) ([]entity.Recipe, error) {
	return s.Store.Recipes().List(ctx, userID, f)
}

func (s *RecipeService) Get(ctx context.Context, userID string, id int64) (*entity.Recipe, error) {
	r, err := s.Store.Recipes().GetByID(ctx, userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecipeNotFound
	}
	return r, err
}

func (s *RecipeService) Create(ctx context.Context, userID string, in RecipeInput) (*entity.Recipe, error) {
	if err := validateRecipeInput(in, true); err != nil {
		return nil, err
	}
	rec := &entity.Recipe{UserID: userID}
	applyRecipeInput(rec, in)

	err := s.Store.WithinTx(ctx, func(tx repo.Store) error {
		if err := tx.Recipes().Create(ctx, rec); err != nil {
			return err
		}
		return s.writeAttributes(ctx, tx, rec, in)
	})
	if err != nil {
		return nil, err
	}
	recipesCreated.Add(1)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": userID, "recipe_id": rec.ID}).Info("recipe created")
	}
	s.reindex(ctx, rec)
	return rec, nil
}

// Update applies in to the user's recipe. A full update (partial == false)
// requires the same fields as Create. The owner is never changed.
func (s *RecipeService) Update(ctx context.Context, userID string, id int64, in RecipeInput, partial bool) (*entity.Recipe, error) {
	if err := validateRecipeInput(in, !partial); err != nil {
		return nil, err
	}
	var rec *entity.Recipe
	err := s.Store.WithinTx(ctx, func(tx repo.Store) error {
		var err error
		rec, err = tx.Recipes().GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		applyRecipeInput(rec, in)
		if err := tx.Recipes().Update(ctx, rec); err != nil {
			return err
		}
		return s.writeAttributes(ctx, tx, rec, in)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, rec)
	return rec, nil
}

func (s *RecipeService) Delete(ctx context.Context, userID string, id int64) error {
	err := s.Store.Recipes().Delete(ctx, userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrRecipeNotFound
	}
	if err != nil {
		return err
	}
	recipesDeleted.Add(1)
	if s.Index != nil {
		if iErr := s.Index.Delete(ctx, id); iErr != nil && s.Logger != nil {
			s.Logger.WithError(iErr).WithField("recipe_id", id).Warn("recipe index delete failed")
		}
	}
	return nil
}

// UploadImage checks that the content decodes as an image, stores it under
// uploads/recipe/ and points the recipe at the stored object. Only the image
// column is written, so concurrent edits to other fields survive. A nil r
// reports ErrImageMissing once ownership is established.
func (s *RecipeService) UploadImage(ctx context.Context, userID string, id int64, filename string, r io.Reader) (*entity.Recipe, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrImageMissing
	}
	if s.Images == nil {
		return nil, ErrStorageUnavailable
	}

	buf, err := io.ReadAll(io.LimitReader(r, s.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) > s.MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, ErrInvalidImage
	}

	objectPath := path.Join("uploads", "recipe", uuid.NewString()+imageExt(filename, format))
	ref, err := s.Images.Save(ctx, objectPath, "image/"+format, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	if err := s.Store.Recipes().SetImage(ctx, userID, id, ref); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	imagesUploaded.Add(1)
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, rec)
	return rec, nil
}

// Search queries the recipe index and returns the matching recipes still
// owned by userID, in index rank order.
func (s *RecipeService) Search(ctx context.Context, userID, query string, size int) ([]entity.Recipe, error) {
	out := make([]entity.Recipe, 0)
	if s.Index == nil || strings.TrimSpace(query) == "" {
		return out, nil
	}
	ids, err := s.Index.Search(ctx, userID, query, size)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		rec, err := s.Store.Recipes().GetByID(ctx, userID, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (s *RecipeService) writeAttributes(ctx context.Context, tx repo.Store, rec *entity.Recipe, in RecipeInput) error {
	if in.Tags != nil {
		tags, err := replaceAttributes(ctx, tx, entity.KindTag, rec.UserID, rec.ID, *in.Tags)
		if err != nil {
			return err
		}
		rec.Tags = tags
	}
	if in.Ingredients != nil {
		ingredients, err := replaceAttributes(ctx, tx, entity.KindIngredient, rec.UserID, rec.ID, *in.Ingredients)
		if err != nil {
			return err
		}
		rec.Ingredients = ingredients
	}
	if rec.Tags == nil {
		rec.Tags = []entity.Attribute{}
	}
	if rec.Ingredients == nil {
		rec.Ingredients = []entity.Attribute{}
	}
	return nil
}

func (s *RecipeService) reindex(ctx context.Context, rec *entity.Recipe) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, rec); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("recipe_id", rec.ID).Warn("recipe index failed")
	}
}

func applyRecipeInput(rec *entity.Recipe, in RecipeInput) {
	if in.Title != nil {
		rec.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		rec.Description = *in.Description
	}
	if in.TimeMinutes != nil {
		rec.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		rec.Price = *in.Price
	}
	if in.Link != nil {
		rec.Link = strings.TrimSpace(*in.Link)
	}
}

func validateRecipeInput(in RecipeInput, full bool) error {
	if full {
		switch {
		case in.Title == nil:
			return invalid("title", "is required")
		case in.TimeMinutes == nil:
			return invalid("time_minutes", "is required")
		case in.Price == nil:
			return invalid("price", "is required")
		}
	}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return invalid("title", "may not be blank")
		}
		if len(t) > maxNameLength {
			return invalid("title", fmt.Sprintf("must be at most %d characters long", maxNameLength))
		}
	}
	if in.TimeMinutes != nil && *in.TimeMinutes < 0 {
		return invalid("time_minutes", "must be greater than or equal to 0")
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return err
		}
	}
	if in.Link != nil && len(strings.TrimSpace(*in.Link)) > maxNameLength {
		return invalid("link", fmt.Sprintf("must be at most %d characters long", maxNameLength))
	}
	return nil
}

// validatePrice enforces NUMERIC(5,2): non-negative, at most 999.99 and at
// most two decimal places.
func validatePrice(p decimal.Decimal) error {
	switch {
	case p.IsNegative():
		return invalid("price", "must be greater than or equal to 0")
	case p.GreaterThan(maxPrice):
		return invalid("price", "must be at most 999.99")
	case !p.Equal(p.Truncate(2)):
		return invalid("price", "must have at most 2 decimal places")
	}
	return nil
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// imageExt keeps the uploaded file's extension when it names an image type
// and otherwise derives one from the decoded format.
func imageExt(filename, format string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); imageExts[ext] {
		return ext
	}
	if format == "jpeg" {
		return ".jpg"
	}
	return "." + format
}
