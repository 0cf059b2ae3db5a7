package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	repo "github.com/oksasatya/go-recipe-api/internal/domain/repository"
)

// AttributeService exposes a user's tags and ingredients outside of recipe
// writes: listing, renaming and deleting.
type AttributeService struct {
	Store  repo.Store
	Logger *logrus.Logger
}

func NewAttributeService(store repo.Store, logger *logrus.Logger) *AttributeService {
	return &AttributeService{Store: store, Logger: logger}
}

func checkKind(kind entity.AttributeKind) error {
	if kind != entity.KindTag && kind != entity.KindIngredient {
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	return nil
}

// List returns the user's attributes by name descending. assignedOnly keeps
// only those attached to at least one recipe.
func (s *AttributeService) List(ctx context.Context, userID string, kind entity.AttributeKind, assignedOnly bool) ([]entity.Attribute, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	return s.Store.Attributes(kind).List(ctx, userID, assignedOnly)
}

func (s *AttributeService) Rename(ctx context.Context, userID string, kind entity.AttributeKind, id int64, name string) (*entity.Attribute, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, invalid("name", "may not be blank")
	}
	if len(name) > maxNameLength {
		return nil, invalid("name", fmt.Sprintf("must be at most %d characters long", maxNameLength))
	}
	attrs := s.Store.Attributes(kind)
	a, err := attrs.GetByID(ctx, userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAttributeNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Name = name
	if err := attrs.Update(ctx, a); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAttributeNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AttributeService) Delete(ctx context.Context, userID string, kind entity.AttributeKind, id int64) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	err := s.Store.Attributes(kind).Delete(ctx, userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAttributeNotFound
	}
	if err == nil && s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": userID, "kind": kind, "id": id}).Info("attribute deleted")
	}
	return err
}
