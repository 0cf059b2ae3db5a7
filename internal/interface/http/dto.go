package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/oksasatya/go-recipe-api/internal/application"
	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
)

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type attributeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toAttributeResponses(attrs []entity.Attribute) []attributeResponse {
	out := make([]attributeResponse, len(attrs))
	for i, a := range attrs {
		out[i] = attributeResponse{ID: a.ID, Name: a.Name}
	}
	return out
}

// recipeResponse is the list representation; detail adds description and
// image.
type recipeResponse struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       string              `json:"price"`
	Link        string              `json:"link"`
	Tags        []attributeResponse `json:"tags"`
	Ingredients []attributeResponse `json:"ingredients"`
}

type recipeDetailResponse struct {
	recipeResponse
	Description string `json:"description"`
	Image       string `json:"image"`
}

func toRecipeResponse(r *entity.Recipe) recipeResponse {
	return recipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        toAttributeResponses(r.Tags),
		Ingredients: toAttributeResponses(r.Ingredients),
	}
}

func toRecipeDetailResponse(r *entity.Recipe) recipeDetailResponse {
	return recipeDetailResponse{
		recipeResponse: toRecipeResponse(r),
		Description:    r.Description,
		Image:          r.Image,
	}
}

func toRecipeResponses(recipes []entity.Recipe) []recipeResponse {
	out := make([]recipeResponse, len(recipes))
	for i := range recipes {
		out[i] = toRecipeResponse(&recipes[i])
	}
	return out
}

type attributeRequest struct {
	Name string `json:"name" binding:"required,label"`
}

// recipeRequest binds POST, PUT and PATCH bodies. Unknown keys such as
// "user" or "id" are ignored.
type recipeRequest struct {
	Title       *string             `json:"title" binding:"omitempty,label"`
	Description *string             `json:"description"`
	TimeMinutes *int                `json:"time_minutes" binding:"omitempty,gte=0"`
	Price       *decimal.Decimal    `json:"price"`
	Link        *string             `json:"link" binding:"omitempty,label"`
	Tags        *[]attributeRequest `json:"tags" binding:"omitempty,dive"`
	Ingredients *[]attributeRequest `json:"ingredients" binding:"omitempty,dive"`
}

func attributeNames(in *[]attributeRequest) *[]string {
	if in == nil {
		return nil
	}
	names := make([]string, len(*in))
	for i, a := range *in {
		names[i] = a.Name
	}
	return &names
}

func (r recipeRequest) toInput() application.RecipeInput {
	return application.RecipeInput{
		Title:       r.Title,
		Description: r.Description,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        attributeNames(r.Tags),
		Ingredients: attributeNames(r.Ingredients),
	}
}
