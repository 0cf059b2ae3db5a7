package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-recipe-api/internal/interface/http"
	"github.com/oksasatya/go-recipe-api/internal/interface/middleware"
	"github.com/oksasatya/go-recipe-api/pkg/helpers"
)

// RecipeModule wires recipes, tags and ingredients under /recipe. Every
// route requires authentication.
type RecipeModule struct {
	Recipes     *handlers.RecipeHandler
	Tags        *handlers.AttributeHandler
	Ingredients *handlers.AttributeHandler
	JWT         *helpers.JWTManager
	Redis       *redis.Client
}

func NewRecipeModule(recipes *handlers.RecipeHandler, tags, ingredients *handlers.AttributeHandler, jwt *helpers.JWTManager, rdb *redis.Client) *RecipeModule {
	return &RecipeModule{Recipes: recipes, Tags: tags, Ingredients: ingredients, JWT: jwt, Redis: rdb}
}

func (m *RecipeModule) Name() string { return "recipe" }

func (m *RecipeModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/recipe")
	auth.Use(middleware.Auth(m.Redis, m.JWT))
	auth.Use(middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByUserID(), nil))

	uploadLimiter := middleware.RateLimit(m.Redis, 20, time.Minute, middleware.KeyByUserID(), nil)
	{
		auth.GET("/recipes", m.Recipes.List)
		auth.POST("/recipes", m.Recipes.Create)
		auth.GET("/recipes/search", m.Recipes.Search)
		auth.GET("/recipes/:id", m.Recipes.Get)
		auth.PUT("/recipes/:id", m.Recipes.Update)
		auth.PATCH("/recipes/:id", m.Recipes.Update)
		auth.DELETE("/recipes/:id", m.Recipes.Delete)
		auth.POST("/recipes/:id/upload-image", uploadLimiter, m.Recipes.UploadImage)
	}
	registerAttributeRoutes(auth, "/tags", m.Tags)
	registerAttributeRoutes(auth, "/ingredients", m.Ingredients)
}

func registerAttributeRoutes(rg *gin.RouterGroup, path string, h *handlers.AttributeHandler) {
	rg.GET(path, h.List)
	rg.PUT(path+"/:id", h.Update)
	rg.PATCH(path+"/:id", h.Update)
	rg.DELETE(path+"/:id", h.Delete)
}
