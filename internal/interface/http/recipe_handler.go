package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-recipe-api/internal/application"
	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	"github.com/oksasatya/go-recipe-api/pkg/response"
	"github.com/oksasatya/go-recipe-api/pkg/validation"
)

type RecipeHandler struct {
	Svc    *application.RecipeService
	Logger *logrus.Logger
}

func NewRecipeHandler(svc *application.RecipeService, logger *logrus.Logger) *RecipeHandler {
	return &RecipeHandler{Svc: svc, Logger: logger}
}

// List answers the caller's recipes, newest first. The tags and ingredients
// query parameters take comma-separated ids.
func (h *RecipeHandler) List(c *gin.Context) {
	tagIDs, err := validation.ParseIDList(c.Query("tags"))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", map[string]string{"tags": err.Error()})
		return
	}
	ingredientIDs, err := validation.ParseIDList(c.Query("ingredients"))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", map[string]string{"ingredients": err.Error()})
		return
	}

	recipes, err := h.Svc.List(c.Request.Context(), c.GetString("userID"), entity.RecipeFilter{TagIDs: tagIDs, IngredientIDs: ingredientIDs})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toRecipeResponses(recipes), "recipes", response.ListMeta{Count: len(recipes)})
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	rec, err := h.Svc.Create(c.Request.Context(), c.GetString("userID"), req.toInput())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toRecipeDetailResponse(rec), "recipe created", nil)
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := h.Svc.Get(c.Request.Context(), c.GetString("userID"), id)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toRecipeDetailResponse(rec), "recipe", nil)
}

// Update handles PUT (full) and PATCH (partial) on one recipe.
func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	partial := c.Request.Method == http.MethodPatch
	rec, err := h.Svc.Update(c.Request.Context(), c.GetString("userID"), id, req.toInput(), partial)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toRecipeDetailResponse(rec), "recipe updated", nil)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), c.GetString("userID"), id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

// UploadImage expects a multipart form with the file in field "image".
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var (
		file     io.Reader
		filename string
	)
	// a missing file is left to the service so a foreign recipe still answers 404
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		defer func() { _ = f.Close() }()
		file, filename = f, fh.Filename
	}

	rec, err := h.Svc.UploadImage(c.Request.Context(), c.GetString("userID"), id, filename, file)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": rec.ID, "image": rec.Image}, "image uploaded", nil)
}

// Search runs a full-text query over the caller's recipes.
func (h *RecipeHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	recipes, err := h.Svc.Search(c.Request.Context(), c.GetString("userID"), c.Query("q"), size)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toRecipeResponses(recipes), "recipes", response.ListMeta{Count: len(recipes)})
}
