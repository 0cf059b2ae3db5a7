package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-recipe-api/internal/application"
	"github.com/oksasatya/go-recipe-api/internal/domain/entity"
	"github.com/oksasatya/go-recipe-api/pkg/response"
	"github.com/oksasatya/go-recipe-api/pkg/validation"
)

// AttributeHandler serves either tags or ingredients, selected by Kind.
type AttributeHandler struct {
	Svc    *application.AttributeService
	Kind   entity.AttributeKind
	Logger *logrus.Logger
}

func NewAttributeHandler(svc *application.AttributeService, kind entity.AttributeKind, logger *logrus.Logger) *AttributeHandler {
	return &AttributeHandler{Svc: svc, Kind: kind, Logger: logger}
}

// List accepts assigned_only=1 to keep only attributes used by a recipe.
func (h *AttributeHandler) List(c *gin.Context) {
	assignedOnly := false
	if raw := c.Query("assigned_only"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || (n != 0 && n != 1) {
			response.Error[any](c, http.StatusBadRequest, "invalid query", map[string]string{"assigned_only": "must be one of: 0, 1"})
			return
		}
		assignedOnly = n == 1
	}
	attrs, err := h.Svc.List(c.Request.Context(), c.GetString("userID"), h.Kind, assignedOnly)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAttributeResponses(attrs), string(h.Kind)+"s", response.ListMeta{Count: len(attrs)})
}

// Update renames the attribute (PUT and PATCH alike).
func (h *AttributeHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req attributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	a, err := h.Svc.Rename(c.Request.Context(), c.GetString("userID"), h.Kind, id, req.Name)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, attributeResponse{ID: a.ID, Name: a.Name}, string(h.Kind)+" updated", nil)
}

func (h *AttributeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), c.GetString("userID"), h.Kind, id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}
