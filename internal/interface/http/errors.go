package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-recipe-api/internal/application"
	"github.com/oksasatya/go-recipe-api/pkg/helpers"
	"github.com/oksasatya/go-recipe-api/pkg/response"
)

// respondError maps service errors onto HTTP statuses. Anything unknown is
// logged and reported as 500 without detail.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{verr.Field: verr.Message})
	case errors.Is(err, application.ErrInvalidImage), errors.Is(err, application.ErrImageTooLarge),
		errors.Is(err, application.ErrImageMissing):
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"image": err.Error()})
	case errors.Is(err, application.ErrRecipeNotFound),
		errors.Is(err, application.ErrAttributeNotFound),
		errors.Is(err, application.ErrUserNotFound),
		errors.Is(err, application.ErrUnsupportedKind):
		response.Error[any](c, http.StatusNotFound, "not found", nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, application.ErrEmailTaken):
		response.Error[any](c, http.StatusConflict, "email already registered", map[string]string{"email": "already exists"})
	case errors.Is(err, application.ErrStorageUnavailable), errors.Is(err, application.ErrSessionUnavailable):
		response.Error[any](c, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		if logger != nil {
			helpers.RequestEntry(logger, c).WithError(err).Error("request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}

// pathID parses the :id route parameter. A malformed id cannot name an
// existing resource, so it answers 404.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusNotFound, "not found", nil)
		return 0, false
	}
	return id, true
}
