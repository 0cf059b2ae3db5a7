package application

import (
	"errors"
	"expvar"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrAttributeNotFound  = errors.New("attribute not found")
	ErrInvalidImage       = errors.New("uploaded file is not a supported image")
	ErrImageTooLarge      = errors.New("uploaded image is too large")
	ErrImageMissing       = errors.New("no file was submitted")
	ErrStorageUnavailable = errors.New("image storage not configured")
	ErrSessionUnavailable = errors.New("session store not configured")
	ErrUnsupportedKind    = errors.New("unsupported attribute kind")
)

// ValidationError reports an input field the service refused.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Counters exposed on /api/debug/vars.
var (
	usersRegistered   = expvar.NewInt("users_registered")
	recipesCreated    = expvar.NewInt("recipes_created")
	recipesDeleted    = expvar.NewInt("recipes_deleted")
	attributesCreated = expvar.NewInt("attributes_created")
	imagesUploaded    = expvar.NewInt("images_uploaded")
)
