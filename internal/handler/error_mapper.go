package handler

import (
	"errors"

	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Errors that are not recognized become a generic 500 so internal details
// never reach the client.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Authentication / Authorization =====
	case errors.Is(err, service.ErrUnauthenticated):
		return model.NewUnauthorizedError(err.Error())
	case errors.Is(err, service.ErrForbidden):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrTechniqueNotFound):
		return model.NewNotFoundError("technique")
	case errors.Is(err, service.ErrParentNotFound):
		return model.NewNotFoundError("parent technique")
	case errors.Is(err, service.ErrMediaNotFound):
		return model.NewNotFoundError("media")
	case errors.Is(err, service.ErrTechniqueMediaNotFound):
		return model.NewNotFoundError("technique media")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrTechniqueExists),
		errors.Is(err, service.ErrTechniqueMediaExists),
		errors.Is(err, service.ErrTaxonomyNotEmpty):
		return model.NewConflictError(err.Error())

	// ===== Validation Errors → 400 =====
	case errors.Is(err, service.ErrTechniqueTitleRequired),
		errors.Is(err, service.ErrTechniqueTitleTooLong),
		errors.Is(err, service.ErrTechniqueTitleInvalid),
		errors.Is(err, service.ErrTechniqueSlugTooLong):
		return model.NewValidationError([]model.FieldError{{Field: "title", Message: err.Error()}})
	case errors.Is(err, service.ErrMediaTokenRequired):
		return model.NewValidationError([]model.FieldError{{Field: "media_friendly_token", Message: err.Error()}})
	case errors.Is(err, service.ErrTitleOverrideTooLong):
		return model.NewValidationError([]model.FieldError{{Field: "title_override", Message: err.Error()}})

	default:
		return model.NewInternalError("")
	}
}
