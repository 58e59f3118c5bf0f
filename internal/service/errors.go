package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authorization Errors =====
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not authorized to perform this action")
)

// ===== Technique Errors =====
var (
	ErrTechniqueNotFound      = errors.New("technique not found")
	ErrTechniqueExists        = errors.New("a technique with this id already exists")
	ErrParentNotFound         = errors.New("parent technique not found")
	ErrTechniqueTitleRequired = errors.New("title is required")
	ErrTechniqueTitleTooLong  = errors.New("title exceeds maximum length")
	ErrTechniqueTitleInvalid  = errors.New("title must contain at least one letter or digit")
	ErrTechniqueSlugTooLong   = errors.New("technique id exceeds maximum length")
	ErrTaxonomyNotEmpty       = errors.New("technique taxonomy already has techniques")
	ErrTechniqueTreeCorrupt   = errors.New("technique tree is inconsistent")
)

// ===== Technique Media Errors =====
var (
	ErrMediaTokenRequired     = errors.New("media_friendly_token is required")
	ErrTitleOverrideTooLong   = errors.New("title_override exceeds maximum length")
	ErrTechniqueMediaExists   = errors.New("media is already attached to this technique")
	ErrTechniqueMediaNotFound = errors.New("media is not attached to this technique")
)

// ===== Media Errors =====
var (
	ErrMediaNotFound = errors.New("media not found")
)
