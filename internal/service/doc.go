// Package service implements the business logic of the media CMS API.
//
// Services sit between HTTP handlers and repositories. Each service declares
// the repository interfaces it needs, so tests substitute func-field mocks:
//
//	svc := NewTechniqueService(TechniqueServiceConfig{
//	    Techniques:     techniqueRepo,
//	    TechniqueMedia: techniqueMediaRepo,
//	    Media:          mediaRepo,
//	    Authorizer:     enforcer,
//	})
//	doc, err := svc.Document(ctx, principal)
//
// # Authorization
//
// Every operation takes the calling *model.Principal and asks the Authorizer
// whether the principal's role may perform an action on an object
// ("techniques", "techniques/tree", "techniques/media", ...). A nil principal
// yields ErrUnauthenticated; a refused role yields ErrForbidden.
//
// # Technique tree
//
// Techniques are stored as a nested-set forest. CreateCategory and
// DeleteTechnique load the forest, apply the change with package mptt and
// persist only the rows whose bookkeeping moved. Tree mutations are
// serialized within the process.
//
// # Errors
//
// All sentinel errors live in errors.go and are mapped to HTTP statuses by
// the handler package.
package service
