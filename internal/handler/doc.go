// Package handler provides the HTTP request handlers for the media CMS API.
//
// Each handler struct wraps the service interface it needs, declared next to
// the handler so tests can substitute func-field mocks.
//
// # Response Format
//
// Technique endpoints answer with bare payloads (the technique document, the
// tree array, the created category). Media and catalog listings use
// WriteCollection with offset pagination. Every error is written as an
// RFC 9457 problem document; service errors pass through MapServiceError.
//
// # Authentication
//
// Routes.Register wraps every /api/v1 route with the bearer token middleware.
// Handlers read the caller with middleware.GetPrincipal and leave role checks
// to the services.
//
//	routes := &handler.Routes{
//	    Health:     handler.NewHealthHandler(db),
//	    Techniques: handler.NewTechniqueHandler(techniqueService),
//	    Media:      handler.NewMediaHandler(mediaService),
//	    Catalog:    handler.NewCatalogHandler(catalogService),
//	    Auth:       middleware.Auth(jwtService),
//	}
//	routes.Register(mux)
package handler
