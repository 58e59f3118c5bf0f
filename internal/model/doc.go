// Package model defines domain entities and data structures for the MediaCMS API.
//
// The model package contains struct definitions for domain objects, request/response
// types, and error definitions. Models are used across all layers of the application.
//
// # Domain Entities
//
//   - Media: Uploaded media item addressed by its friendly token
//   - Category, Tag: Media classification
//   - Technique: Node of the technique taxonomy (nested set)
//   - TechniqueMedia: Association of a media item with a technique node
//   - User: Account that owns media and curates techniques
//
// # Technique Documents
//
// The taxonomy is served as a TechniquesDocument, a versioned list of nested
// TechniqueNode values whose id is the technique slug:
//
//	{"version": 1, "tree": [{"id": "root.guard", "children": [...], "media": [...]}]}
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go.
package model
