// Package authz decides whether a role may perform an action on an API
// object, using a Casbin RBAC enforcer.
//
// The model and default policy are embedded. A policy CSV on disk replaces
// the embedded policy when EnforcerConfig.PolicyPath is set:
//
//	p, user, techniques, read
//	p, superuser, techniques/*, *
//	g, superuser, user
//
// Objects are matched with keyMatch, so "techniques/*" covers
// "techniques/tree" and "techniques/media". An action of "*" grants every
// action on the object.
package authz
