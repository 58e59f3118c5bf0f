package service

import "github.com/forgo/mediacms/api/internal/model"

// Authorization objects and actions checked by the services
const (
	ObjectTechniques          = "techniques"
	ObjectTechniqueTree       = "techniques/tree"
	ObjectTechniqueCategories = "techniques/categories"
	ObjectTechniqueMedia      = "techniques/media"
	ObjectMedia               = "media"
	ObjectCatalog             = "catalog"

	ActionRead   = "read"
	ActionCreate = "create"
	ActionDelete = "delete"
)

// Authorizer decides whether a role may perform an action on an object
type Authorizer interface {
	Allowed(role, object, action string) (bool, error)
}

// authorize returns ErrUnauthenticated for a missing principal and
// ErrForbidden when the principal's role is not allowed
func authorize(authz Authorizer, p *model.Principal, object, action string) error {
	if p == nil || p.UserID == "" {
		return ErrUnauthenticated
	}
	ok, err := authz.Allowed(string(p.Role), object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
