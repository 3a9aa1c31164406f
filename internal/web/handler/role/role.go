// Package role serves the role catalog: listing, custom role CRUD and hierarchy lookups.
package role

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/web/handler"
	"github.com/marketplace-tools/permd/internal/web/middleware/auth"
)

const (
	// RouteRoles lists and creates roles.
	RouteRoles = "/roles"
	// RouteRole updates or deletes a role.
	RouteRole = "/roles/:id"
	// RouteInherited lists the roles inheriting from a role.
	RouteInherited = "/roles/:id/inherited"
)

// CreateRequest is the body of POST /roles.
type CreateRequest struct {
	ID          acl.RoleID       `json:"id" validate:"required,max=100"`
	Name        string           `json:"name" validate:"required,max=100"`
	Description string           `json:"description" validate:"max=255"`
	Permissions []acl.Permission `json:"permissions" validate:"dive,required"`
	Level       int              `json:"level" validate:"gte=0,lte=100"`
}

// UpdateRequest is the body of PATCH /roles/:id. Absent fields are left as they are.
type UpdateRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string           `json:"description" validate:"omitempty,max=255"`
	Permissions *[]acl.Permission `json:"permissions" validate:"omitempty,dive,required"`
	Level       *int              `json:"level" validate:"omitempty,gte=0,lte=100"`
}

// ListResponse is the answer of GET /roles.
type ListResponse struct {
	Roles []acl.Role `json:"roles"`
}

// Response wraps a single role.
type Response struct {
	Role acl.Role `json:"role"`
}

// InheritedResponse is the answer of GET /roles/:id/inherited.
type InheritedResponse struct {
	RoleID       acl.RoleID   `json:"roleId"`
	Inherited    []acl.RoleID `json:"inherited"`
	Subordinates []acl.RoleID `json:"subordinates"`
}

// Service serves the role routes.
type Service struct {
	deps *handler.Deps
}

var _ handler.Service = (*Service)(nil)

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) {
	if router == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.deps = deps

	router.Get(RouteRoles, s.List)
	router.Post(RouteRoles, auth.RequirePermission(deps.Store, acl.PermSystemSettings), s.Create)
	router.Get(RouteInherited, s.Inherited)
	router.Patch(RouteRole, auth.RequirePermission(deps.Store, acl.PermSystemSettings), s.Update)
	// deleting a role voids every assignment that references it
	router.Delete(RouteRole, auth.RequireAllPermissions(deps.Store, acl.PermSystemSettings, acl.PermUsersUpdate), s.Delete)
}

// List returns the role catalog in insertion order.
func (s *Service) List(c *fiber.Ctx) error {
	return c.JSON(ListResponse{Roles: s.deps.Store.ListRoles()})
}

// Create adds a custom role.
func (s *Service) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if ok, err := handler.Bind(c, s.deps.Validator, &req); !ok {
		return err
	}

	role, _, err := s.deps.Store.CreateRole(auth.UserID(c), req.ID, acl.RoleSpec{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		Level:       req.Level,
	})
	if err != nil {
		return handler.StoreError(c, err)
	}

	log.Info().Str("role", string(role.ID)).Str("actor", auth.UserID(c)).Msg("role created")

	return c.Status(fiber.StatusCreated).JSON(Response{Role: role})
}

// Update changes fields of a role.
func (s *Service) Update(c *fiber.Ctx) error {
	var req UpdateRequest
	if ok, err := handler.Bind(c, s.deps.Validator, &req); !ok {
		return err
	}

	role, _, err := s.deps.Store.UpdateRole(auth.UserID(c), acl.RoleID(c.Params("id")), acl.RoleUpdate{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		Level:       req.Level,
	})
	if err != nil {
		return handler.StoreError(c, err)
	}

	return c.JSON(Response{Role: role})
}

// Delete removes a custom role.
func (s *Service) Delete(c *fiber.Ctx) error {
	if _, err := s.deps.Store.DeleteRole(auth.UserID(c), acl.RoleID(c.Params("id"))); err != nil {
		return handler.StoreError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Inherited lists the roles that transitively inherit from the role.
func (s *Service) Inherited(c *fiber.Ctx) error {
	id := acl.RoleID(c.Params("id"))

	inherited, err := s.deps.Store.InheritedRoles(id)
	if err != nil {
		return handler.StoreError(c, err)
	}

	if inherited == nil {
		inherited = []acl.RoleID{}
	}

	subordinates := s.deps.Store.Hierarchy().Subordinates(id)
	if subordinates == nil {
		subordinates = []acl.RoleID{}
	}

	return c.JSON(InheritedResponse{RoleID: id, Inherited: inherited, Subordinates: subordinates})
}
