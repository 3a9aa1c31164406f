// Package assignment serves the role assignment routes: assign, revoke, update and the per-user view.
package assignment

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/web/handler"
	"github.com/marketplace-tools/permd/internal/web/middleware/auth"
)

const (
	// RouteAssign grants a role.
	RouteAssign = "/assign"
	// RouteRevoke deactivates an assignment.
	RouteRevoke = "/revoke"
	// RouteUser shows a user's assignments and effective permissions.
	RouteUser = "/users/:userId"
	// RouteUpdate changes one assignment.
	RouteUpdate = "/users/:userId/assignments/:id"
)

// AssignRequest is the body of POST /assign.
type AssignRequest struct {
	UserID     string     `json:"userId" validate:"required,max=100"`
	Role       acl.RoleID `json:"role" validate:"required,max=100"`
	AssignedBy string     `json:"assignedBy" validate:"max=100"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

// AssignResponse is the answer of POST /assign.
type AssignResponse struct {
	Assignment acl.Assignment    `json:"assignment"`
	AuditLog   acl.AuditLogEntry `json:"auditLog"`
}

// RevokeRequest is the body of POST /revoke. RoleID carries the assignment id.
type RevokeRequest struct {
	UserID    string `json:"userId" validate:"required,max=100"`
	RoleID    string `json:"roleId" validate:"required,max=64"`
	RevokedBy string `json:"revokedBy" validate:"max=100"`
	Reason    string `json:"reason" validate:"max=255"`
}

// RevokeResponse is the answer of POST /revoke.
type RevokeResponse struct {
	UserID     string            `json:"userId"`
	RoleID     string            `json:"roleId"`
	Assignment acl.Assignment    `json:"assignment"`
	AuditLog   acl.AuditLogEntry `json:"auditLog"`
}

// UpdateRequest is the body of PATCH /users/:userId/assignments/:id.
type UpdateRequest struct {
	Role        *acl.RoleID `json:"role" validate:"omitempty,min=1,max=100"`
	IsActive    *bool       `json:"isActive"`
	ExpiresAt   *time.Time  `json:"expiresAt"`
	ClearExpiry bool        `json:"clearExpiry"`
}

// UpdateResponse is the answer of PATCH /users/:userId/assignments/:id.
type UpdateResponse struct {
	Assignment acl.Assignment    `json:"assignment"`
	AuditLog   acl.AuditLogEntry `json:"auditLog"`
}

// UserResponse is the answer of GET /users/:userId.
type UserResponse struct {
	UserID      string           `json:"userId"`
	Assignments []acl.Assignment `json:"assignments"`
	Permissions []acl.Permission `json:"permissions"`
}

// Service serves the assignment routes.
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

	router.Post(RouteAssign, auth.RequirePermission(deps.Store, acl.PermUsersUpdate), s.Assign)
	router.Post(RouteRevoke, auth.RequirePermission(deps.Store, acl.PermUsersUpdate), s.Revoke)
	router.Get(RouteUser, auth.RequireAnyPermission(deps.Store, acl.PermUsersView, acl.PermAuditView), s.User)
	router.Patch(RouteUpdate, auth.RequirePermission(deps.Store, acl.PermUsersUpdate), s.Update)
}

// Assign grants a role to a user.
func (s *Service) Assign(c *fiber.Ctx) error {
	var req AssignRequest
	if ok, err := handler.Bind(c, s.deps.Validator, &req); !ok {
		return err
	}

	if req.AssignedBy == "" {
		req.AssignedBy = auth.UserID(c)
	}

	var opts []acl.AssignOption
	if req.ExpiresAt != nil {
		opts = append(opts, acl.WithExpiry(*req.ExpiresAt))
	}

	a, entry, err := s.deps.Store.AssignRole(req.UserID, req.Role, req.AssignedBy, opts...)
	if err != nil {
		return handler.StoreError(c, err)
	}

	log.Info().Str("user_id", a.UserID).Str("role", string(a.Role)).Str("actor", a.AssignedBy).
		Msg("role assigned")

	return c.JSON(AssignResponse{Assignment: a, AuditLog: entry})
}

// Revoke deactivates an assignment.
func (s *Service) Revoke(c *fiber.Ctx) error {
	var req RevokeRequest
	if ok, err := handler.Bind(c, s.deps.Validator, &req); !ok {
		return err
	}

	if req.RevokedBy == "" {
		req.RevokedBy = auth.UserID(c)
	}

	a, entry, err := s.deps.Store.RevokeRole(req.UserID, req.RoleID, req.RevokedBy, req.Reason)
	if err != nil {
		return handler.StoreError(c, err)
	}

	log.Info().Str("user_id", a.UserID).Str("assignment_id", a.ID).Str("actor", req.RevokedBy).
		Msg("role revoked")

	return c.JSON(RevokeResponse{UserID: req.UserID, RoleID: req.RoleID, Assignment: a, AuditLog: entry})
}

// Update changes the fields of one assignment.
func (s *Service) Update(c *fiber.Ctx) error {
	var req UpdateRequest
	if ok, err := handler.Bind(c, s.deps.Validator, &req); !ok {
		return err
	}

	upd := acl.AssignmentUpdate{
		Role:        req.Role,
		IsActive:    req.IsActive,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
	}

	a, entry, err := s.deps.Store.UpdateUserRole(auth.UserID(c), c.Params("userId"), c.Params("id"), upd)
	if err != nil {
		return handler.StoreError(c, err)
	}

	return c.JSON(UpdateResponse{Assignment: a, AuditLog: entry})
}

// User shows a user's assignments and effective permissions.
func (s *Service) User(c *fiber.Ctx) error {
	userID := c.Params("userId")

	assignments := s.deps.Store.UserAssignments(userID)
	if assignments == nil {
		assignments = []acl.Assignment{}
	}

	return c.JSON(UserResponse{
		UserID:      userID,
		Assignments: assignments,
		Permissions: s.deps.Store.UserPermissions(userID),
	})
}
