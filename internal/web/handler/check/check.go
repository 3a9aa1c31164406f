// Package check serves permission checks and the permission catalog.
package check

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/web/handler"
	"github.com/marketplace-tools/permd/internal/web/middleware/auth"
)

const (
	// RouteCheck evaluates a permission.
	RouteCheck = "/check"
	// RouteCatalog lists the permission catalog.
	RouteCatalog = "/catalog"
)

// Request is the body of POST /check. UserID defaults to the caller.
type Request struct {
	UserID     string         `json:"userId" validate:"max=100"`
	Permission acl.Permission `json:"permission" validate:"required,max=100"`
	ResourceID string         `json:"resourceId" validate:"max=255"`
}

// CatalogResponse is the answer of GET /catalog.
type CatalogResponse struct {
	Permissions []acl.PermissionInfo `json:"permissions"`
}

// Service serves the check routes.
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

	router.Post(RouteCheck, s.Check)
	router.Get(RouteCatalog, s.Catalog)
}

// Check evaluates a permission and records the check.
func (s *Service) Check(c *fiber.Ctx) error {
	var req Request
	if ok, err := handler.Bind(c, s.deps.Validator, &req); !ok {
		return err
	}

	if req.UserID == "" {
		req.UserID = auth.UserID(c)
	}

	record, err := s.deps.Store.CheckPermission(req.UserID, req.Permission, req.ResourceID)
	if err != nil {
		return handler.StoreError(c, err)
	}

	return c.JSON(record)
}

// Catalog lists every permission with its description.
func (s *Service) Catalog(c *fiber.Ctx) error {
	return c.JSON(CatalogResponse{Permissions: acl.Permissions()})
}
