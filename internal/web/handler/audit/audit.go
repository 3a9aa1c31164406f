// Package audit serves the audit trail query.
package audit

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/web/handler"
	"github.com/marketplace-tools/permd/internal/web/middleware/auth"
)

const (
	// RouteAudit lists audit entries.
	RouteAudit = "/audit"

	// DefaultPageSize for pagination.
	DefaultPageSize = 50
	// MaxPageSize clamps the page size upper bound.
	MaxPageSize = acl.DefaultAuditLogSize

	// QueryAction filters on the audit action.
	QueryAction = "action"
	// QueryActor filters on the acting user.
	QueryActor = "actor"
	// QueryTargetUserID filters on the affected user.
	QueryTargetUserID = "targetUserId"
	// QueryLimit is the page size.
	QueryLimit = "limit"
	// QueryOffset is the number of matching entries skipped.
	QueryOffset = "offset"
)

// Response is the answer of GET /audit.
type Response struct {
	Logs    []acl.AuditLogEntry `json:"logs"`
	Total   int                 `json:"total"`
	HasMore bool                `json:"hasMore"`
}

// Service serves the audit route.
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

	router.Get(RouteAudit, auth.RequirePermission(deps.Store, acl.PermAuditView), s.List)
}

// List returns audit entries newest first.
func (s *Service) List(c *fiber.Ctx) error {
	limit := c.QueryInt(QueryLimit, DefaultPageSize)
	switch {
	case limit < 1:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	offset := c.QueryInt(QueryOffset, 0)
	if offset < 0 {
		offset = 0
	}

	filter := acl.AuditFilter{
		Action:       acl.AuditAction(c.Query(QueryAction)),
		Actor:        c.Query(QueryActor),
		TargetUserID: c.Query(QueryTargetUserID),
	}

	logs, total, hasMore := s.deps.Store.AuditLogs(filter, limit, offset)

	return c.JSON(Response{Logs: logs, Total: total, HasMore: hasMore})
}
