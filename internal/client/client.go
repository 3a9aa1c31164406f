// Package client calls a remote permd service and mirrors the results into a local acl store.
package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/web/handler"
	"github.com/marketplace-tools/permd/internal/web/handler/assignment"
	"github.com/marketplace-tools/permd/internal/web/handler/audit"
	"github.com/marketplace-tools/permd/internal/web/handler/check"
)

// ErrBaseURLEmpty is returned when a client is created without a base url.
var ErrBaseURLEmpty = errors.New("client base url can not be empty")

// APIError is a non-2xx answer of the remote service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("permd api: status %d", e.Status)
	}

	return fmt.Sprintf("permd api: status %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// AuditQuery selects audit entries on the remote service.
type AuditQuery struct {
	Filter acl.AuditFilter
	Limit  int
	Offset int
}

// Client calls the permission API. Calls are not retried.
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL authenticating with token.
func New(baseURL, token string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLEmpty
	}

	c := resty.New().
		SetBaseURL(baseURL+handler.RootPath).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetError(&errorBody{})

	if token != "" {
		c.SetAuthToken(token)
	}

	return &Client{http: c}, nil
}

// AssignRole grants role to userID. An empty assignedBy lets the server use the caller.
func (c *Client) AssignRole(ctx context.Context, userID string, role acl.RoleID, assignedBy string, expiresAt *time.Time) (assignment.AssignResponse, error) {
	var out assignment.AssignResponse

	err := c.do(ctx, resty.MethodPost, assignment.RouteAssign, assignment.AssignRequest{
		UserID:     userID,
		Role:       role,
		AssignedBy: assignedBy,
		ExpiresAt:  expiresAt,
	}, nil, &out)

	return out, err
}

// RevokeRole deactivates the assignment with assignmentID.
func (c *Client) RevokeRole(ctx context.Context, userID, assignmentID, revokedBy, reason string) (assignment.RevokeResponse, error) {
	var out assignment.RevokeResponse

	err := c.do(ctx, resty.MethodPost, assignment.RouteRevoke, assignment.RevokeRequest{
		UserID:    userID,
		RoleID:    assignmentID,
		RevokedBy: revokedBy,
		Reason:    reason,
	}, nil, &out)

	return out, err
}

// CheckPermission evaluates perm for userID on the remote service.
func (c *Client) CheckPermission(ctx context.Context, userID string, perm acl.Permission, resourceID string) (acl.PermissionCheck, error) {
	var out acl.PermissionCheck

	err := c.do(ctx, resty.MethodPost, check.RouteCheck, check.Request{
		UserID:     userID,
		Permission: perm,
		ResourceID: resourceID,
	}, nil, &out)

	return out, err
}

// AuditLogs queries the remote audit trail.
func (c *Client) AuditLogs(ctx context.Context, q AuditQuery) (audit.Response, error) {
	var out audit.Response

	params := map[string]string{}
	if q.Filter.Action != "" {
		params[audit.QueryAction] = string(q.Filter.Action)
	}

	if q.Filter.Actor != "" {
		params[audit.QueryActor] = q.Filter.Actor
	}

	if q.Filter.TargetUserID != "" {
		params[audit.QueryTargetUserID] = q.Filter.TargetUserID
	}

	if q.Limit > 0 {
		params[audit.QueryLimit] = strconv.Itoa(q.Limit)
	}

	if q.Offset > 0 {
		params[audit.QueryOffset] = strconv.Itoa(q.Offset)
	}

	err := c.do(ctx, resty.MethodGet, audit.RouteAudit, nil, params, &out)

	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, params map[string]string, out any) error {
	req := c.http.R().SetContext(ctx).SetResult(out)

	if body != nil {
		req.SetBody(body)
	}

	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		if eb, ok := resp.Error().(*errorBody); ok && eb != nil {
			apiErr.Message = eb.Error
		}

		return apiErr
	}

	return nil
}
