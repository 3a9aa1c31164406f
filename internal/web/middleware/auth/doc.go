// Package auth provides bearer token authentication and permission middleware for the API.
//
// Middleware resolves the "Authorization: Bearer <token>" header through the session
// manager and stores the authenticated user id in fiber.Locals. The Require* handlers then
// ask the acl store whether that user holds the permissions a route needs.
//
// Usage:
//
//	api := app.Group("/api/permissions", authmiddleware.Middleware(sessions))
//	api.Post("/assign", authmiddleware.RequirePermission(store, acl.PermUsersUpdate), h.Assign)
//
// Unauthenticated requests get 401, authenticated requests lacking a permission get 403.
package auth
