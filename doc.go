// Package main provides the entry point of permd, the marketplace permission service.
// It keeps a catalog of roles and their permissions, assigns roles to users, answers
// permission checks and records an audit trail of every assignment change. The state is
// persisted with gorm and exposed through a REST API served by Fiber.
package main
