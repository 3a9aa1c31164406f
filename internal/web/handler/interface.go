package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/config"
)

// Deps carries what a handler needs to serve its routes.
type Deps struct {
	Cfg       *config.Config
	Store     *acl.Store
	Validator *validator.Validate
}

// Service is the interface for a web handler service.
type Service interface {
	Init(router fiber.Router, deps *Deps)
}
