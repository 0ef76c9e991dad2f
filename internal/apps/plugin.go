package apps

import (
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin defines the interface every domain module must implement.
type Plugin interface {
	// ID returns the unique module identifier used in logs.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts module routes on the given Fiber group.
	// The group is prefixed with /api and carries no auth middleware;
	// modules attach JWT/principal/admin checks per route.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}

// AdminPlugin extends Plugin with admin-specific route registration.
type AdminPlugin interface {
	Plugin

	// RegisterAdminRoutes mounts admin-only routes on the given Fiber group.
	// The group has JWT, principal and admin middleware applied.
	RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}

// Seeder is implemented by plugins that load initial data after migration.
type Seeder interface {
	Seed(db *gorm.DB, cfg *config.Config) error
}
