package catalog

import (
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/archive"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CatalogPlugin struct {
	auth     *services.AuthService
	metrics  *metrics.Metrics
	archiver archive.Archiver

	handler *CatalogHandler
}

// New builds the catalog module. metrics and archiver may be nil.
func New(auth *services.AuthService, m *metrics.Metrics, archiver archive.Archiver) *CatalogPlugin {
	return &CatalogPlugin{auth: auth, metrics: m, archiver: archiver}
}

func (p *CatalogPlugin) ID() string { return "catalog" }

func (p *CatalogPlugin) Models() []interface{} {
	return []interface{}{
		&Smartphone{},
		&ImportRun{},
	}
}

func (p *CatalogPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := p.handlerFor(db, cfg)

	authenticated := []fiber.Handler{middleware.JWTProtected(cfg), middleware.LoadPrincipal(p.auth)}
	admin := chain(authenticated, middleware.AdminRequired())

	phones := router.Group("/smartphones")

	// Public reads
	phones.Get("/", h.List)
	phones.Get("/brands/list", h.Brands)
	phones.Get("/stats/summary", h.Stats)

	// Bulk CSV (admin)
	phones.Post("/import-csv", chain(admin, h.ImportCSV)...)
	phones.Get("/export/csv", chain(admin, h.ExportCSV)...)

	phones.Get("/:id", h.Get)

	// Mutations. PUT and DELETE check admin rights inside the handler,
	// after the record lookup.
	phones.Post("/", chain(admin, h.Create)...)
	phones.Put("/:id", chain(authenticated, h.Update)...)
	phones.Delete("/:id", chain(authenticated, h.Delete)...)
}

func (p *CatalogPlugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := p.handlerFor(db, cfg)
	router.Get("/imports", h.ImportHistory)
}

func (p *CatalogPlugin) handlerFor(db *gorm.DB, cfg *config.Config) *CatalogHandler {
	if p.handler == nil {
		p.handler = NewCatalogHandler(
			NewCatalogService(db, p.metrics),
			NewImportService(db, p.metrics),
			NewExportService(db, p.archiver, p.metrics),
			cfg.CatalogMaxLimit,
		)
	}
	return p.handler
}

// chain returns a fresh slice so callers never share a backing array.
func chain(mw []fiber.Handler, h ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(mw)+len(h))
	out = append(out, mw...)
	return append(out, h...)
}
