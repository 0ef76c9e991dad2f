package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/csvio"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const importHistoryLimit = 50

type CatalogHandler struct {
	catalog  *CatalogService
	imports  *ImportService
	exports  *ExportService
	maxLimit int
}

func NewCatalogHandler(catalog *CatalogService, imports *ImportService, exports *ExportService, maxLimit int) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, imports: imports, exports: exports, maxLimit: maxLimit}
}

func (h *CatalogHandler) List(c *fiber.Ctx) error {
	filter, err := ParseListFilter(func(key string) string { return c.Query(key) }, h.maxLimit)
	if err != nil {
		return respondError(c, err)
	}
	phones, err := h.catalog.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(phones)
}

func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	phone, err := h.catalog.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(phone)
}

func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	var req SmartphoneRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, &ValidationError{Message: "Invalid request body"})
	}
	phone, err := h.catalog.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(phone)
}

// Update resolves the record before checking admin rights, so an unknown
// id is reported as 404 to every authenticated caller.
func (h *CatalogHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.catalog.Get(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	if err := requireAdmin(c); err != nil {
		return respondError(c, err)
	}

	var req SmartphoneRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, &ValidationError{Message: "Invalid request body"})
	}
	phone, err := h.catalog.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(phone)
}

func (h *CatalogHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.catalog.Get(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	if err := requireAdmin(c); err != nil {
		return respondError(c, err)
	}

	if err := h.catalog.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Smartphone deleted successfully"})
}

func (h *CatalogHandler) Brands(c *fiber.Ctx) error {
	brands, err := h.catalog.Brands(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(brands)
}

func (h *CatalogHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.catalog.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *CatalogHandler) ImportCSV(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, &ValidationError{Field: "file", Message: "A CSV file is required"})
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return respondError(c, &ValidationError{Field: "file", Message: "File must be a CSV"})
	}

	f, err := fh.Open()
	if err != nil {
		return respondError(c, fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return respondError(c, fmt.Errorf("read upload: %w", err))
	}

	opts := ImportOptions{Filename: fh.Filename}
	if user, ok := middleware.GetPrincipal(c); ok {
		opts.ActorEmail = user.Email
	}

	result, err := h.imports.Import(c.UserContext(), data, opts)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":            fmt.Sprintf("Successfully imported %d smartphones", result.Inserted),
		"imported_count":     result.Inserted,
		"skipped_duplicates": result.SkippedDuplicate,
		"skipped_invalid":    result.SkippedInvalid,
		"import_id":          result.RunID,
	})
}

func (h *CatalogHandler) ExportCSV(c *fiber.Ctx) error {
	body, err := h.exports.Export(c.UserContext())
	if err != nil {
		slog.Error("csv export failed", "error", err, "action", "csv_export", "request_id", c.Locals("requestid"))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Error exporting data",
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+ExportFilename)
	return c.Send(body)
}

func (h *CatalogHandler) ImportHistory(c *fiber.Ctx) error {
	runs, err := h.imports.RecentRuns(c.UserContext(), importHistoryLimit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(runs)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, &ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return uint(id), nil
}

func requireAdmin(c *fiber.Ctx) error {
	user, ok := middleware.GetPrincipal(c)
	if !ok || !user.IsAdmin {
		return services.ErrForbidden
	}
	return nil
}

// respondError maps domain errors to the JSON error envelope.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *ValidationError
	var schemaErr *csvio.SchemaError
	var parseErr *csv.ParseError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: validationErr.Error()})
	case errors.As(err, &schemaErr), errors.As(err, &parseErr),
		errors.Is(err, csvio.ErrEmptyInput), errors.Is(err, csvio.ErrInvalidEncoding):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Error processing CSV file: " + err.Error(),
		})
	case errors.Is(err, ErrSmartphoneNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Smartphone not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: true, Message: "Not enough permissions"})
	}

	slog.Error("catalog request failed", "error", err, "path", c.Path(), "request_id", c.Locals("requestid"))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
