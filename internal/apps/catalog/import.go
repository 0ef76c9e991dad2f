package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/csvio"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/metrics"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- Import Service ---

// RequiredColumns must all be present in an import header.
var RequiredColumns = []string{"brand", "model_name", "price", "ram", "storage", "battery", "rating"}

type RowStatus string

const (
	RowInserted         RowStatus = "inserted"
	RowSkippedDuplicate RowStatus = "skipped_duplicate"
	RowSkippedInvalid   RowStatus = "skipped_invalid"
)

type RowOutcome struct {
	Line   int       `json:"line"`
	Status RowStatus `json:"status"`
	Reason string    `json:"reason,omitempty"`
	ID     uint      `json:"id,omitempty"`
}

type ImportResult struct {
	RunID            uuid.UUID    `json:"import_id"`
	Inserted         int          `json:"inserted"`
	SkippedDuplicate int          `json:"skipped_duplicate"`
	SkippedInvalid   int          `json:"skipped_invalid"`
	Outcomes         []RowOutcome `json:"outcomes"`
}

type ImportOptions struct {
	Filename   string
	ActorEmail string
}

type ImportService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewImportService(db *gorm.DB, m *metrics.Metrics) *ImportService {
	return &ImportService{db: db, metrics: m, now: time.Now}
}

// Import reconciles a CSV file against the catalog. The header is checked
// before any row is touched; after that each row is inserted in its own
// statement, so a later failure never rolls back earlier inserts.
func (s *ImportService) Import(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	table, err := csvio.Parse(data, RequiredColumns)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	result := &ImportResult{RunID: uuid.New(), Outcomes: make([]RowOutcome, 0, len(table.Rows))}

	for _, row := range table.Rows {
		outcome := RowOutcome{Line: row.Line}

		phone, reason := smartphoneFromRow(row)
		if phone == nil {
			outcome.Status = RowSkippedInvalid
			outcome.Reason = reason
			result.SkippedInvalid++
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}

		var existing Smartphone
		err := db.Select("id").
			Where("brand = ? AND model_name = ?", phone.Brand, phone.ModelName).
			Take(&existing).Error
		switch {
		case err == nil:
			outcome.Status = RowSkippedDuplicate
			outcome.ID = existing.ID
			result.SkippedDuplicate++
		case errors.Is(err, gorm.ErrRecordNotFound):
			phone.CreatedAt = s.now().UTC()
			if err := db.Create(phone).Error; err != nil {
				return nil, fmt.Errorf("insert line %d: %w", row.Line, err)
			}
			outcome.Status = RowInserted
			outcome.ID = phone.ID
			result.Inserted++
		default:
			return nil, fmt.Errorf("lookup line %d: %w", row.Line, err)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	s.metrics.ImportRows(string(RowInserted), result.Inserted)
	s.metrics.ImportRows(string(RowSkippedDuplicate), result.SkippedDuplicate)
	s.metrics.ImportRows(string(RowSkippedInvalid), result.SkippedInvalid)

	s.recordRun(ctx, result, opts, len(table.Rows))

	slog.Info("csv import finished",
		"action", "csv_import",
		"user_email", opts.ActorEmail,
		"filename", opts.Filename,
		"inserted", result.Inserted,
		"skipped_duplicate", result.SkippedDuplicate,
		"skipped_invalid", result.SkippedInvalid,
	)
	return result, nil
}

// recordRun stores the audit row. Failures are logged only.
func (s *ImportService) recordRun(ctx context.Context, result *ImportResult, opts ImportOptions, total int) {
	outcomes, err := json.Marshal(result.Outcomes)
	if err != nil {
		slog.Error("failed to encode import outcomes", "error", err, "action", "csv_import")
		return
	}

	run := ImportRun{
		ID:               result.RunID,
		Filename:         opts.Filename,
		ActorEmail:       opts.ActorEmail,
		Inserted:         result.Inserted,
		SkippedDuplicate: result.SkippedDuplicate,
		SkippedInvalid:   result.SkippedInvalid,
		TotalRows:        total,
		Outcomes:         datatypes.JSON(outcomes),
		CreatedAt:        s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		slog.Error("failed to record import run", "error", err, "action", "csv_import", "import_id", run.ID.String())
	}
}

// RecentRuns returns the newest import runs first.
func (s *ImportService) RecentRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	runs := make([]ImportRun, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	return runs, nil
}

func smartphoneFromRow(row csvio.Row) (*Smartphone, string) {
	price, err := csvio.Float(row.Get("price"))
	if err != nil {
		return nil, "price: " + err.Error()
	}
	rating, err := csvio.Float(row.Get("rating"))
	if err != nil {
		return nil, "rating: " + err.Error()
	}
	ram, err := csvio.Int(row.Get("ram"))
	if err != nil {
		return nil, "ram: " + err.Error()
	}
	storage, err := csvio.Int(row.Get("storage"))
	if err != nil {
		return nil, "storage: " + err.Error()
	}
	battery, err := csvio.Int(row.Get("battery"))
	if err != nil {
		return nil, "battery: " + err.Error()
	}

	phone := &Smartphone{
		Brand:     row.Get("brand"),
		ModelName: row.Get("model_name"),
		Price:     price,
		RAM:       ram,
		Storage:   storage,
		Battery:   battery,
		Rating:    rating,
	}
	if err := validateSmartphone(phone); err != nil {
		return nil, err.Error()
	}
	return phone, ""
}
