package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/archive"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/csvio"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/metrics"
	"gorm.io/gorm"
)

// --- Export Service ---

// ExportColumns is the fixed export header, in order.
var ExportColumns = []string{"id", "brand", "model_name", "price", "ram", "storage", "battery", "rating", "created_at"}

const (
	ExportFilename  = "smartphones_export.csv"
	exportBatchSize = 500
	archiveTimeout  = 10 * time.Second
)

type ExportService struct {
	db             *gorm.DB
	archiver       archive.Archiver
	metrics        *metrics.Metrics
	archiveTimeout time.Duration
}

// NewExportService builds the exporter. archiver may be nil.
func NewExportService(db *gorm.DB, archiver archive.Archiver, m *metrics.Metrics) *ExportService {
	return &ExportService{db: db, archiver: archiver, metrics: m, archiveTimeout: archiveTimeout}
}

// Export renders every record in id order. When an archiver is configured
// the file is also uploaded; upload failures are logged, not returned. The
// upload runs on its own deadline and ignores cancellation of ctx.
func (s *ExportService) Export(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	w, err := csvio.NewWriter(&buf, ExportColumns)
	if err != nil {
		return nil, err
	}

	var batch []Smartphone
	err = s.db.WithContext(ctx).Model(&Smartphone{}).
		FindInBatches(&batch, exportBatchSize, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				if err := w.Write(exportRecord(&batch[i])); err != nil {
					return err
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("export smartphones: %w", err)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush export: %w", err)
	}

	s.metrics.ExportDone()
	s.archive(ctx, buf.Bytes())
	return buf.Bytes(), nil
}

func (s *ExportService) archive(ctx context.Context, body []byte) {
	if s.archiver == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.archiveTimeout)
	defer cancel()

	key, err := s.archiver.Archive(actx, "smartphones_export", body, "text/csv")
	if err != nil {
		slog.Error("export archive failed", "error", err, "action", "export_archive")
		return
	}
	slog.Info("export archived", "key", key, "bytes", len(body))
}

func exportRecord(p *Smartphone) []string {
	created := p.CreatedAt
	return []string{
		strconv.FormatUint(uint64(p.ID), 10),
		p.Brand,
		p.ModelName,
		csvio.FormatFloat(p.Price),
		strconv.Itoa(p.RAM),
		strconv.Itoa(p.Storage),
		strconv.Itoa(p.Battery),
		csvio.FormatFloat(p.Rating),
		csvio.FormatTime(&created),
	}
}
