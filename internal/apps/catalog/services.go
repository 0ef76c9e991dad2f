package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/metrics"
	"gorm.io/gorm"
)

// --- Catalog Service ---

type Stats struct {
	TotalPhones   int64   `json:"total_phones"`
	AveragePrice  float64 `json:"average_price"`
	AverageRating float64 `json:"average_rating"`
}

type statsRow struct {
	Total     int64
	AvgPrice  *float64
	AvgRating *float64
}

type CatalogService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCatalogService(db *gorm.DB, m *metrics.Metrics) *CatalogService {
	return &CatalogService{db: db, metrics: m, now: time.Now}
}

func (s *CatalogService) List(ctx context.Context, f ListFilter) ([]Smartphone, error) {
	phones := make([]Smartphone, 0)
	err := s.db.WithContext(ctx).Model(&Smartphone{}).
		Scopes(f.Filters, f.Order, f.Page).
		Find(&phones).Error
	if err != nil {
		return nil, fmt.Errorf("list smartphones: %w", err)
	}
	s.metrics.CatalogQuery()
	return phones, nil
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*Smartphone, error) {
	var phone Smartphone
	if err := s.db.WithContext(ctx).First(&phone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSmartphoneNotFound
		}
		return nil, fmt.Errorf("get smartphone %d: %w", id, err)
	}
	return &phone, nil
}

func (s *CatalogService) Create(ctx context.Context, req *SmartphoneRequest) (*Smartphone, error) {
	phone, err := req.ToSmartphone()
	if err != nil {
		return nil, err
	}
	phone.CreatedAt = s.now().UTC()
	if err := s.db.WithContext(ctx).Create(phone).Error; err != nil {
		return nil, fmt.Errorf("create smartphone: %w", err)
	}
	return phone, nil
}

// Update replaces every mutable field of the record and stamps updated_at.
func (s *CatalogService) Update(ctx context.Context, id uint, req *SmartphoneRequest) (*Smartphone, error) {
	next, err := req.ToSmartphone()
	if err != nil {
		return nil, err
	}

	var phone Smartphone
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&phone, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSmartphoneNotFound
			}
			return err
		}

		now := s.now().UTC()
		phone.Brand = next.Brand
		phone.ModelName = next.ModelName
		phone.Price = next.Price
		phone.RAM = next.RAM
		phone.Storage = next.Storage
		phone.Battery = next.Battery
		phone.Rating = next.Rating
		phone.UpdatedAt = &now
		return tx.Save(&phone).Error
	})
	if err != nil {
		if errors.Is(err, ErrSmartphoneNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update smartphone %d: %w", id, err)
	}
	return &phone, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Smartphone{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete smartphone %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSmartphoneNotFound
	}
	return nil
}

// Brands returns the distinct brands in ascending order.
func (s *CatalogService) Brands(ctx context.Context) ([]string, error) {
	brands := make([]string, 0)
	err := s.db.WithContext(ctx).Model(&Smartphone{}).
		Distinct().
		Order("brand ASC").
		Pluck("brand", &brands).Error
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

func (s *CatalogService) Stats(ctx context.Context) (*Stats, error) {
	var row statsRow
	err := s.db.WithContext(ctx).Model(&Smartphone{}).
		Select("COUNT(*) AS total, AVG(price) AS avg_price, AVG(rating) AS avg_rating").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("summarize smartphones: %w", err)
	}

	stats := &Stats{TotalPhones: row.Total}
	if row.AvgPrice != nil {
		stats.AveragePrice = round2(*row.AvgPrice)
	}
	if row.AvgRating != nil {
		stats.AverageRating = round2(*row.AvgRating)
	}
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
