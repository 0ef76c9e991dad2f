package catalog

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Smartphone struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Brand     string     `gorm:"size:255;not null;index" json:"brand"`
	ModelName string     `gorm:"size:255;not null;index" json:"model_name"`
	Price     float64    `gorm:"not null;index" json:"price"`
	RAM       int        `gorm:"column:ram;not null;index" json:"ram"`
	Storage   int        `gorm:"not null;index" json:"storage"`
	Battery   int        `gorm:"not null" json:"battery"`
	Rating    float64    `gorm:"not null;index" json:"rating"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// ImportRun is the audit record written once per CSV import.
type ImportRun struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Filename         string         `gorm:"size:255" json:"filename"`
	ActorEmail       string         `gorm:"size:255;index" json:"actor_email"`
	Inserted         int            `gorm:"not null;default:0" json:"inserted"`
	SkippedDuplicate int            `gorm:"not null;default:0" json:"skipped_duplicate"`
	SkippedInvalid   int            `gorm:"not null;default:0" json:"skipped_invalid"`
	TotalRows        int            `gorm:"not null;default:0" json:"total_rows"`
	Outcomes         datatypes.JSON `json:"outcomes"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
}

// SmartphoneRequest is the create/update payload. Every field is required;
// pointers distinguish an omitted field from a zero value.
type SmartphoneRequest struct {
	Brand     *string  `json:"brand"`
	ModelName *string  `json:"model_name"`
	Price     *float64 `json:"price"`
	RAM       *int     `json:"ram"`
	Storage   *int     `json:"storage"`
	Battery   *int     `json:"battery"`
	Rating    *float64 `json:"rating"`
}

// ToSmartphone checks that every field is present and the values satisfy
// the domain constraints.
func (r *SmartphoneRequest) ToSmartphone() (*Smartphone, error) {
	switch {
	case r.Brand == nil:
		return nil, missingField("brand")
	case r.ModelName == nil:
		return nil, missingField("model_name")
	case r.Price == nil:
		return nil, missingField("price")
	case r.RAM == nil:
		return nil, missingField("ram")
	case r.Storage == nil:
		return nil, missingField("storage")
	case r.Battery == nil:
		return nil, missingField("battery")
	case r.Rating == nil:
		return nil, missingField("rating")
	}

	phone := &Smartphone{
		Brand:     strings.TrimSpace(*r.Brand),
		ModelName: strings.TrimSpace(*r.ModelName),
		Price:     *r.Price,
		RAM:       *r.RAM,
		Storage:   *r.Storage,
		Battery:   *r.Battery,
		Rating:    *r.Rating,
	}
	if err := validateSmartphone(phone); err != nil {
		return nil, err
	}
	return phone, nil
}

func validateSmartphone(p *Smartphone) error {
	switch {
	case p.Brand == "":
		return &ValidationError{Field: "brand", Message: "must not be empty"}
	case p.ModelName == "":
		return &ValidationError{Field: "model_name", Message: "must not be empty"}
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0:
		return &ValidationError{Field: "price", Message: "must be a non-negative number"}
	case p.RAM <= 0:
		return &ValidationError{Field: "ram", Message: "must be positive"}
	case p.Storage <= 0:
		return &ValidationError{Field: "storage", Message: "must be positive"}
	case p.Battery <= 0:
		return &ValidationError{Field: "battery", Message: "must be positive"}
	case math.IsNaN(p.Rating) || p.Rating < 0 || p.Rating > 5:
		return &ValidationError{Field: "rating", Message: "must be between 0 and 5"}
	}
	return nil
}

func missingField(name string) error {
	return &ValidationError{Field: name, Message: "field required"}
}
