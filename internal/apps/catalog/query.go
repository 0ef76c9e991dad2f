package catalog

import (
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultLimit     = 100
	DefaultSortBy    = "created_at"
	DefaultSortOrder = "desc"
)

// sortColumns is the allow-list of sortable fields and their columns.
var sortColumns = map[string]string{
	"brand":      "brand",
	"model_name": "model_name",
	"price":      "price",
	"ram":        "ram",
	"storage":    "storage",
	"battery":    "battery",
	"rating":     "rating",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// ListFilter is a validated catalog query. Nil bounds and empty strings
// add no constraint.
type ListFilter struct {
	Search string
	Brand  string

	MinPrice, MaxPrice     *float64
	MinRAM, MaxRAM         *int
	MinStorage, MaxStorage *int
	MinRating, MaxRating   *float64

	SortBy   string
	SortDesc bool
	Skip     int
	Limit    int
}

// ParseListFilter reads query parameters through get, which returns "" for
// an absent key. limit is clamped to maxLimit when maxLimit is positive.
func ParseListFilter(get func(string) string, maxLimit int) (ListFilter, error) {
	f := ListFilter{
		Search: get("search"),
		Brand:  get("brand"),
		Limit:  DefaultLimit,
	}

	var err error
	if f.MinPrice, err = optFloat(get, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = optFloat(get, "max_price"); err != nil {
		return f, err
	}
	if f.MinRAM, err = optInt(get, "min_ram"); err != nil {
		return f, err
	}
	if f.MaxRAM, err = optInt(get, "max_ram"); err != nil {
		return f, err
	}
	if f.MinStorage, err = optInt(get, "min_storage"); err != nil {
		return f, err
	}
	if f.MaxStorage, err = optInt(get, "max_storage"); err != nil {
		return f, err
	}
	if f.MinRating, err = optFloat(get, "min_rating"); err != nil {
		return f, err
	}
	if f.MaxRating, err = optFloat(get, "max_rating"); err != nil {
		return f, err
	}

	f.SortBy = get("sort_by")
	if f.SortBy == "" {
		f.SortBy = DefaultSortBy
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		return f, &ValidationError{Field: "sort_by", Message: "unsupported sort field " + strconv.Quote(f.SortBy)}
	}

	order := strings.ToLower(get("sort_order"))
	if order == "" {
		order = DefaultSortOrder
	}
	switch order {
	case "asc":
		f.SortDesc = false
	case "desc":
		f.SortDesc = true
	default:
		return f, &ValidationError{Field: "sort_order", Message: "must be asc or desc"}
	}

	if skip, err := optInt(get, "skip"); err != nil {
		return f, err
	} else if skip != nil {
		if *skip < 0 {
			return f, &ValidationError{Field: "skip", Message: "must not be negative"}
		}
		f.Skip = *skip
	}
	if limit, err := optInt(get, "limit"); err != nil {
		return f, err
	} else if limit != nil {
		if *limit < 0 {
			return f, &ValidationError{Field: "limit", Message: "must not be negative"}
		}
		f.Limit = *limit
	}
	if maxLimit > 0 && f.Limit > maxLimit {
		f.Limit = maxLimit
	}

	return f, nil
}

// Filters applies the search and range predicates, combined with AND.
func (f ListFilter) Filters(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		pattern := likePattern(f.Search)
		db = db.Where("(LOWER(brand) LIKE LOWER(?) ESCAPE '\\' OR LOWER(model_name) LIKE LOWER(?) ESCAPE '\\')", pattern, pattern)
	}
	if f.Brand != "" {
		db = db.Where("LOWER(brand) LIKE LOWER(?) ESCAPE '\\'", likePattern(f.Brand))
	}
	if f.MinPrice != nil {
		db = db.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinRAM != nil {
		db = db.Where("ram >= ?", *f.MinRAM)
	}
	if f.MaxRAM != nil {
		db = db.Where("ram <= ?", *f.MaxRAM)
	}
	if f.MinStorage != nil {
		db = db.Where("storage >= ?", *f.MinStorage)
	}
	if f.MaxStorage != nil {
		db = db.Where("storage <= ?", *f.MaxStorage)
	}
	if f.MinRating != nil {
		db = db.Where("rating >= ?", *f.MinRating)
	}
	if f.MaxRating != nil {
		db = db.Where("rating <= ?", *f.MaxRating)
	}
	return db
}

// Order sorts by the chosen column with id as the tiebreaker, so pages
// never overlap or skip rows.
func (f ListFilter) Order(db *gorm.DB) *gorm.DB {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns[DefaultSortBy]
	}
	return db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: f.SortDesc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}

func (f ListFilter) Page(db *gorm.DB) *gorm.DB {
	return db.Offset(f.Skip).Limit(f.Limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func optFloat(get func(string) string, key string) (*float64, error) {
	raw := strings.TrimSpace(get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &ValidationError{Field: key, Message: "must be a number"}
	}
	return &v, nil
}

func optInt(get func(string) string, key string) (*int, error) {
	raw := strings.TrimSpace(get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &ValidationError{Field: key, Message: "must be an integer"}
	}
	return &v, nil
}
