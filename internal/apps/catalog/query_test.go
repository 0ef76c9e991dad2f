package catalog

import (
	"errors"
	"testing"
)

func getter(params map[string]string) func(string) string {
	return func(key string) string { return params[key] }
}

// =============================================================================
// ParseListFilter
// =============================================================================

func TestParseListFilter_Defaults(t *testing.T) {
	f, err := ParseListFilter(getter(nil), 1000)
	if err != nil {
		t.Fatalf("ParseListFilter() error = %v", err)
	}
	if f.SortBy != "created_at" || !f.SortDesc || f.Skip != 0 || f.Limit != 100 {
		t.Errorf("unexpected defaults: %+v", f)
	}
	if f.MinPrice != nil || f.MaxRAM != nil || f.Search != "" {
		t.Errorf("omitted filters should stay unset: %+v", f)
	}
}

func TestParseListFilter_Values(t *testing.T) {
	f, err := ParseListFilter(getter(map[string]string{
		"search":      "pro",
		"brand":       "apple",
		"min_price":   "199.5",
		"max_price":   "1000",
		"min_ram":     "8",
		"max_storage": "512",
		"min_rating":  "4",
		"sort_by":     "price",
		"sort_order":  "ASC",
		"skip":        "10",
		"limit":       "5000",
	}), 1000)
	if err != nil {
		t.Fatalf("ParseListFilter() error = %v", err)
	}
	if *f.MinPrice != 199.5 || *f.MaxPrice != 1000 || *f.MinRAM != 8 || *f.MaxStorage != 512 || *f.MinRating != 4 {
		t.Errorf("bounds not parsed: %+v", f)
	}
	if f.SortBy != "price" || f.SortDesc {
		t.Errorf("sort = %s desc=%v, want price asc", f.SortBy, f.SortDesc)
	}
	if f.Skip != 10 || f.Limit != 1000 {
		t.Errorf("skip/limit = %d/%d, want 10/1000 (clamped)", f.Skip, f.Limit)
	}
}

func TestParseListFilter_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		field  string
	}{
		{"unknown sort field", map[string]string{"sort_by": "unknown_field"}, "sort_by"},
		{"id is not sortable", map[string]string{"sort_by": "id"}, "sort_by"},
		{"bad sort order", map[string]string{"sort_order": "sideways"}, "sort_order"},
		{"non-numeric price", map[string]string{"min_price": "abc"}, "min_price"},
		{"nan price", map[string]string{"max_price": "NaN"}, "max_price"},
		{"fractional ram", map[string]string{"min_ram": "7.5"}, "min_ram"},
		{"non-numeric rating", map[string]string{"max_rating": "five"}, "max_rating"},
		{"negative skip", map[string]string{"skip": "-1"}, "skip"},
		{"negative limit", map[string]string{"limit": "-5"}, "limit"},
		{"non-numeric limit", map[string]string{"limit": "ten"}, "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListFilter(getter(tt.params), 1000)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestLikePattern_EscapesMetacharacters(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"iphone", "%iphone%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
