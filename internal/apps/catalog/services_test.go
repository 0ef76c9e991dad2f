package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/database"
	"gorm.io/gorm"
)

// =============================================================================
// Helpers
// =============================================================================

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := database.MigrateModels(db, New(nil, nil, nil).Models()); err != nil {
		t.Fatalf("MigrateModels() error = %v", err)
	}
	return db
}

var fixturePhones = []Smartphone{
	{Brand: "Apple", ModelName: "iPhone 15 Pro", Price: 999.99, RAM: 8, Storage: 128, Battery: 3274, Rating: 4.5},
	{Brand: "Apple", ModelName: "iPhone 15 Pro Max", Price: 1199.99, RAM: 8, Storage: 256, Battery: 4422, Rating: 4.7},
	{Brand: "Apple", ModelName: "iPhone SE", Price: 429, RAM: 4, Storage: 64, Battery: 2018, Rating: 3.9},
	{Brand: "Samsung", ModelName: "Galaxy S24 Ultra", Price: 1199.99, RAM: 12, Storage: 256, Battery: 5000, Rating: 4.6},
	{Brand: "Samsung", ModelName: "Galaxy A55", Price: 449, RAM: 8, Storage: 128, Battery: 5000, Rating: 4.1},
	{Brand: "Google", ModelName: "Pixel 8 Pro", Price: 899.99, RAM: 12, Storage: 128, Battery: 5050, Rating: 4.4},
	{Brand: "Google", ModelName: "Pixel 8a", Price: 499, RAM: 8, Storage: 128, Battery: 4492, Rating: 4.2},
	{Brand: "OnePlus", ModelName: "12 Pro", Price: 799.99, RAM: 12, Storage: 256, Battery: 5400, Rating: 4.3},
	{Brand: "Xiaomi", ModelName: "14 Ultra", Price: 699.99, RAM: 16, Storage: 512, Battery: 5300, Rating: 4.2},
	{Brand: "Nothing", ModelName: "Phone (2)", Price: 599, RAM: 12, Storage: 256, Battery: 4700, Rating: 4.0},
	{Brand: "Fairphone", ModelName: "5", Price: 699, RAM: 8, Storage: 256, Battery: 4200, Rating: 3.8},
	{Brand: "Asus", ModelName: "Zenfone 10", Price: 699.99, RAM: 8, Storage: 128, Battery: 4300, Rating: 4.2},
}

func seedFixtures(t *testing.T, svc *CatalogService) []Smartphone {
	t.Helper()
	out := make([]Smartphone, 0, len(fixturePhones))
	for _, p := range fixturePhones {
		created, err := svc.Create(context.Background(), requestFor(p))
		if err != nil {
			t.Fatalf("Create(%s %s) error = %v", p.Brand, p.ModelName, err)
		}
		out = append(out, *created)
	}
	return out
}

func requestFor(p Smartphone) *SmartphoneRequest {
	return &SmartphoneRequest{
		Brand:     &p.Brand,
		ModelName: &p.ModelName,
		Price:     &p.Price,
		RAM:       &p.RAM,
		Storage:   &p.Storage,
		Battery:   &p.Battery,
		Rating:    &p.Rating,
	}
}

func ids(phones []Smartphone) []uint {
	out := make([]uint, len(phones))
	for i, p := range phones {
		out[i] = p.ID
	}
	return out
}

func sortedIDs(phones []Smartphone) []uint {
	out := ids(phones)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustFilter(t *testing.T, params map[string]string) ListFilter {
	t.Helper()
	f, err := ParseListFilter(getter(params), 1000)
	if err != nil {
		t.Fatalf("ParseListFilter(%v) error = %v", params, err)
	}
	return f
}

// matches is the reference predicate for the filter intersection.
func matches(p Smartphone, f ListFilter) bool {
	contains := func(s, sub string) bool { return strings.Contains(strings.ToLower(s), strings.ToLower(sub)) }
	if f.Search != "" && !contains(p.Brand, f.Search) && !contains(p.ModelName, f.Search) {
		return false
	}
	if f.Brand != "" && !contains(p.Brand, f.Brand) {
		return false
	}
	switch {
	case f.MinPrice != nil && p.Price < *f.MinPrice,
		f.MaxPrice != nil && p.Price > *f.MaxPrice,
		f.MinRAM != nil && p.RAM < *f.MinRAM,
		f.MaxRAM != nil && p.RAM > *f.MaxRAM,
		f.MinStorage != nil && p.Storage < *f.MinStorage,
		f.MaxStorage != nil && p.Storage > *f.MaxStorage,
		f.MinRating != nil && p.Rating < *f.MinRating,
		f.MaxRating != nil && p.Rating > *f.MaxRating:
		return false
	}
	return true
}

// =============================================================================
// List
// =============================================================================

func TestList_FilterIntersection(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	all := seedFixtures(t, svc)

	cases := []map[string]string{
		{},
		{"search": "pro"},
		{"search": "PIXEL"},
		{"brand": "apple"},
		{"brand": "sung", "min_ram": "10"},
		{"min_price": "500", "max_price": "900"},
		{"min_ram": "8", "max_ram": "8", "min_storage": "256"},
		{"min_rating": "4.2", "max_rating": "4.5", "search": "p"},
		{"min_price": "1000", "max_price": "100"},
		{"max_storage": "128", "brand": "google", "min_rating": "4.3"},
		{"search": "zzz"},
	}

	for _, params := range cases {
		f := mustFilter(t, params)
		got, err := svc.List(context.Background(), f)
		if err != nil {
			t.Fatalf("List(%v) error = %v", params, err)
		}

		var want []Smartphone
		for _, p := range all {
			if matches(p, f) {
				want = append(want, p)
			}
		}
		if !equalIDs(sortedIDs(got), sortedIDs(want)) {
			t.Errorf("List(%v) ids = %v, want %v", params, sortedIDs(got), sortedIDs(want))
		}
	}
}

func TestList_MinPriceScenario(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	seedFixtures(t, svc)

	got, err := svc.List(context.Background(), mustFilter(t, map[string]string{"min_price": "1000"}))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d phones, want 2", len(got))
	}
	for _, p := range got {
		if p.Price < 1000 {
			t.Errorf("%s %s price %v below min_price", p.Brand, p.ModelName, p.Price)
		}
	}
}

func TestList_SearchIsCaseInsensitive(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	seedFixtures(t, svc)

	got, err := svc.List(context.Background(), mustFilter(t, map[string]string{"search": "iphone"}))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d phones, want 3 iPhones", len(got))
	}
	for _, p := range got {
		if !strings.Contains(p.ModelName, "iPhone") {
			t.Errorf("unexpected match %q", p.ModelName)
		}
	}
}

func TestList_SearchTreatsWildcardsLiterally(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	seedFixtures(t, svc)

	for _, term := range []string{"%", "_"} {
		got, err := svc.List(context.Background(), mustFilter(t, map[string]string{"search": term}))
		if err != nil {
			t.Fatalf("List(%q) error = %v", term, err)
		}
		if len(got) != 0 {
			t.Errorf("search %q matched %d phones, want 0", term, len(got))
		}
	}
}

func TestList_PaginationConcatenation(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	seedFixtures(t, svc)
	ctx := context.Background()

	for col := range sortColumns {
		for _, order := range []string{"asc", "desc"} {
			params := map[string]string{"sort_by": col, "sort_order": order}
			full, err := svc.List(ctx, mustFilter(t, params))
			if err != nil {
				t.Fatalf("List(%v) error = %v", params, err)
			}

			var paged []Smartphone
			for skip := 0; skip < len(full)+5; skip += 5 {
				f := mustFilter(t, params)
				f.Skip, f.Limit = skip, 5
				page, err := svc.List(ctx, f)
				if err != nil {
					t.Fatalf("List(page %d) error = %v", skip, err)
				}
				paged = append(paged, page...)
			}

			if !equalIDs(ids(paged), ids(full)) {
				t.Errorf("sort %s %s: paged %v != full %v", col, order, ids(paged), ids(full))
			}
		}
	}
}

func TestList_SortOrder(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	created := seedFixtures(t, svc)

	tests := []struct {
		sortBy, order string
		key           func(Smartphone) float64
	}{
		{"price", "asc", func(p Smartphone) float64 { return p.Price }},
		{"price", "desc", func(p Smartphone) float64 { return p.Price }},
		{"battery", "desc", func(p Smartphone) float64 { return float64(p.Battery) }},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy+" "+tt.order, func(t *testing.T) {
			got, err := svc.List(context.Background(), mustFilter(t, map[string]string{"sort_by": tt.sortBy, "sort_order": tt.order}))
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(created) {
				t.Fatalf("got %d records, want %d", len(got), len(created))
			}
			for i := 1; i < len(got); i++ {
				prev, cur := tt.key(got[i-1]), tt.key(got[i])
				outOfOrder := prev > cur
				if tt.order == "desc" {
					outOfOrder = prev < cur
				}
				// Ties always break on ascending id.
				if outOfOrder || (prev == cur && got[i-1].ID > got[i].ID) {
					t.Fatalf("not sorted by %s %s, id asc at %d: %+v then %+v", tt.sortBy, tt.order, i, got[i-1], got[i])
				}
			}
		})
	}
}

func TestList_DescTiesKeepIDAscending(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	created := seedFixtures(t, svc)

	got, err := svc.List(context.Background(), mustFilter(t, map[string]string{"sort_by": "battery", "sort_order": "desc", "brand": "samsung"}))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	// Both Samsung fixtures carry a 5000 mAh battery.
	want := []uint{created[3].ID, created[4].ID}
	if !equalIDs(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
}

// =============================================================================
// CRUD
// =============================================================================

func TestCreate_Validation(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	base := fixturePhones[0]

	tests := []struct {
		name   string
		mutate func(r *SmartphoneRequest)
		field  string
	}{
		{"missing brand", func(r *SmartphoneRequest) { r.Brand = nil }, "brand"},
		{"missing rating", func(r *SmartphoneRequest) { r.Rating = nil }, "rating"},
		{"blank model", func(r *SmartphoneRequest) { s := "   "; r.ModelName = &s }, "model_name"},
		{"negative price", func(r *SmartphoneRequest) { v := -1.0; r.Price = &v }, "price"},
		{"zero ram", func(r *SmartphoneRequest) { v := 0; r.RAM = &v }, "ram"},
		{"rating above five", func(r *SmartphoneRequest) { v := 5.1; r.Rating = &v }, "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestFor(base)
			tt.mutate(req)
			_, err := svc.Create(context.Background(), req)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("Create() error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestCreate_TrimsAndStamps(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	p := fixturePhones[0]
	p.Brand = "  Apple "
	created, err := svc.Create(context.Background(), requestFor(p))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 || created.Brand != "Apple" {
		t.Errorf("unexpected record: %+v", created)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt != nil {
		t.Errorf("created_at = %v, updated_at = %v", created.CreatedAt, created.UpdatedAt)
	}
}

func TestUpdate_ReplacesAndStamps(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	ctx := context.Background()
	created, _ := svc.Create(ctx, requestFor(fixturePhones[0]))

	next := fixturePhones[1]
	updated, err := svc.Update(ctx, created.ID, requestFor(next))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ID != created.ID || updated.ModelName != next.ModelName || updated.Price != next.Price {
		t.Errorf("unexpected update: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Error("updated_at not set")
	}

	reloaded, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if reloaded.Storage != next.Storage || reloaded.UpdatedAt == nil {
		t.Errorf("update not persisted: %+v", reloaded)
	}
}

func TestUpdate_PartialPayloadRejected(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	ctx := context.Background()
	created, _ := svc.Create(ctx, requestFor(fixturePhones[0]))

	price := 10.0
	_, err := svc.Update(ctx, created.ID, &SmartphoneRequest{Price: &price})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("Update() error = %v, want ValidationError", err)
	}
}

func TestNotFound(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, 999); !errors.Is(err, ErrSmartphoneNotFound) {
		t.Errorf("Get() error = %v", err)
	}
	if _, err := svc.Update(ctx, 999, requestFor(fixturePhones[0])); !errors.Is(err, ErrSmartphoneNotFound) {
		t.Errorf("Update() error = %v", err)
	}
	if err := svc.Delete(ctx, 999); !errors.Is(err, ErrSmartphoneNotFound) {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	ctx := context.Background()
	created, _ := svc.Create(ctx, requestFor(fixturePhones[0]))

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrSmartphoneNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
}

// =============================================================================
// Brands & Stats
// =============================================================================

func TestBrands(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	ctx := context.Background()

	empty, err := svc.Brands(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("Brands() on empty store = %v, %v", empty, err)
	}

	seedFixtures(t, svc)
	brands, err := svc.Brands(ctx)
	if err != nil {
		t.Fatalf("Brands() error = %v", err)
	}
	want := []string{"Apple", "Asus", "Fairphone", "Google", "Nothing", "OnePlus", "Samsung", "Xiaomi"}
	if strings.Join(brands, ",") != strings.Join(want, ",") {
		t.Errorf("Brands() = %v, want %v", brands, want)
	}
}

func TestStats(t *testing.T) {
	svc := NewCatalogService(newTestDB(t), nil)
	ctx := context.Background()

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalPhones != 0 || stats.AveragePrice != 0 || stats.AverageRating != 0 {
		t.Errorf("empty stats = %+v", stats)
	}

	for _, p := range fixturePhones[:3] {
		svc.Create(ctx, requestFor(p))
	}
	stats, err = svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	// (999.99 + 1199.99 + 429) / 3 = 876.326..., (4.5 + 4.7 + 3.9) / 3 = 4.366...
	if stats.TotalPhones != 3 || stats.AveragePrice != 876.33 || stats.AverageRating != 4.37 {
		t.Errorf("Stats() = %+v", stats)
	}
}
