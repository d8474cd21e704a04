package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yoockh/bikeshop-agent/internal/storage"
)

const productsJSON = `[
  {"id": 1, "name": "Trailblazer 500", "type": "mountain", "brand": "Ridge", "price_eur": 1899,
   "frame_material": "aluminum", "suspension": "full", "wheel_size": 29, "gears": 12,
   "brakes": "hydraulic disc", "weight_kg": 14.2, "intended_use": ["trail", "off-road"], "color": "green"},
  {"id": 2, "name": "Volt City", "type": "electric", "brand": "Ampere", "price_eur": 2499,
   "frame_material": "aluminum", "suspension": "front", "wheel_size": 28, "gears": 8,
   "brakes": "hydraulic disc", "weight_kg": 22.5, "intended_use": ["commuting"], "color": "grey",
   "motor_power_w": 250, "battery_capacity_wh": 500, "range_km": 90}
]`

const faqText = `Bike Shop FAQ

1. What warranty do you offer?
All frames carry a 5 year warranty.
Components are covered for 2 years.

2. Do you ship to Austria?
Yes, we deliver across the EU.

3. Question without answer?
`

func TestParseProducts(t *testing.T) {
	products, err := ParseProducts(strings.NewReader(productsJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 2 {
		t.Fatalf("len = %d", len(products))
	}
	if products[0].Electric != nil {
		t.Error("mountain bike should have no electric specs")
	}
	e := products[1].Electric
	if e == nil || e.MotorPowerW != 250 || e.BatteryCapacityWh != 500 || e.RangeKM != 90 || e.MaxLoadKG != 0 {
		t.Fatalf("electric specs = %+v", e)
	}
}

func TestParseProductsRejectsDuplicates(t *testing.T) {
	_, err := ParseProducts(strings.NewReader(`[{"id":1,"name":"a"},{"id":1,"name":"b"}]`))
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestParseFAQ(t *testing.T) {
	entries, err := ParseFAQ(strings.NewReader(faqText))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].ID != 1 || entries[0].Question != "What warranty do you offer?" ||
		entries[0].Answer != "All frames carry a 5 year warranty. Components are covered for 2 years." {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Answer != "Yes, we deliver across the EU." {
		t.Fatalf("second entry = %+v", entries[1])
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "product_catalog.json"), []byte(productsJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "faq.txt"), []byte(faqText), 0o600); err != nil {
		t.Fatal(err)
	}

	cat, err := Load(context.Background(), storage.LocalReader{Root: dir}, "product_catalog.json", "faq.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Products) != 2 || len(cat.FAQs) != 2 {
		t.Fatalf("catalog = %d products, %d faqs", len(cat.Products), len(cat.FAQs))
	}

	if _, err := Load(context.Background(), storage.LocalReader{Root: dir}, "missing.json", "faq.txt"); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	products, err := ParseProducts(strings.NewReader(productsJSON))
	if err != nil {
		t.Fatal(err)
	}
	faqs, err := ParseFAQ(strings.NewReader(faqText))
	if err != nil {
		t.Fatal(err)
	}

	var pb, fb strings.Builder
	if err := EncodeProducts(&pb, products); err != nil {
		t.Fatal(err)
	}
	if err := EncodeFAQ(&fb, faqs); err != nil {
		t.Fatal(err)
	}
	var raw []map[string]any
	if err := json.Unmarshal([]byte(pb.String()), &raw); err != nil {
		t.Fatal(err)
	}
	for i, p := range raw {
		if _, nested := p["electric"]; nested {
			t.Errorf("product %d nests electric specs", i)
		}
	}
	if len(raw) != 2 {
		t.Fatalf("encoded %d products", len(raw))
	}
	if _, ok := raw[1]["motor_power_w"]; !ok {
		t.Error("electric product lost motor_power_w")
	}

	backP, err := ParseProducts(strings.NewReader(pb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(backP) != 2 || backP[1].Electric == nil || backP[1].Electric.RangeKM != 90 || backP[0].Electric != nil {
		t.Fatalf("products = %+v", backP)
	}

	backF, err := ParseFAQ(strings.NewReader(fb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(backF) != len(faqs) || backF[0].Answer != faqs[0].Answer {
		t.Fatalf("faqs = %+v", backF)
	}
}
