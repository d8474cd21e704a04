// Package catalog loads the product catalog and the FAQ knowledge base.
package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/storage"
)

// rawProduct is the on-disk catalog shape, with electric specs inlined.
type rawProduct struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Brand         string   `json:"brand"`
	PriceEUR      int      `json:"price_eur"`
	FrameMaterial string   `json:"frame_material"`
	Suspension    string   `json:"suspension"`
	WheelSize     float64  `json:"wheel_size"`
	Gears         int      `json:"gears"`
	Brakes        string   `json:"brakes"`
	WeightKG      float64  `json:"weight_kg"`
	IntendedUse   []string `json:"intended_use"`
	Color         string   `json:"color"`

	MotorPowerW       *int `json:"motor_power_w"`
	BatteryCapacityWh *int `json:"battery_capacity_wh"`
	RangeKM           *int `json:"range_km"`
	MaxLoadKG         *int `json:"max_load_kg"`
}

func (r rawProduct) product() models.Product {
	p := models.Product{
		ID:            r.ID,
		Name:          r.Name,
		Type:          r.Type,
		Brand:         r.Brand,
		PriceEUR:      r.PriceEUR,
		FrameMaterial: r.FrameMaterial,
		Suspension:    r.Suspension,
		WheelSize:     r.WheelSize,
		Gears:         r.Gears,
		Brakes:        r.Brakes,
		WeightKG:      r.WeightKG,
		IntendedUse:   r.IntendedUse,
		Color:         r.Color,
	}
	if p.IntendedUse == nil {
		p.IntendedUse = []string{}
	}
	if r.MotorPowerW != nil || r.BatteryCapacityWh != nil || r.RangeKM != nil || r.MaxLoadKG != nil {
		p.Electric = &models.ElectricSpecs{
			MotorPowerW:       deref(r.MotorPowerW),
			BatteryCapacityWh: deref(r.BatteryCapacityWh),
			RangeKM:           deref(r.RangeKM),
			MaxLoadKG:         deref(r.MaxLoadKG),
		}
	}
	return p
}

func fromProduct(p models.Product) rawProduct {
	r := rawProduct{
		ID:            p.ID,
		Name:          p.Name,
		Type:          p.Type,
		Brand:         p.Brand,
		PriceEUR:      p.PriceEUR,
		FrameMaterial: p.FrameMaterial,
		Suspension:    p.Suspension,
		WheelSize:     p.WheelSize,
		Gears:         p.Gears,
		Brakes:        p.Brakes,
		WeightKG:      p.WeightKG,
		IntendedUse:   p.IntendedUse,
		Color:         p.Color,
	}
	if e := p.Electric; e != nil {
		r.MotorPowerW = ptr(e.MotorPowerW)
		r.BatteryCapacityWh = ptr(e.BatteryCapacityWh)
		r.RangeKM = ptr(e.RangeKM)
		r.MaxLoadKG = ptr(e.MaxLoadKG)
	}
	return r
}

func ptr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// ParseProducts decodes a JSON array of catalog products.
func ParseProducts(r io.Reader) ([]models.Product, error) {
	var raw []rawProduct
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}

	seen := make(map[int]bool, len(raw))
	out := make([]models.Product, 0, len(raw))
	for i, rp := range raw {
		if rp.Name == "" {
			return nil, fmt.Errorf("catalog: product #%d has no name", i)
		}
		if seen[rp.ID] {
			return nil, fmt.Errorf("catalog: duplicate product id %d", rp.ID)
		}
		seen[rp.ID] = true
		out = append(out, rp.product())
	}
	return out, nil
}

// EncodeProducts writes products in the format ParseProducts reads.
func EncodeProducts(w io.Writer, products []models.Product) error {
	raw := make([]rawProduct, len(products))
	for i, p := range products {
		raw[i] = fromProduct(p)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(raw)
}

// EncodeFAQ writes entries as numbered text that ParseFAQ reads back.
func EncodeFAQ(w io.Writer, faqs []models.FAQEntry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Bike Shop FAQ")
	for i, f := range faqs {
		fmt.Fprintf(bw, "\n%d. %s\n%s\n", i+1, f.Question, f.Answer)
	}
	return bw.Flush()
}

var entryStart = regexp.MustCompile(`^\d+\.\s+`)

// ParseFAQ reads numbered entries: "N. question" followed by answer lines.
// Text before the first numbered line is a header and is skipped.
func ParseFAQ(r io.Reader) ([]models.FAQEntry, error) {
	var (
		out      []models.FAQEntry
		question string
		answer   []string
		index    int
		started  bool
	)

	flush := func() {
		if started && question != "" && len(answer) > 0 {
			out = append(out, models.FAQEntry{ID: index, Question: question, Answer: strings.Join(answer, " ")})
		}
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if loc := entryStart.FindStringIndex(line); loc != nil {
			flush()
			started = true
			index++
			question = strings.TrimSpace(line[loc[1]:])
			answer = nil
			continue
		}
		if started && line != "" {
			answer = append(answer, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("catalog: read faq: %w", err)
	}
	flush()
	return out, nil
}

// Catalog is everything the assistant can retrieve from.
type Catalog struct {
	Products []models.Product
	FAQs     []models.FAQEntry
}

// Load reads the product catalog and the FAQ through src.
func Load(ctx context.Context, src storage.Reader, productsPath, faqPath string) (*Catalog, error) {
	products, err := loadWith(ctx, src, productsPath, ParseProducts)
	if err != nil {
		return nil, err
	}
	faqs, err := loadWith(ctx, src, faqPath, ParseFAQ)
	if err != nil {
		return nil, err
	}
	return &Catalog{Products: products, FAQs: faqs}, nil
}

func loadWith[T any](ctx context.Context, src storage.Reader, name string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", name, err)
	}
	defer rc.Close()
	return parse(rc)
}
