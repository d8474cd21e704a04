package models

import (
	"fmt"
	"strings"
)

// ElectricSpecs is only present on e-bikes.
type ElectricSpecs struct {
	MotorPowerW       int `json:"motor_power_w,omitempty"`
	BatteryCapacityWh int `json:"battery_capacity_wh,omitempty"`
	RangeKM           int `json:"range_km,omitempty"`
	MaxLoadKG         int `json:"max_load_kg,omitempty"`
}

type Product struct {
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

	Electric *ElectricSpecs `json:"electric,omitempty"`
}

// KeyFeatures is the one-line feature summary shown next to a recommendation.
func (p Product) KeyFeatures() string {
	return fmt.Sprintf("%s frame, %d gears, %s", p.FrameMaterial, p.Gears, p.Brakes)
}

// Text is the representation used for embedding and for LLM context.
func (p Product) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s %s\n", p.Name, p.Brand, p.Type)
	fmt.Fprintf(&b, "Price: €%d\n", p.PriceEUR)
	fmt.Fprintf(&b, "Features: %s frame, %s, %d gears, %s\n", p.FrameMaterial, p.Suspension, p.Gears, p.Brakes)
	fmt.Fprintf(&b, "Intended Use: %s\n", strings.Join(p.IntendedUse, ", "))
	fmt.Fprintf(&b, "Specs: %g\" wheels, %gkg\n", p.WheelSize, p.WeightKG)
	fmt.Fprintf(&b, "Color: %s", p.Color)

	if e := p.Electric; e != nil {
		if e.MotorPowerW > 0 {
			fmt.Fprintf(&b, "\nMotor: %dW", e.MotorPowerW)
		}
		if e.BatteryCapacityWh > 0 {
			fmt.Fprintf(&b, "\nBattery: %dWh", e.BatteryCapacityWh)
		}
		if e.RangeKM > 0 {
			fmt.Fprintf(&b, "\nRange: %dkm", e.RangeKM)
		}
		if e.MaxLoadKG > 0 {
			fmt.Fprintf(&b, "\nMax Load: %dkg", e.MaxLoadKG)
		}
	}
	return b.String()
}

// Summary returns the client-facing form of the product.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		Brand:       p.Brand,
		PriceEUR:    p.PriceEUR,
		KeyFeatures: p.KeyFeatures(),
		IntendedUse: append([]string(nil), p.IntendedUse...),
	}
}

type ProductSummary struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Brand       string   `json:"brand"`
	PriceEUR    int      `json:"price_eur"`
	KeyFeatures string   `json:"key_features"`
	IntendedUse []string `json:"intended_use"`
}

type ScoredProduct struct {
	Product Product `json:"product"`
	Score   float32 `json:"score"`
}
