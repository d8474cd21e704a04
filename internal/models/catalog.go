package models

import (
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// ProductRecord is a catalog product stored with its embedding in Postgres.
type ProductRecord struct {
	ID            int            `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name          string         `gorm:"column:name;type:text"`
	Type          string         `gorm:"column:type;type:text;index"`
	Brand         string         `gorm:"column:brand;type:text"`
	PriceEUR      int            `gorm:"column:price_eur;index"`
	FrameMaterial string         `gorm:"column:frame_material;type:text"`
	Suspension    string         `gorm:"column:suspension;type:text"`
	WheelSize     float64        `gorm:"column:wheel_size"`
	Gears         int            `gorm:"column:gears"`
	Brakes        string         `gorm:"column:brakes;type:text"`
	WeightKG      float64        `gorm:"column:weight_kg"`
	IntendedUse   pq.StringArray `gorm:"column:intended_use;type:text[]"`
	Color         string         `gorm:"column:color;type:text"`
	Electric      datatypes.JSON `gorm:"column:electric;type:jsonb"`

	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(256)"`
}

func (ProductRecord) TableName() string { return "catalog_products" }

func NewProductRecord(p Product, embedding []float32) (ProductRecord, error) {
	rec := ProductRecord{
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
		IntendedUse:   pq.StringArray(p.IntendedUse),
		Color:         p.Color,
		Embedding:     pgvector.NewVector(embedding),
	}
	if p.Electric != nil {
		b, err := json.Marshal(p.Electric)
		if err != nil {
			return ProductRecord{}, err
		}
		rec.Electric = datatypes.JSON(b)
	}
	return rec, nil
}

func (r ProductRecord) Product() (Product, error) {
	p := Product{
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
		IntendedUse:   []string(r.IntendedUse),
		Color:         r.Color,
	}
	if len(r.Electric) > 0 && string(r.Electric) != "null" {
		var e ElectricSpecs
		if err := json.Unmarshal(r.Electric, &e); err != nil {
			return Product{}, err
		}
		p.Electric = &e
	}
	return p, nil
}

type FAQRecord struct {
	ID        int             `gorm:"column:id;primaryKey;autoIncrement:false"`
	Question  string          `gorm:"column:question;type:text"`
	Answer    string          `gorm:"column:answer;type:text"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(256)"`
}

func (FAQRecord) TableName() string { return "catalog_faqs" }
