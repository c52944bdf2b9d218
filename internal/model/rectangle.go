package model

import (
	"time"
)

// RectanglePG model for PostgreSQL storage of dataset records
type RectanglePG struct {
	ID       uint    `gorm:"primaryKey;autoIncrement"`
	Label    string  `gorm:"size:64;not null;index:idx_rectangles_label_seq,priority:1"`
	Seq      int     `gorm:"not null;index:idx_rectangles_label_seq,priority:2"`
	ObjectID string  `gorm:"size:255"`
	XMin     float64 `gorm:"not null"`
	YMin     float64 `gorm:"not null"`
	XMax     float64 `gorm:"not null"`
	YMax     float64 `gorm:"not null"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name
func (RectanglePG) TableName() string {
	return "rectangles"
}

// ToPG converts an in-memory rectangle into its PostgreSQL row.
// seq keeps the dataset order, which the queries use for tie-breaking.
func (m MBR) ToPG(label string, seq int) *RectanglePG {
	return &RectanglePG{
		Label:    label,
		Seq:      seq,
		ObjectID: m.ID,
		XMin:     m.XMin,
		YMin:     m.YMin,
		XMax:     m.XMax,
		YMax:     m.YMax,
	}
}

// MBRFromPG creates an in-memory rectangle from a PostgreSQL row
func MBRFromPG(pg *RectanglePG) MBR {
	return MBR{
		ID:   pg.ObjectID,
		XMin: pg.XMin,
		YMin: pg.YMin,
		XMax: pg.XMax,
		YMax: pg.YMax,
	}
}
