// Package models defines the persisted catalog records.
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Movie represents a single catalog entry.
//
// Rating, Budget, BoxOffice, Runtime, Country, Language and Studio are
// nullable. Budget and BoxOffice are plain currency units.
type Movie struct {
	ID          string   `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string   `gorm:"not null;index" json:"title"`
	Director    string   `gorm:"index" json:"director"`
	Genre       string   `gorm:"size:100;index" json:"genre"`
	ReleaseYear int      `gorm:"index" json:"release_year"`
	Rating      *float64 `gorm:"index" json:"rating"`
	Budget      *float64 `json:"budget"`
	BoxOffice   *float64 `json:"box_office"`
	Runtime     *int     `json:"runtime"` // In minutes
	Country     *string  `gorm:"size:100" json:"country"`
	Language    *string  `gorm:"size:100" json:"language"`
	Studio      *string  `gorm:"size:255" json:"studio"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Movie) TableName() string {
	return "movies"
}

// BeforeCreate assigns the store identifier when the caller left it empty.
func (m *Movie) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Profit is box office minus budget. ok is false when either is missing.
func (m *Movie) Profit() (profit float64, ok bool) {
	if m.Budget == nil || m.BoxOffice == nil {
		return 0, false
	}
	return *m.BoxOffice - *m.Budget, true
}

// ProfitMargin is profit as a percentage of budget, rounded to 2 decimal
// places. A zero or missing budget yields 0. A missing box office yields
// ok == false.
func (m *Movie) ProfitMargin() (margin float64, ok bool) {
	if m.Budget == nil || *m.Budget == 0 {
		return 0, true
	}
	profit, ok := m.Profit()
	if !ok {
		return 0, false
	}
	return round2(profit / *m.Budget * 100), true
}

// ROI is box office as a percentage of budget, rounded to 2 decimal places.
// A zero or missing budget yields 0. A missing box office yields ok == false.
func (m *Movie) ROI() (roi float64, ok bool) {
	if m.Budget == nil || *m.Budget == 0 {
		return 0, true
	}
	if m.BoxOffice == nil {
		return 0, false
	}
	return round2(*m.BoxOffice / *m.Budget * 100), true
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Decade floors the release year to its decade, e.g. 1995 -> 1990.
func (m *Movie) Decade() int {
	return DecadeOf(m.ReleaseYear)
}

// DecadeOf floors a year to its decade. Negative years floor toward -inf.
func DecadeOf(year int) int {
	d := (year / 10) * 10
	if year < 0 && year%10 != 0 {
		d -= 10
	}
	return d
}

// Float returns a pointer to v. Handy for building nullable fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
