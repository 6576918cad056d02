package model

import "time"

// Category is the kind of activity an emission entry belongs to.
type Category string

const (
	CategoryTransportation Category = "transportation"
	CategoryEnergy         Category = "energy"
	CategoryFood           Category = "food"
	CategoryShopping       Category = "shopping"
)

// Categories lists every category in its canonical order. The order is used
// to break ties when ranking categories, so it must stay stable.
var Categories = []Category{
	CategoryTransportation,
	CategoryEnergy,
	CategoryFood,
	CategoryShopping,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CarbonEntry is one logged activity and its emissions in kg CO₂.
//
// Entries are append-only: they are created by the calculator flow and never
// updated or deleted. Date defaults to the creation time when the caller does
// not supply one.
type CarbonEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Category    Category  `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}
