package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// SeatStatus is the availability state of a seat.
type SeatStatus string

const (
	SeatAvailable   SeatStatus = "available"
	SeatReserved    SeatStatus = "reserved"
	SeatSold        SeatStatus = "sold"
	SeatSelected    SeatStatus = "selected"
	SeatUnavailable SeatStatus = "unavailable"
)

// Valid reports whether s is one of the known statuses.
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatAvailable, SeatReserved, SeatSold, SeatSelected, SeatUnavailable:
		return true
	}
	return false
}

// Initial reports whether s may be returned by a seat map provider.
// selected and unavailable are only ever set locally.
func (s SeatStatus) Initial() bool {
	return s == SeatAvailable || s == SeatReserved || s == SeatSold
}

// Seat represents a single seat on a seat map. ID is "<row>-<number>".
type Seat struct {
	ID         string     `json:"id" validate:"required"`
	Row        string     `json:"row" validate:"required"`
	Number     int        `json:"number" validate:"gte=1"`
	Status     SeatStatus `json:"status" validate:"required"`
	CategoryID string     `json:"category_id" validate:"required"`
}

// SeatID builds the composite seat identifier.
func SeatID(row string, number int) string {
	return fmt.Sprintf("%s-%d", row, number)
}

// SeatCategory is a pricing tier. Price is in minor currency units.
type SeatCategory struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name"`
	Price int64  `json:"price" validate:"gte=0"`
	Color string `json:"color"`
}

// Section groups rows of seats.
type Section struct {
	ID    string   `json:"id" validate:"required"`
	Name  string   `json:"name"`
	Rows  []string `json:"rows"`
	Seats []Seat   `json:"seats" validate:"dive"`
}

// SeatMap is the full layout of one event.
type SeatMap struct {
	ID         string         `json:"id" validate:"required"`
	EventID    string         `json:"event_id" validate:"required"`
	Rows       int            `json:"rows"`
	Columns    int            `json:"columns"`
	Sections   []Section      `json:"sections" validate:"dive"`
	Categories []SeatCategory `json:"categories" validate:"dive"`
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural invariants of a seat map as delivered by a
// provider: required fields, unique seat ids, known categories and initial
// statuses only.
func (m *SeatMap) Validate() error {
	if m == nil {
		return fmt.Errorf("seat map is nil")
	}
	if err := structValidator.Struct(m); err != nil {
		return fmt.Errorf("seat map %s: %w", m.ID, err)
	}

	categories := make(map[string]struct{}, len(m.Categories))
	for _, c := range m.Categories {
		if _, dup := categories[c.ID]; dup {
			return fmt.Errorf("seat map %s: duplicate category %q", m.ID, c.ID)
		}
		categories[c.ID] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, section := range m.Sections {
		for _, seat := range section.Seats {
			if _, dup := seen[seat.ID]; dup {
				return fmt.Errorf("seat map %s: duplicate seat %q", m.ID, seat.ID)
			}
			seen[seat.ID] = struct{}{}
			if _, ok := categories[seat.CategoryID]; !ok {
				return fmt.Errorf("seat map %s: seat %q references unknown category %q", m.ID, seat.ID, seat.CategoryID)
			}
			if !seat.Status.Initial() {
				return fmt.Errorf("seat map %s: seat %q has non-initial status %q", m.ID, seat.ID, seat.Status)
			}
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate seat statuses freely.
func (m *SeatMap) Clone() *SeatMap {
	if m == nil {
		return nil
	}
	out := *m
	out.Sections = make([]Section, len(m.Sections))
	for i, s := range m.Sections {
		s.Rows = append([]string(nil), s.Rows...)
		s.Seats = append([]Seat(nil), s.Seats...)
		out.Sections[i] = s
	}
	out.Categories = append([]SeatCategory(nil), m.Categories...)
	return &out
}

// FindSeat returns the first seat with the given id.
func (m *SeatMap) FindSeat(id string) (Seat, bool) {
	if m == nil {
		return Seat{}, false
	}
	for _, section := range m.Sections {
		for _, seat := range section.Seats {
			if seat.ID == id {
				return seat, true
			}
		}
	}
	return Seat{}, false
}

// SetStatus updates the seat with the given id in every section and returns
// how many seats were touched.
func (m *SeatMap) SetStatus(id string, status SeatStatus) int {
	if m == nil {
		return 0
	}
	n := 0
	for i := range m.Sections {
		seats := m.Sections[i].Seats
		for j := range seats {
			if seats[j].ID == id {
				seats[j].Status = status
				n++
			}
		}
	}
	return n
}

// Category looks a category up by id.
func (m *SeatMap) Category(id string) (SeatCategory, bool) {
	if m == nil {
		return SeatCategory{}, false
	}
	for _, c := range m.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return SeatCategory{}, false
}

// SeatIDsWithStatus lists seat ids carrying the given status, in map order.
func (m *SeatMap) SeatIDsWithStatus(status SeatStatus) []string {
	if m == nil {
		return nil
	}
	var ids []string
	for _, section := range m.Sections {
		for _, seat := range section.Seats {
			if seat.Status == status {
				ids = append(ids, seat.ID)
			}
		}
	}
	return ids
}

// CountSeats returns total and available seat counts.
func (m *SeatMap) CountSeats() (total, available int) {
	if m == nil {
		return 0, 0
	}
	for _, section := range m.Sections {
		for _, seat := range section.Seats {
			total++
			if seat.Status == SeatAvailable {
				available++
			}
		}
	}
	return total, available
}
