package repository

import (
	"math/rand"
	"time"

	"eventify/internal/models"
)

const seatsPerRow = 15

// DefaultSeatMap builds the standard hall layout: a main floor (rows A-E,
// A and B are VIP) and a balcony (rows F-J). Seat statuses are drawn from rng
// with roughly 30% sold and 10% reserved; a nil rng leaves every seat
// available.
func DefaultSeatMap(eventID string, rng *rand.Rand) *models.SeatMap {
	return &models.SeatMap{
		ID:      "map-" + eventID,
		EventID: eventID,
		Rows:    10,
		Columns: seatsPerRow,
		Sections: []models.Section{
			buildSection("section-1", "Main floor", []string{"A", "B", "C", "D", "E"}, rng, func(row string) string {
				if row < "C" {
					return "vip"
				}
				return "standard"
			}),
			buildSection("section-2", "Balcony", []string{"F", "G", "H", "I", "J"}, rng, func(string) string {
				return "standard"
			}),
		},
		Categories: []models.SeatCategory{
			{ID: "vip", Name: "VIP", Price: 15000, Color: "#FFD700"},
			{ID: "standard", Name: "Standard", Price: 7500, Color: "#87CEEB"},
		},
	}
}

func buildSection(id, name string, rows []string, rng *rand.Rand, category func(row string) string) models.Section {
	section := models.Section{ID: id, Name: name, Rows: rows}
	for _, row := range rows {
		for n := 1; n <= seatsPerRow; n++ {
			section.Seats = append(section.Seats, models.Seat{
				ID:         models.SeatID(row, n),
				Row:        row,
				Number:     n,
				Status:     randomStatus(rng),
				CategoryID: category(row),
			})
		}
	}
	return section
}

func randomStatus(rng *rand.Rand) models.SeatStatus {
	if rng == nil {
		return models.SeatAvailable
	}
	switch r := rng.Float64(); {
	case r > 0.7:
		return models.SeatSold
	case r > 0.6:
		return models.SeatReserved
	default:
		return models.SeatAvailable
	}
}

// SampleEvents returns the demo catalog.
func SampleEvents() []models.Event {
	techImage := "https://example.com/images/tech-conf.jpg"
	festImage := "https://example.com/images/music-fest.jpg"
	return []models.Event{
		{
			ID:          "1",
			Title:       "Technology Conference 2025",
			Description: "A conference with the industry's leading speakers",
			Organizer:   "Tech Events Inc.",
			Venue: models.Venue{
				ID:      "201",
				Name:    "Convention Center",
				Address: "1-1-1 Chiyoda",
				City:    "Tokyo",
			},
			StartDate: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 6, 17, 18, 0, 0, 0, time.UTC),
			Category:  models.CategoryConference,
			ImageURL:  &techImage,
			Price:     20000,
		},
		{
			ID:          "2",
			Title:       "Summer Music Festival",
			Description: "Three days of live music",
			Organizer:   "Festival Productions",
			Venue: models.Venue{
				ID:      "202",
				Name:    "City Park",
				Address: "2-2-2 Chuo",
				City:    "Osaka",
			},
			StartDate: time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 7, 12, 23, 0, 0, 0, time.UTC),
			Category:  models.CategoryConcert,
			ImageURL:  &festImage,
			Price:     15000,
		},
	}
}
