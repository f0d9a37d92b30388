package external

import (
	"sort"
	"strconv"

	"eventify/internal/models"
)

// ExternalCategoryID is the single price category of provider seat maps.
const ExternalCategoryID = "standard"

// PlacesToSeatMap builds a seat map for an external event. Every place is
// priced at the event price; taken places are reported as sold.
func PlacesToSeatMap(eventID string, price int64, places []Place) *models.SeatMap {
	byRow := make(map[int][]Place)
	columns := 0
	for _, p := range places {
		byRow[p.Row] = append(byRow[p.Row], p)
		columns = max(columns, p.Seat)
	}

	rowNumbers := make([]int, 0, len(byRow))
	for r := range byRow {
		rowNumbers = append(rowNumbers, r)
	}
	sort.Ints(rowNumbers)

	section := models.Section{ID: "section-1", Name: "Hall"}
	for _, r := range rowNumbers {
		row := strconv.Itoa(r)
		section.Rows = append(section.Rows, row)

		rowPlaces := byRow[r]
		sort.Slice(rowPlaces, func(i, j int) bool { return rowPlaces[i].Seat < rowPlaces[j].Seat })
		for _, p := range rowPlaces {
			status := models.SeatSold
			if p.IsFree {
				status = models.SeatAvailable
			}
			section.Seats = append(section.Seats, models.Seat{
				ID:         p.SeatID(),
				Row:        row,
				Number:     p.Seat,
				Status:     status,
				CategoryID: ExternalCategoryID,
			})
		}
	}

	return &models.SeatMap{
		ID:         "external-" + eventID,
		EventID:    eventID,
		Rows:       len(rowNumbers),
		Columns:    columns,
		Sections:   []models.Section{section},
		Categories: []models.SeatCategory{{ID: ExternalCategoryID, Name: "Standard", Price: price, Color: "#87CEEB"}},
	}
}

// PlaceIndex maps seat ids to provider place ids.
func PlaceIndex(places []Place) map[string]string {
	index := make(map[string]string, len(places))
	for _, p := range places {
		index[p.SeatID()] = p.ID
	}
	return index
}
