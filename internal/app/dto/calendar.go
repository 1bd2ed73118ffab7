package dto

import (
	"locadz/internal/domain/availability"
)

type CalendarBlock struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Calendar struct {
	ListingID string          `json:"listing_id"`
	Blocks    []CalendarBlock `json:"blocks"`
}

type Availability struct {
	ListingID string `json:"listing_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Available bool   `json:"available"`
}

func MapCalendar(cal *availability.Calendar) Calendar {
	if cal == nil {
		return Calendar{Blocks: []CalendarBlock{}}
	}
	blocks := make([]CalendarBlock, 0, len(cal.Blocks))
	for _, b := range cal.Blocks {
		blocks = append(blocks, CalendarBlock{
			From: b.Range.Start.Format(dateLayout),
			To:   b.Range.End.Format(dateLayout),
		})
	}
	return Calendar{ListingID: string(cal.ListingID), Blocks: blocks}
}
