package dto

import (
	"time"

	domainlistings "locadz/internal/domain/listings"
)

type Listing struct {
	ID          string    `json:"id"`
	HostID      string    `json:"host_id"`
	Title       string    `json:"title"`
	Location    string    `json:"location,omitempty"`
	NightlyRate MoneyDTO  `json:"nightly_rate"`
	GuestsLimit int       `json:"guests_limit,omitempty"`
	State       string    `json:"state"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListingCollection struct {
	Items []Listing `json:"items"`
}

func MapListing(l *domainlistings.Listing) Listing {
	if l == nil {
		return Listing{}
	}
	return Listing{
		ID:          string(l.ID),
		HostID:      string(l.Host),
		Title:       l.Title,
		Location:    l.Location,
		NightlyRate: MapMoney(l.NightlyRate),
		GuestsLimit: l.GuestsLimit,
		State:       string(l.State),
		UpdatedAt:   l.UpdatedAt,
	}
}
