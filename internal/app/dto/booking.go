package dto

import (
	"time"

	domainbooking "locadz/internal/domain/booking"
	"locadz/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type BookingListingSnapshot struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	HostID string `json:"host_id"`
}

type BookingSummary struct {
	ID            string                 `json:"id"`
	Listing       BookingListingSnapshot `json:"listing"`
	GuestID       string                 `json:"guest_id"`
	CheckIn       string                 `json:"check_in"`
	CheckOut      string                 `json:"check_out"`
	Guests        int                    `json:"guests"`
	Status        string                 `json:"status"`
	PaymentMethod string                 `json:"payment_method"`
	PaymentRef    string                 `json:"payment_ref,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	Price         PriceBreakdown         `json:"price"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

func MapBookingSummary(b *domainbooking.Booking) BookingSummary {
	return BookingSummary{
		ID: string(b.ID),
		Listing: BookingListingSnapshot{
			ID:     string(b.ListingID),
			Title:  b.ListingTitle,
			HostID: string(b.HostID),
		},
		GuestID:       b.GuestID,
		CheckIn:       b.Range.Start.Format(dateLayout),
		CheckOut:      b.Range.End.Format(dateLayout),
		Guests:        b.Guests,
		Status:        string(b.Status),
		PaymentMethod: string(b.PaymentMethod),
		PaymentRef:    b.PaymentRef,
		Reason:        b.Reason,
		Price:         MapPriceBreakdown(b.Price),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func MapBookingCollection(items []*domainbooking.Booking) BookingCollection {
	out := BookingCollection{Items: make([]BookingSummary, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, MapBookingSummary(b))
	}
	return out
}
