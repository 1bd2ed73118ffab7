package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"locadz/internal/app/uow"
	domainlistings "locadz/internal/domain/listings"
	"locadz/internal/domain/shared/money"
)

type listingFixture struct {
	ID          string `json:"id"`
	HostID      string `json:"host_id"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	NightlyRate int64  `json:"nightly_rate"`
	Currency    string `json:"currency"`
	GuestsLimit int    `json:"guests_limit"`
	State       string `json:"state"`
}

// LoadListingFixtures upserts the listing read model from a JSON file. A
// missing file is not an error; invalid entries are logged and skipped.
func LoadListingFixtures(ctx context.Context, factory uow.UoWFactory, path string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return 0, nil
	}
	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return 0, fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	imported := 0
	for _, fx := range fixtures {
		listing, err := fx.toListing(now)
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := saveListing(ctx, factory, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		imported++
	}
	logger.Info("listing fixtures imported", "count", imported, "path", path)
	return imported, nil
}

func (fx listingFixture) toListing(now time.Time) (*domainlistings.Listing, error) {
	currency := strings.ToUpper(strings.TrimSpace(fx.Currency))
	if currency == "" {
		currency = money.DefaultCurrency
	}
	rate, err := money.New(fx.NightlyRate, currency)
	if err != nil {
		return nil, err
	}
	state := domainlistings.ListingActive
	if fx.State != "" {
		state = domainlistings.ListingState(strings.ToUpper(strings.TrimSpace(fx.State)))
	}
	return domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          domainlistings.ListingID(fx.ID),
		Host:        domainlistings.HostID(fx.HostID),
		Title:       fx.Title,
		Location:    fx.Location,
		NightlyRate: rate,
		GuestsLimit: fx.GuestsLimit,
		State:       state,
		Now:         now,
	})
}

func saveListing(ctx context.Context, factory uow.UoWFactory, listing *domainlistings.Listing) error {
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx := uow.InjectContext(ctx, unit)
	if err := unit.Listings().Save(execCtx, listing); err != nil {
		_ = unit.Rollback(execCtx)
		return err
	}
	return unit.Commit(execCtx)
}
