// Package reconcile maps canonical listing records onto persisted rows while
// preserving uniqueness and referential invariants. Reconciling the same
// record any number of times never creates duplicate hosts, listings or
// amenities.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airbnb-harvester/models"
	"airbnb-harvester/normalize"
	"airbnb-harvester/storage"
	"airbnb-harvester/utils"
)

// Reconciler persists ListingRecords through the storage boundary, one
// transaction per record.
type Reconciler struct {
	store  storage.Store
	logger *utils.Logger
}

// New creates a new Reconciler.
func New(store storage.Store, logger *utils.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// CanReconcile reports whether the record carries the identity fields a
// listing row needs: title, location and a host name.
func CanReconcile(rec *models.ListingRecord) bool {
	return rec.Title != nil && *rec.Title != "" &&
		rec.Location != nil && *rec.Location != "" &&
		rec.Host.Name != ""
}

// Reconcile runs one record's full reconciliation inside a single
// transaction. On any failure the transaction is rolled back and nothing of
// the record is visible.
func (r *Reconciler) Reconcile(ctx context.Context, rec *models.ListingRecord) error {
	if !CanReconcile(rec) {
		return errors.New("record is missing title, location or host name")
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	hostID, err := r.resolveHost(tx, rec.Host)
	if err != nil {
		return fmt.Errorf("resolve host %q: %w", rec.Host.Name, err)
	}

	listingID, err := r.upsertListing(tx, rec, hostID)
	if err != nil {
		return fmt.Errorf("upsert listing %q: %w", *rec.Title, err)
	}

	if err := r.replaceImages(tx, listingID, rec.ImageURLs); err != nil {
		return fmt.Errorf("replace images: %w", err)
	}
	if err := r.replaceAmenities(tx, listingID, rec.Amenities); err != nil {
		return fmt.Errorf("replace amenities: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// resolveOrCreate is the shared lookup-or-insert primitive. A create that
// loses a uniqueness race comes back as ErrDuplicate and is converted into a
// re-lookup of the now-existing row.
func resolveOrCreate(find func() (int64, error), create func() (int64, error)) (int64, error) {
	id, err := find()
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}

	id, err = create()
	if err == nil {
		return id, nil
	}
	if errors.Is(err, storage.ErrDuplicate) {
		return find()
	}
	return 0, err
}

// resolveHost reuses an existing host row by name or inserts a new one.
// Metadata of an existing host is left untouched: first write wins.
func (r *Reconciler) resolveHost(tx storage.Tx, host models.HostRecord) (int64, error) {
	return resolveOrCreate(
		func() (int64, error) {
			found, err := tx.FindHostByName(host.Name)
			if err != nil {
				return 0, err
			}
			return found.ID, nil
		},
		func() (int64, error) {
			return tx.InsertHost(&models.Host{
				Name:        host.Name,
				ImageURL:    host.ImageURL,
				IsSuperhost: host.IsSuperhost,
				JoinedDate:  host.JoinedDate,
			})
		},
	)
}

// upsertListing looks the listing up by its (title, location, host) key.
// Found rows get their mutable fields refreshed in place; the key fields are
// never touched after insert.
func (r *Reconciler) upsertListing(tx storage.Tx, rec *models.ListingRecord, hostID int64) (int64, error) {
	now := time.Now()

	existing, err := tx.FindListing(*rec.Title, *rec.Location, hostID)
	if err == nil {
		existing.PricePerNight = rec.PricePerNight
		existing.Currency = rec.Currency
		existing.TotalPrice = rec.TotalPrice
		existing.Rating = rec.Rating
		existing.Description = rec.Description
		existing.ReviewsCount = rec.ReviewsCount
		existing.PropertyType = rec.PropertyType
		existing.UpdatedAt = now
		if err := tx.UpdateListing(existing); err != nil {
			return 0, err
		}
		return existing.ID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}

	return tx.InsertListing(&models.Listing{
		Title:         *rec.Title,
		Location:      *rec.Location,
		Address:       rec.Address,
		PricePerNight: rec.PricePerNight,
		Currency:      rec.Currency,
		TotalPrice:    rec.TotalPrice,
		Rating:        rec.Rating,
		Description:   rec.Description,
		ReviewsCount:  rec.ReviewsCount,
		PropertyType:  rec.PropertyType,
		HostID:        hostID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// replaceImages deletes the listing's image rows and reinserts the record's
// sequence in order, index 0 primary. Zero images in the record leaves the
// listing with zero images.
func (r *Reconciler) replaceImages(tx storage.Tx, listingID int64, urls []string) error {
	if err := tx.DeleteListingImages(listingID); err != nil {
		return err
	}
	for i, url := range urls {
		img := &models.ListingImage{
			ListingID: listingID,
			ImageURL:  url,
			IsPrimary: i == 0,
		}
		if err := tx.InsertListingImage(img); err != nil {
			return err
		}
	}
	return nil
}

// replaceAmenities deletes the listing's join rows, then resolves each
// amenity by name and relinks it. The extractor already deduplicates the
// record's amenity set, but the loop guards against double insertion anyway.
func (r *Reconciler) replaceAmenities(tx storage.Tx, listingID int64, amenities []string) error {
	if err := tx.DeleteListingAmenities(listingID); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, name := range amenities {
		trimmed := normalize.Text(name)
		if trimmed == nil {
			continue
		}
		key := normalize.AmenityKey(*trimmed)
		if seen[key] {
			continue
		}
		seen[key] = true

		amenityID, err := resolveOrCreate(
			func() (int64, error) {
				found, err := tx.FindAmenityByName(*trimmed)
				if err != nil {
					return 0, err
				}
				return found.ID, nil
			},
			func() (int64, error) {
				return tx.InsertAmenity(*trimmed)
			},
		)
		if err != nil {
			return err
		}

		err = tx.InsertListingAmenity(listingID, amenityID)
		if errors.Is(err, storage.ErrDuplicate) {
			// Join row already present within this pass; nothing to do.
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
