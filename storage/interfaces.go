package storage

import (
	"context"
	"errors"

	"airbnb-harvester/models"
)

// Storage errors.
var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned when an insert loses a uniqueness race. The
	// caller is expected to re-query and reuse the now-existing row.
	ErrDuplicate = errors.New("storage: duplicate key")
)

// Store opens per-record transactions against the listing schema.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is one record's reconciliation scope. All writes within it become
// visible together on Commit or not at all.
type Tx interface {
	FindHostByName(name string) (*models.Host, error)
	InsertHost(host *models.Host) (int64, error)

	FindListing(title, location string, hostID int64) (*models.Listing, error)
	InsertListing(listing *models.Listing) (int64, error)
	UpdateListing(listing *models.Listing) error

	DeleteListingImages(listingID int64) error
	InsertListingImage(image *models.ListingImage) error

	FindAmenityByName(name string) (*models.Amenity, error)
	InsertAmenity(name string) (int64, error)

	DeleteListingAmenities(listingID int64) error
	InsertListingAmenity(listingID, amenityID int64) error

	Commit() error
	Rollback() error
}
