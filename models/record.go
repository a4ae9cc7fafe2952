package models

import "time"

// HostRecord is the host sub-record embedded in a ListingRecord.
type HostRecord struct {
	Name        string
	ImageURL    *string
	IsSuperhost bool
	JoinedDate  *time.Time
}

// ListingRecord is the canonical, source-agnostic representation of one
// listing page, as produced by the Extractor. It is transient: the
// Reconciler consumes it and maps it onto the persisted entities below.
// Optional fields are nil when the page exposed nothing usable.
type ListingRecord struct {
	URL           string
	Title         *string
	Location      *string
	Address       *string
	PricePerNight *float64
	Currency      string
	TotalPrice    *float64
	Rating        *float64
	Description   *string
	ReviewsCount  int
	PropertyType  *string
	ImageURLs     []string // document order; index 0 is the primary image
	Amenities     []string // deduplicated, first spelling encountered wins
	Host          HostRecord
	ExtractedAt   time.Time
}

// Host is a persisted host row. Identity is Name.
type Host struct {
	ID          int64
	Name        string
	ImageURL    *string
	IsSuperhost bool
	JoinedDate  *time.Time
}

// Listing is a persisted listing row. The Reconciler keys it on
// (Title, Location, HostID); those three never change after insert.
type Listing struct {
	ID            int64
	Title         string
	Location      string
	Address       *string
	PricePerNight *float64
	Currency      string
	TotalPrice    *float64
	Rating        *float64
	Description   *string
	ReviewsCount  int
	PropertyType  *string
	HostID        int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListingImage belongs to exactly one listing. The whole set is replaced on
// every reconciliation of its listing.
type ListingImage struct {
	ID        int64
	ListingID int64
	ImageURL  string
	IsPrimary bool
}

// Amenity is a persisted amenity row. Identity is Name, unique store-wide.
type Amenity struct {
	ID   int64
	Name string
}

// ListingAmenity links one listing to one amenity; the pair is unique.
type ListingAmenity struct {
	ID        int64
	ListingID int64
	AmenityID int64
}

// AmenityCount pairs an amenity name with how many stored listings offer it.
type AmenityCount struct {
	Name  string
	Count int
}

// InsightReport holds computed analytics over one run's stored records.
type InsightReport struct {
	TotalStored        int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      *ListingRecord
	SuperhostShare     float64
	TopRated           []*ListingRecord
	TopAmenities       []AmenityCount
	ListingsByLocation map[string]int
}
