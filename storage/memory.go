package storage

import (
	"context"
	"sort"
	"sync"

	"airbnb-harvester/models"
)

// MemoryStore is an in-memory Store with the same uniqueness rules as the
// Postgres schema. It backs dry runs and the reconciler tests. Transactions
// serialize on one mutex and roll back by restoring a snapshot.
type MemoryStore struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	nextID    int64
	hosts     map[int64]models.Host
	listings  map[int64]models.Listing
	images    []models.ListingImage
	amenities map[int64]models.Amenity
	links     []models.ListingAmenity
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memState{
			hosts:     make(map[int64]models.Host),
			listings:  make(map[int64]models.Listing),
			amenities: make(map[int64]models.Amenity),
		},
	}
}

func (s *memState) clone() memState {
	c := memState{
		nextID:    s.nextID,
		hosts:     make(map[int64]models.Host, len(s.hosts)),
		listings:  make(map[int64]models.Listing, len(s.listings)),
		amenities: make(map[int64]models.Amenity, len(s.amenities)),
		images:    append([]models.ListingImage(nil), s.images...),
		links:     append([]models.ListingAmenity(nil), s.links...),
	}
	for id, h := range s.hosts {
		c.hosts[id] = h
	}
	for id, l := range s.listings {
		c.listings[id] = l
	}
	for id, a := range s.amenities {
		c.amenities[id] = a
	}
	return c
}

// Begin locks the store for the duration of one transaction and snapshots
// the state so Rollback can restore it.
func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &memTx{store: s, snapshot: s.state.clone()}, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Hosts returns all host rows, ordered by ID.
func (s *MemoryStore) Hosts() []models.Host {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Host, 0, len(s.state.hosts))
	for _, h := range s.state.hosts {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Listings returns all listing rows, ordered by ID.
func (s *MemoryStore) Listings() []models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Listing, 0, len(s.state.listings))
	for _, l := range s.state.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ImagesFor returns the image rows of one listing in insertion order.
func (s *MemoryStore) ImagesFor(listingID int64) []models.ListingImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ListingImage
	for _, img := range s.state.images {
		if img.ListingID == listingID {
			out = append(out, img)
		}
	}
	return out
}

// Amenities returns all amenity rows, ordered by ID.
func (s *MemoryStore) Amenities() []models.Amenity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Amenity, 0, len(s.state.amenities))
	for _, a := range s.state.amenities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LinksFor returns the amenity join rows of one listing.
func (s *MemoryStore) LinksFor(listingID int64) []models.ListingAmenity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ListingAmenity
	for _, link := range s.state.links {
		if link.ListingID == listingID {
			out = append(out, link)
		}
	}
	return out
}

type memTx struct {
	store    *MemoryStore
	snapshot memState
	done     bool
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.store.state = t.snapshot
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) nextID() int64 {
	t.store.state.nextID++
	return t.store.state.nextID
}

func (t *memTx) FindHostByName(name string) (*models.Host, error) {
	for _, h := range t.store.state.hosts {
		if h.Name == name {
			found := h
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) InsertHost(host *models.Host) (int64, error) {
	for _, h := range t.store.state.hosts {
		if h.Name == host.Name {
			return 0, ErrDuplicate
		}
	}
	row := *host
	row.ID = t.nextID()
	t.store.state.hosts[row.ID] = row
	return row.ID, nil
}

func (t *memTx) FindListing(title, location string, hostID int64) (*models.Listing, error) {
	for _, l := range t.store.state.listings {
		if l.Title == title && l.Location == location && l.HostID == hostID {
			found := l
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) InsertListing(listing *models.Listing) (int64, error) {
	row := *listing
	row.ID = t.nextID()
	t.store.state.listings[row.ID] = row
	return row.ID, nil
}

func (t *memTx) UpdateListing(listing *models.Listing) error {
	if _, ok := t.store.state.listings[listing.ID]; !ok {
		return ErrNotFound
	}
	t.store.state.listings[listing.ID] = *listing
	return nil
}

func (t *memTx) DeleteListingImages(listingID int64) error {
	kept := t.store.state.images[:0]
	for _, img := range t.store.state.images {
		if img.ListingID != listingID {
			kept = append(kept, img)
		}
	}
	t.store.state.images = kept
	return nil
}

func (t *memTx) InsertListingImage(image *models.ListingImage) error {
	row := *image
	row.ID = t.nextID()
	t.store.state.images = append(t.store.state.images, row)
	return nil
}

func (t *memTx) FindAmenityByName(name string) (*models.Amenity, error) {
	for _, a := range t.store.state.amenities {
		if a.Name == name {
			found := a
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) InsertAmenity(name string) (int64, error) {
	for _, a := range t.store.state.amenities {
		if a.Name == name {
			return 0, ErrDuplicate
		}
	}
	row := models.Amenity{ID: t.nextID(), Name: name}
	t.store.state.amenities[row.ID] = row
	return row.ID, nil
}

func (t *memTx) DeleteListingAmenities(listingID int64) error {
	kept := t.store.state.links[:0]
	for _, link := range t.store.state.links {
		if link.ListingID != listingID {
			kept = append(kept, link)
		}
	}
	t.store.state.links = kept
	return nil
}

func (t *memTx) InsertListingAmenity(listingID, amenityID int64) error {
	for _, link := range t.store.state.links {
		if link.ListingID == listingID && link.AmenityID == amenityID {
			return ErrDuplicate
		}
	}
	t.store.state.links = append(t.store.state.links, models.ListingAmenity{
		ID:        t.nextID(),
		ListingID: listingID,
		AmenityID: amenityID,
	})
	return nil
}
