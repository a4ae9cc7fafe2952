package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"airbnb-harvester/models"
	"airbnb-harvester/utils"

	"github.com/lib/pq"
)

// PostgresStore persists the listing schema in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a pooled connection and pings the DB.
func NewPostgresStore(connStr string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return &PostgresStore{db: db, logger: logger}, nil
}

// CreateSchema creates the five relations if they don't exist. Uniqueness on
// hosts.name, amenities.name and the (listing_id, amenity_id) pair is the
// source of truth for resolve-or-create races.
func (s *PostgresStore) CreateSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS hosts (
		id           SERIAL PRIMARY KEY,
		name         TEXT NOT NULL UNIQUE,
		image_url    TEXT,
		is_superhost BOOLEAN NOT NULL DEFAULT FALSE,
		joined_date  DATE
	);

	CREATE TABLE IF NOT EXISTS listings (
		id              SERIAL PRIMARY KEY,
		title           TEXT NOT NULL,
		location        TEXT NOT NULL,
		address         TEXT,
		price_per_night NUMERIC(10,2),
		currency        VARCHAR(10) NOT NULL DEFAULT '$',
		total_price     NUMERIC(10,2),
		rating          NUMERIC(3,2),
		description     TEXT,
		reviews_count   INTEGER NOT NULL DEFAULT 0,
		property_type   VARCHAR(100),
		host_id         INTEGER NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
		created_at      TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS listing_images (
		id         SERIAL PRIMARY KEY,
		listing_id INTEGER NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		image_url  TEXT NOT NULL,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS amenities (
		id   SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS listing_amenities (
		id         SERIAL PRIMARY KEY,
		listing_id INTEGER NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		amenity_id INTEGER NOT NULL REFERENCES amenities(id) ON DELETE CASCADE,
		UNIQUE (listing_id, amenity_id)
	);

	CREATE INDEX IF NOT EXISTS idx_listings_key       ON listings (title, location, host_id);
	CREATE INDEX IF NOT EXISTS idx_listings_location  ON listings (location);
	CREATE INDEX IF NOT EXISTS idx_images_listing     ON listing_images (listing_id);
	CREATE INDEX IF NOT EXISTS idx_joins_listing      ON listing_amenities (listing_id);
	`
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.logger.Info("Listing schema is ready")
	return nil
}

// Begin opens one record's transaction.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

// translateErr maps driver errors to the storage sentinels: no rows becomes
// ErrNotFound, unique_violation (class 23505) becomes ErrDuplicate.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (t *pgTx) FindHostByName(name string) (*models.Host, error) {
	host := &models.Host{}
	err := t.tx.QueryRow(
		`SELECT id, name, image_url, is_superhost, joined_date FROM hosts WHERE name = $1`,
		name,
	).Scan(&host.ID, &host.Name, &host.ImageURL, &host.IsSuperhost, &host.JoinedDate)
	if err != nil {
		return nil, translateErr(err)
	}
	return host, nil
}

// InsertHost uses ON CONFLICT DO NOTHING so a lost uniqueness race surfaces
// as ErrDuplicate without aborting the enclosing transaction.
func (t *pgTx) InsertHost(host *models.Host) (int64, error) {
	var id int64
	err := t.tx.QueryRow(
		`INSERT INTO hosts (name, image_url, is_superhost, joined_date)
		 VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO NOTHING RETURNING id`,
		host.Name, host.ImageURL, host.IsSuperhost, host.JoinedDate,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, translateErr(err)
	}
	return id, nil
}

func (t *pgTx) FindListing(title, location string, hostID int64) (*models.Listing, error) {
	l := &models.Listing{}
	err := t.tx.QueryRow(
		`SELECT id, title, location, address, price_per_night, currency, total_price,
		        rating, description, reviews_count, property_type, host_id, created_at, updated_at
		 FROM listings WHERE title = $1 AND location = $2 AND host_id = $3`,
		title, location, hostID,
	).Scan(&l.ID, &l.Title, &l.Location, &l.Address, &l.PricePerNight, &l.Currency,
		&l.TotalPrice, &l.Rating, &l.Description, &l.ReviewsCount, &l.PropertyType,
		&l.HostID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, translateErr(err)
	}
	return l, nil
}

func (t *pgTx) InsertListing(l *models.Listing) (int64, error) {
	var id int64
	err := t.tx.QueryRow(
		`INSERT INTO listings
		 (title, location, address, price_per_night, currency, total_price,
		  rating, description, reviews_count, property_type, host_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		l.Title, l.Location, l.Address, l.PricePerNight, l.Currency, l.TotalPrice,
		l.Rating, l.Description, l.ReviewsCount, l.PropertyType, l.HostID,
		l.CreatedAt, l.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, translateErr(err)
	}
	return id, nil
}

func (t *pgTx) UpdateListing(l *models.Listing) error {
	_, err := t.tx.Exec(
		`UPDATE listings
		 SET price_per_night = $1, currency = $2, total_price = $3, rating = $4,
		     description = $5, reviews_count = $6, property_type = $7, updated_at = $8
		 WHERE id = $9`,
		l.PricePerNight, l.Currency, l.TotalPrice, l.Rating,
		l.Description, l.ReviewsCount, l.PropertyType, l.UpdatedAt, l.ID,
	)
	return translateErr(err)
}

func (t *pgTx) DeleteListingImages(listingID int64) error {
	_, err := t.tx.Exec(`DELETE FROM listing_images WHERE listing_id = $1`, listingID)
	return translateErr(err)
}

func (t *pgTx) InsertListingImage(image *models.ListingImage) error {
	_, err := t.tx.Exec(
		`INSERT INTO listing_images (listing_id, image_url, is_primary) VALUES ($1, $2, $3)`,
		image.ListingID, image.ImageURL, image.IsPrimary,
	)
	return translateErr(err)
}

func (t *pgTx) FindAmenityByName(name string) (*models.Amenity, error) {
	a := &models.Amenity{}
	err := t.tx.QueryRow(`SELECT id, name FROM amenities WHERE name = $1`, name).
		Scan(&a.ID, &a.Name)
	if err != nil {
		return nil, translateErr(err)
	}
	return a, nil
}

func (t *pgTx) InsertAmenity(name string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(
		`INSERT INTO amenities (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING id`,
		name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, translateErr(err)
	}
	return id, nil
}

func (t *pgTx) DeleteListingAmenities(listingID int64) error {
	_, err := t.tx.Exec(`DELETE FROM listing_amenities WHERE listing_id = $1`, listingID)
	return translateErr(err)
}

func (t *pgTx) InsertListingAmenity(listingID, amenityID int64) error {
	res, err := t.tx.Exec(
		`INSERT INTO listing_amenities (listing_id, amenity_id)
		 VALUES ($1, $2) ON CONFLICT (listing_id, amenity_id) DO NOTHING`,
		listingID, amenityID,
	)
	if err != nil {
		return translateErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback()
}
