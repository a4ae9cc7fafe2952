package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"airbnb-harvester/extract"
	"airbnb-harvester/reconcile"
	"airbnb-harvester/storage"
	"airbnb-harvester/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loftPage = `<html><head>
<script type="application/json">
{"data":{"presentation":{"listing":{
	"title":"Loft","location":"Paris",
	"price":{"amount":120,"currency":"€"},
	"images":["1.jpg","2.jpg","3.jpg"],
	"amenities":["WiFi","WiFi","Pool"],
	"host":{"name":"Ana"}
}}}}
</script>
</head><body></body></html>`

// Same listing but the JSON payload is gone; semantic selectors recover the
// identity fields.
const loftFallbackPage = `<html><body>
<h1>Loft</h1>
<span data-testid="listing-location">Paris</span>
<span data-testid="listing-price"><span>€150 night</span></span>
<div data-testid="host-profile"><h2>Ana</h2></div>
</body></html>`

const emptyPage = `<html><body><p>nothing extractable</p></body></html>`

func newDriver(store storage.Store, workers int) *Driver {
	logger := utils.NewLogger()
	return NewDriver(extract.New(logger), reconcile.New(store, logger), workers, logger)
}

func feed(pages ...Page) <-chan Page {
	ch := make(chan Page, len(pages))
	for _, p := range pages {
		ch <- p
	}
	close(ch)
	return ch
}

func TestDriver_EndToEnd(t *testing.T) {
	store := storage.NewMemoryStore()
	d := newDriver(store, 1)

	results := d.Run(context.Background(), feed(Page{URL: "https://x/rooms/1", HTML: loftPage}))
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeStored, results[0].Outcome)

	listings := store.Listings()
	require.Len(t, listings, 1)
	assert.Equal(t, "Loft", listings[0].Title)

	images := store.ImagesFor(listings[0].ID)
	require.Len(t, images, 3)
	assert.True(t, images[0].IsPrimary)
	assert.False(t, images[1].IsPrimary)
	assert.False(t, images[2].IsPrimary)

	assert.Len(t, store.Amenities(), 2)
}

func TestDriver_FallbackRunUpdatesSameListing(t *testing.T) {
	store := storage.NewMemoryStore()
	d := newDriver(store, 1)
	ctx := context.Background()

	res := d.Process(ctx, Page{URL: "https://x/rooms/1", HTML: loftPage})
	require.Equal(t, OutcomeStored, res.Outcome)

	// Second run: JSON source dropped, selectors recover the same key.
	res = d.Process(ctx, Page{URL: "https://x/rooms/1", HTML: loftFallbackPage})
	require.Equal(t, OutcomeStored, res.Outcome)

	listings := store.Listings()
	require.Len(t, listings, 1, "fallback run must update the same listing, not duplicate it")
	require.NotNil(t, listings[0].PricePerNight)
	assert.Equal(t, 150.0, *listings[0].PricePerNight)
	assert.Equal(t, "€", listings[0].Currency)
	require.Len(t, store.Hosts(), 1)
}

func TestDriver_SkipsMalformedRecords(t *testing.T) {
	store := storage.NewMemoryStore()
	d := newDriver(store, 1)

	res := d.Process(context.Background(), Page{URL: "https://x/rooms/2", HTML: emptyPage})
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, store.Listings())
}

func TestDriver_RunContinuesPastFailures(t *testing.T) {
	store := &brokenStore{}
	d := newDriver(store, 1)

	results := d.Run(context.Background(), feed(
		Page{URL: "https://x/rooms/1", HTML: loftPage},
		Page{URL: "https://x/rooms/2", HTML: loftFallbackPage},
	))

	require.Len(t, results, 2)
	tally := Count(results)
	assert.Equal(t, 2, tally.Failed)
	assert.Equal(t, 0, tally.Stored)
}

func TestDriver_CancellationStopsPickingUpPages(t *testing.T) {
	store := storage.NewMemoryStore()
	d := newDriver(store, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Channel never closes; workers must exit via ctx instead of blocking.
	pages := make(chan Page)
	done := make(chan []Result, 1)
	go func() { done <- d.Run(ctx, pages) }()

	select {
	case results := <-done:
		assert.Empty(t, results)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "stored", OutcomeStored.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}

func TestStoredAndExtractedRecords(t *testing.T) {
	store := storage.NewMemoryStore()
	d := newDriver(store, 1)
	ctx := context.Background()

	results := []Result{
		d.Process(ctx, Page{URL: "https://x/rooms/1", HTML: loftPage}),
		d.Process(ctx, Page{URL: "https://x/rooms/2", HTML: emptyPage}),
	}

	assert.Len(t, StoredRecords(results), 1)
	// The skipped page still produced a (useless) record for the audit trail.
	assert.Len(t, ExtractedRecords(results), 2)
}

// brokenStore fails every Begin, turning each record into a fatal
// reconciliation error.
type brokenStore struct{}

func (s *brokenStore) Begin(ctx context.Context) (storage.Tx, error) {
	return nil, errors.New("connection refused")
}

func (s *brokenStore) Close() error { return nil }
