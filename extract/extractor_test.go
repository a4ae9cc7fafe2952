package extract

import (
	"strings"
	"testing"
	"time"

	"airbnb-harvester/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonPage = `<html><head>
<script type="application/json">
{"data":{"presentation":{"listing":{
	"title":"Loft","location":"Paris","address":"12 Rue Cler",
	"price":{"amount":120,"currency":"€","total":840},
	"rating":4.8,"reviewsCount":112,
	"description":"Bright loft near the tower.","propertyType":"Apartment",
	"images":["img1.jpg","img2.jpg","img3.jpg"],
	"amenities":["WiFi","WiFi","Pool"],
	"host":{"name":"Ana","imageUrl":"ana.jpg","isSuperhost":true,"joined":"March 2019"}
}}}}
</script>
</head><body>
<h1>Selector Title Should Lose</h1>
<span data-testid="listing-location">Selector Location Should Lose</span>
</body></html>`

const semanticPage = `<html><body>
<h1> Cozy Cabin </h1>
<span data-testid="listing-location">Lake Tahoe</span>
<div data-testid="listing-address">1 Pine Road</div>
<span data-testid="listing-price"><span>$1,234 night</span></span>
<span data-testid="listing-total-price">$2,468 total</span>
<span data-testid="listing-rating">4.92</span>
<span data-testid="listing-reviews-count">87 reviews</span>
<div data-testid="listing-description">A cabin in the woods.</div>
<div data-testid="listing-property-type">Cabin</div>
<img data-testid="listing-image" src="front.jpg"/>
<img data-testid="listing-image" src="back.jpg"/>
<div data-testid="listing-amenities"><div>Fireplace</div><div> fireplace </div><div>Hot tub</div></div>
<div data-testid="host-profile">
	<h2>Bob</h2>
	<img src="bob.jpg"/>
	<div data-testid="superhost-badge"></div>
	<div data-testid="host-joined-date">Joined in June 2017</div>
</div>
</body></html>`

const legacyPage = `<html><body>
<h1>Old Markup Flat</h1>
<div class="_9xiloll">Berlin</div>
<div class="_tyxjp1">56 per night</div>
<div class="_6tbg2q"><img src="legacy1.jpg"/><img src="legacy2.jpg"/></div>
</body></html>`

const malformedJSONPage = `<html><head>
<script type="application/json">{"data": {broken</script>
<script type="application/json">{"unrelated":true}</script>
</head><body>
<h1>Fallback Works</h1>
<span data-testid="listing-location">Lisbon</span>
</body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func newExtractor() *Extractor {
	return New(utils.NewLogger())
}

func TestExtract_JSONSourceWins(t *testing.T) {
	rec := newExtractor().Extract(parseDoc(t, jsonPage))

	require.NotNil(t, rec.Title)
	assert.Equal(t, "Loft", *rec.Title)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Paris", *rec.Location)
	require.NotNil(t, rec.Address)
	assert.Equal(t, "12 Rue Cler", *rec.Address)

	require.NotNil(t, rec.PricePerNight)
	assert.Equal(t, 120.0, *rec.PricePerNight)
	assert.Equal(t, "€", rec.Currency)
	require.NotNil(t, rec.TotalPrice)
	assert.Equal(t, 840.0, *rec.TotalPrice)
	require.NotNil(t, rec.Rating)
	assert.Equal(t, 4.8, *rec.Rating)
	assert.Equal(t, 112, rec.ReviewsCount)
	require.NotNil(t, rec.PropertyType)
	assert.Equal(t, "Apartment", *rec.PropertyType)

	assert.Equal(t, []string{"img1.jpg", "img2.jpg", "img3.jpg"}, rec.ImageURLs)
	// In-record duplicates collapse before the record leaves the extractor.
	assert.Equal(t, []string{"WiFi", "Pool"}, rec.Amenities)

	assert.Equal(t, "Ana", rec.Host.Name)
	require.NotNil(t, rec.Host.ImageURL)
	assert.Equal(t, "ana.jpg", *rec.Host.ImageURL)
	assert.True(t, rec.Host.IsSuperhost)
	require.NotNil(t, rec.Host.JoinedDate)
	assert.Equal(t, time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC), *rec.Host.JoinedDate)
}

func TestExtract_SemanticSelectors(t *testing.T) {
	rec := newExtractor().Extract(parseDoc(t, semanticPage))

	require.NotNil(t, rec.Title)
	assert.Equal(t, "Cozy Cabin", *rec.Title)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Lake Tahoe", *rec.Location)

	require.NotNil(t, rec.PricePerNight)
	assert.Equal(t, 1234.0, *rec.PricePerNight)
	assert.Equal(t, "$", rec.Currency)
	require.NotNil(t, rec.TotalPrice)
	assert.Equal(t, 2468.0, *rec.TotalPrice)
	require.NotNil(t, rec.Rating)
	assert.Equal(t, 4.92, *rec.Rating)
	assert.Equal(t, 87, rec.ReviewsCount)

	assert.Equal(t, []string{"front.jpg", "back.jpg"}, rec.ImageURLs)
	// Case/whitespace variants of the same amenity collapse to one entry.
	assert.Equal(t, []string{"Fireplace", "Hot tub"}, rec.Amenities)

	assert.Equal(t, "Bob", rec.Host.Name)
	assert.True(t, rec.Host.IsSuperhost)
	require.NotNil(t, rec.Host.JoinedDate)
	assert.Equal(t, time.Date(2017, time.June, 1, 0, 0, 0, 0, time.UTC), *rec.Host.JoinedDate)
}

func TestExtract_SuperhostRequiresBadge(t *testing.T) {
	page := `<html><body>
	<h1>No Badge Here</h1>
	<div data-testid="host-profile">
		<h2>Carol is a superhost according to this text</h2>
	</div>
	</body></html>`

	rec := newExtractor().Extract(parseDoc(t, page))
	assert.False(t, rec.Host.IsSuperhost, "superhost must come from the badge marker, not free text")
}

func TestExtract_LegacyFallback(t *testing.T) {
	rec := newExtractor().Extract(parseDoc(t, legacyPage))

	require.NotNil(t, rec.Title)
	assert.Equal(t, "Old Markup Flat", *rec.Title)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Berlin", *rec.Location)
	require.NotNil(t, rec.PricePerNight)
	assert.Equal(t, 56.0, *rec.PricePerNight)
	assert.Equal(t, "$", rec.Currency)
	assert.Equal(t, []string{"legacy1.jpg", "legacy2.jpg"}, rec.ImageURLs)

	// Fields with no legacy fallback stay absent.
	assert.Nil(t, rec.Description)
	assert.Nil(t, rec.Rating)
	assert.Nil(t, rec.PropertyType)
	assert.Empty(t, rec.Amenities)
	assert.Empty(t, rec.Host.Name)
}

func TestExtract_MalformedJSONFallsBackToSelectors(t *testing.T) {
	rec := newExtractor().Extract(parseDoc(t, malformedJSONPage))

	require.NotNil(t, rec.Title)
	assert.Equal(t, "Fallback Works", *rec.Title)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Lisbon", *rec.Location)
}

func TestExtract_EmptyPageStillProducesRecord(t *testing.T) {
	rec := newExtractor().Extract(parseDoc(t, `<html><body><p>nothing here</p></body></html>`))

	require.NotNil(t, rec)
	assert.Nil(t, rec.Title)
	assert.Nil(t, rec.Location)
	assert.Nil(t, rec.PricePerNight)
	assert.Equal(t, 0, rec.ReviewsCount)
	assert.Empty(t, rec.ImageURLs)
}

func TestExtract_JSONFieldGapsFilledBySelectors(t *testing.T) {
	// JSON knows the title but not the location; the semantic source fills
	// the gap.
	page := `<html><head>
	<script type="application/json">
	{"data":{"presentation":{"listing":{"title":"Partial"}}}}
	</script>
	</head><body>
	<span data-testid="listing-location">Oslo</span>
	</body></html>`

	rec := newExtractor().Extract(parseDoc(t, page))
	require.NotNil(t, rec.Title)
	assert.Equal(t, "Partial", *rec.Title)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Oslo", *rec.Location)
}
