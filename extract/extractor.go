// Package extract turns one fetched listing page into a canonical
// ListingRecord. A page may expose the same facts through an embedded JSON
// blob, semantic data-testid markup, or legacy obfuscated class names; the
// extractor tries those sources in that fixed order and keeps the first
// usable value per field.
package extract

import (
	"encoding/json"
	"time"

	"airbnb-harvester/models"
	"airbnb-harvester/normalize"
	"airbnb-harvester/utils"

	"github.com/PuerkitoBio/goquery"
)

// Extractor produces a ListingRecord from a parsed page. It never fails:
// fields the page does not expose are simply absent from the record.
type Extractor struct {
	logger *utils.Logger
}

// New creates a new Extractor.
func New(logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// partial is one source's contribution to the record. Nil fields mean the
// source has no opinion, so a later source may still fill them.
type partial struct {
	Title         *string
	Location      *string
	Address       *string
	PricePerNight *float64
	Currency      string
	TotalPrice    *float64
	Rating        *float64
	Description   *string
	ReviewsCount  *int
	PropertyType  *string
	ImageURLs     []string
	Amenities     []string
	HostName      *string
	HostImageURL  *string
	HostSuperhost *bool
	HostJoined    *time.Time
}

// source is a pure extraction strategy over the parsed document.
type source func(doc *goquery.Document) partial

// Extract runs every source in rank order and merges their partials
// left-to-right, keeping the first non-absent value per field.
func (e *Extractor) Extract(doc *goquery.Document) *models.ListingRecord {
	sources := []source{e.jsonSource, semanticSource, legacySource}

	var merged partial
	for _, src := range sources {
		merged = merge(merged, src(doc))
	}
	return assemble(merged)
}

// merge keeps a's values and fills gaps from b.
func merge(a, b partial) partial {
	if a.Title == nil {
		a.Title = b.Title
	}
	if a.Location == nil {
		a.Location = b.Location
	}
	if a.Address == nil {
		a.Address = b.Address
	}
	if a.PricePerNight == nil {
		a.PricePerNight = b.PricePerNight
		if a.Currency == "" {
			a.Currency = b.Currency
		}
	}
	if a.TotalPrice == nil {
		a.TotalPrice = b.TotalPrice
	}
	if a.Rating == nil {
		a.Rating = b.Rating
	}
	if a.Description == nil {
		a.Description = b.Description
	}
	if a.ReviewsCount == nil {
		a.ReviewsCount = b.ReviewsCount
	}
	if a.PropertyType == nil {
		a.PropertyType = b.PropertyType
	}
	if len(a.ImageURLs) == 0 {
		a.ImageURLs = b.ImageURLs
	}
	if len(a.Amenities) == 0 {
		a.Amenities = b.Amenities
	}
	if a.HostName == nil {
		a.HostName = b.HostName
	}
	if a.HostImageURL == nil {
		a.HostImageURL = b.HostImageURL
	}
	if a.HostSuperhost == nil {
		a.HostSuperhost = b.HostSuperhost
	}
	if a.HostJoined == nil {
		a.HostJoined = b.HostJoined
	}
	return a
}

// assemble turns the merged partial into the canonical record, applying
// defaults and collapsing duplicate amenities.
func assemble(p partial) *models.ListingRecord {
	rec := &models.ListingRecord{
		Title:         p.Title,
		Location:      p.Location,
		Address:       p.Address,
		PricePerNight: p.PricePerNight,
		Currency:      p.Currency,
		TotalPrice:    p.TotalPrice,
		Rating:        p.Rating,
		Description:   p.Description,
		PropertyType:  p.PropertyType,
		ImageURLs:     p.ImageURLs,
		ExtractedAt:   time.Now(),
	}
	if rec.Currency == "" {
		rec.Currency = normalize.DefaultCurrency
	}
	if p.ReviewsCount != nil {
		rec.ReviewsCount = *p.ReviewsCount
	}

	seen := make(map[string]bool)
	for _, name := range p.Amenities {
		trimmed := normalize.Text(name)
		if trimmed == nil {
			continue
		}
		key := normalize.AmenityKey(*trimmed)
		if seen[key] {
			continue
		}
		seen[key] = true
		rec.Amenities = append(rec.Amenities, *trimmed)
	}

	if p.HostName != nil {
		rec.Host.Name = *p.HostName
	}
	rec.Host.ImageURL = p.HostImageURL
	if p.HostSuperhost != nil {
		rec.Host.IsSuperhost = *p.HostSuperhost
	}
	rec.Host.JoinedDate = p.HostJoined
	return rec
}

// jsonSource scans embedded JSON payloads and uses the first one whose shape
// matches the expected data.presentation path. A payload that fails to
// decode is discarded as a candidate; extraction then falls back to the
// selector sources.
func (e *Extractor) jsonSource(doc *goquery.Document) partial {
	var p partial

	doc.Find(jsonScriptSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			e.logger.Debug("Discarding malformed JSON payload: %v", err)
			return true
		}
		listing, ok := presentationListing(payload)
		if !ok {
			return true
		}
		p = jsonPartial(listing)
		return false
	})
	return p
}

// presentationListing checks the known nested key sequence and returns the
// listing object beneath it.
func presentationListing(payload map[string]interface{}) (map[string]interface{}, bool) {
	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	presentation, ok := data["presentation"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	listing, ok := presentation["listing"].(map[string]interface{})
	return listing, ok
}

func jsonPartial(listing map[string]interface{}) partial {
	p := partial{
		Title:        jsonText(listing, "title"),
		Location:     jsonText(listing, "location"),
		Address:      jsonText(listing, "address"),
		Description:  jsonText(listing, "description"),
		PropertyType: jsonText(listing, "propertyType"),
		ImageURLs:    jsonStrings(listing, "images"),
		Amenities:    jsonStrings(listing, "amenities"),
	}

	if price, ok := listing["price"].(map[string]interface{}); ok {
		if amount, ok := price["amount"].(float64); ok {
			p.PricePerNight = &amount
			if cur := jsonText(price, "currency"); cur != nil {
				p.Currency = *cur
			}
		}
		if total, ok := price["total"].(float64); ok {
			p.TotalPrice = &total
		}
	}
	if rating, ok := listing["rating"].(float64); ok && rating >= 0 && rating <= 5 {
		p.Rating = &rating
	}
	if reviews, ok := listing["reviewsCount"].(float64); ok {
		n := int(reviews)
		p.ReviewsCount = &n
	}

	if host, ok := listing["host"].(map[string]interface{}); ok {
		p.HostName = jsonText(host, "name")
		p.HostImageURL = jsonText(host, "imageUrl")
		if super, ok := host["isSuperhost"].(bool); ok {
			p.HostSuperhost = &super
		}
		if joined, ok := host["joined"].(string); ok {
			p.HostJoined = normalize.JoinDate(joined)
		}
	}
	return p
}

func jsonText(m map[string]interface{}, key string) *string {
	s, ok := m[key].(string)
	if !ok {
		return nil
	}
	return normalize.Text(s)
}

func jsonStrings(m map[string]interface{}, key string) []string {
	items, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// semanticSource extracts from attribute-based markup (data-testid et al).
func semanticSource(doc *goquery.Document) partial {
	p := partial{
		Title:        selectionText(doc, titleSelector),
		Location:     selectionText(doc, locationSelector),
		Address:      selectionText(doc, addressSelector),
		Description:  selectionText(doc, descriptionSelector),
		PropertyType: selectionText(doc, propertyTypeSelector),
	}

	if raw := selectionText(doc, priceSelector); raw != nil {
		price, currency := normalize.PriceWithCurrency(*raw)
		if price != nil {
			p.PricePerNight = price
			p.Currency = currency
		}
	}
	if raw := selectionText(doc, totalPriceSelector); raw != nil {
		p.TotalPrice = normalize.Price(*raw)
	}
	if raw := selectionText(doc, ratingSelector); raw != nil {
		p.Rating = normalize.Rating(*raw)
	}
	if raw := selectionText(doc, reviewsSelector); raw != nil {
		n := normalize.Count(*raw)
		p.ReviewsCount = &n
	}

	doc.Find(imageSelector).Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			p.ImageURLs = append(p.ImageURLs, src)
		}
	})
	doc.Find(amenitiesSelector).Each(func(_ int, s *goquery.Selection) {
		if name := normalize.Text(s.Text()); name != nil {
			p.Amenities = append(p.Amenities, *name)
		}
	})

	host := doc.Find(hostProfileSelector).First()
	if host.Length() > 0 {
		if name := normalize.Text(host.Find(hostNameSelector).First().Text()); name != nil {
			p.HostName = name
		}
		if src, ok := host.Find(hostImageSelector).First().Attr("src"); ok && src != "" {
			p.HostImageURL = &src
		}
		// The badge marker is the only superhost signal, never free text.
		super := host.Find(superhostBadgeSelector).Length() > 0
		p.HostSuperhost = &super
		p.HostJoined = normalize.JoinDate(host.Find(hostJoinedSelector).First().Text())
	}
	return p
}

// legacySource is the last resort and only covers title, location, price,
// currency and images; every other field stays absent here.
func legacySource(doc *goquery.Document) partial {
	p := partial{
		Title:    selectionText(doc, titleSelector),
		Location: selectionText(doc, legacyLocationSelector),
	}
	if raw := selectionText(doc, legacyPriceSelector); raw != nil {
		if price := normalize.Price(*raw); price != nil {
			p.PricePerNight = price
			p.Currency = normalize.DefaultCurrency
		}
	}
	doc.Find(legacyImageSelector).Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			p.ImageURLs = append(p.ImageURLs, src)
		}
	})
	return p
}

func selectionText(doc *goquery.Document, selector string) *string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return normalize.Text(sel.Text())
}
