package extract

// CSS selectors used by the selector-based sources. Centralising them makes
// future markup updates trivial.
const (
	// Embedded JSON payload candidates
	jsonScriptSelector = `script[type="application/json"]`

	// Semantic (attribute-based) markup
	titleSelector        = `h1`
	locationSelector     = `span[data-testid="listing-location"]`
	addressSelector      = `div[data-testid="listing-address"]`
	priceSelector        = `span[data-testid="listing-price"] span`
	totalPriceSelector   = `span[data-testid="listing-total-price"]`
	ratingSelector       = `span[data-testid="listing-rating"]`
	reviewsSelector      = `span[data-testid="listing-reviews-count"]`
	descriptionSelector  = `div[data-testid="listing-description"]`
	propertyTypeSelector = `div[data-testid="listing-property-type"]`
	imageSelector        = `img[data-testid="listing-image"]`
	amenitiesSelector    = `div[data-testid="listing-amenities"] div`

	hostProfileSelector    = `div[data-testid="host-profile"]`
	hostNameSelector       = `h2`
	hostImageSelector      = `img`
	superhostBadgeSelector = `div[data-testid="superhost-badge"]`
	hostJoinedSelector     = `div[data-testid="host-joined-date"]`

	// Legacy obfuscated class names, last-resort fallback for a handful of
	// fields only
	legacyLocationSelector = `._9xiloll`
	legacyPriceSelector    = `._tyxjp1`
	legacyImageSelector    = `._6tbg2q img`
)
