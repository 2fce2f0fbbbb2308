package models

// Extraction methods recorded on a PageExtraction.
const (
	MethodTier1  = "tier1"
	MethodTier2  = "tier2"
	MethodFailed = "failed"
)

// Caps on the signal lists stored on a PageExtraction.
const (
	MaxPricesStored  = 5
	MaxBonusesStored = 5
)

// PageExtraction is everything known about one fetched page.
//
// A value is built fresh per extraction and must not be mutated after it is
// returned by the coordinator: the cache hands the same pointer to every
// caller until the entry expires.
type PageExtraction struct {
	// URL is the requested URL, rewritten to the final redirect target
	// when the fetch followed redirects.
	URL string `json:"url"`

	Title       string `json:"title"`
	Description string `json:"description"`

	// Summary holds at most three sentences drawn from CleanText,
	// capped at 400 characters plus an optional "..." marker.
	Summary string `json:"summary"`

	// CleanText is the normalized, line-deduplicated text body.
	CleanText string `json:"cleanText"`

	// Price is the first detected price, kept for the local responder.
	Price string `json:"price"`

	// PricesDetected holds up to MaxPricesStored distinct price strings
	// in the order they appear on the page.
	PricesDetected []string `json:"price_detected"`

	// BonusesDetected holds up to MaxBonusesStored distinct offer lines.
	BonusesDetected []string `json:"bonuses_detected"`

	// Method is one of MethodTier1, MethodTier2, MethodFailed.
	Method string `json:"method"`

	// ExtractionTime is the elapsed extraction time in milliseconds.
	ExtractionTime int64 `json:"extractionTime"`

	// Error is set only when Method is MethodFailed.
	Error string `json:"error,omitempty"`

	// CustomInstructions echoes the caller's instructions on /extract.
	CustomInstructions string `json:"custom_instructions,omitempty"`
}

// Failed reports whether the extraction produced nothing usable.
func (p *PageExtraction) Failed() bool {
	return p == nil || p.Method == MethodFailed
}

// NewFailedExtraction builds the well-formed record returned when every
// extraction strategy failed. All text fields are empty and Error is set.
func NewFailedExtraction(url string, elapsedMs int64, reason string) *PageExtraction {
	if reason == "" {
		reason = "extraction failed"
	}
	return &PageExtraction{
		URL:             url,
		PricesDetected:  []string{},
		BonusesDetected: []string{},
		Method:          MethodFailed,
		ExtractionTime:  elapsedMs,
		Error:           reason,
	}
}
