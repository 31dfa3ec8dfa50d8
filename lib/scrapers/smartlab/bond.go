package smartlab

// Unknown is the sentinel for fields the page did not yield a usable
// value for. Degraded records are still emitted, never dropped.
const Unknown = "unknown"

type Bond struct {
	ISIN string
	Name string
	// yield to maturity in percent. malformed cells coerce to 0 rather
	// than an error or a null, ranking relies on this always being a
	// finite number.
	Yield           float64
	Rating          string
	MaturityYears   float64
	MaturityDisplay string
	// offer (put/call) date as shown on the page, Unknown when the cell
	// is empty, a dash, unparseable or already in the past.
	OfferDate    string
	YearsToOffer *float64
}
