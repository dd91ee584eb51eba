package count

// Range is a plausibility filter for parsed counts. Max == 0 means unbounded.
type Range struct {
	Min int64
	Max int64
}

var (
	// StructuralRange suits sources that locate the follower figure by markup:
	// anything above 1,000 is believed.
	StructuralRange = Range{Min: 1001}

	// GenericRange suits sources that scan every number on a page, where
	// view counts, ranks and dates would otherwise pass as follower counts.
	GenericRange = Range{Min: 100_000, Max: 500_000_000}
)

// Contains reports whether n falls inside the range.
func (r Range) Contains(n int64) bool {
	if n < r.Min {
		return false
	}
	return r.Max == 0 || n <= r.Max
}
