// Package datasource defines the read-only facade over persisted domain
// facts. The interface is the core contract; concrete backends (in-memory
// fixtures, postgres) are adapters.
package datasource

import "context"

// sentinelLocations are treated as "no filter": requests for these
// locations return facts across all locations.
var sentinelLocations = map[string]struct{}{
	"general":  {},
	"all":      {},
	"any":      {},
	"city":     {},
	"citywide": {},
}

// IsSentinelLocation reports whether loc should be treated as no-filter.
func IsSentinelLocation(loc string) bool {
	_, ok := sentinelLocations[loc]
	return ok
}

// Filter narrows a Query: all fields are optional (zero value = unfiltered).
type Filter struct {
	Location string
	Status   string
	// RecencyDays, when > 0, restricts results to records newer than N days.
	RecencyDays int
}

// DataSource is the read-only facade every domain agent's Tools are built
// on. Implementations must not perform writes: the core never needs to
// mutate domain facts, only advise.
//
// Query returns a bounded list of records for the named fact set (e.g.
// "available_workers", "budget_lines", "active_incidents"). An unknown
// factName is not an error: it returns an empty list, the same as any
// other "no data" outcome, because callers must never raise on a lookup
// miss.
type DataSource interface {
	Query(ctx context.Context, factName string, filter Filter) ([]map[string]any, error)
}

// FactSet is a named collection of fixture or live records, keyed by
// factName, used by both the in-memory adapter and test fixtures.
type FactSet map[string][]map[string]any
