// Package transparency implements an append-only, semantically searchable
// record of agent decisions.
package transparency

import (
	"context"
	"time"
)

// Entry is one append-only transparency record. Created once at write,
// never updated.
type Entry struct {
	LogID            string
	Timestamp        time.Time
	AgentType        string
	NodeName         string
	Decision         string
	Context          map[string]any
	Rationale        string
	Confidence       float64
	CostImpact       float64
	AffectedCitizens int
	PolicyReferences []string
	SearchableText   string
}

// SearchFilter narrows SearchDecisions by agent, node, confidence, or cost.
type SearchFilter struct {
	Agent         string
	Node          string
	MinConfidence float64
	MaxCost       float64
}

// SearchResult is one ranked hit, ordered by similarity (or recency when
// no similarity backend is available).
type SearchResult struct {
	LogID    string
	Text     string
	Metadata map[string]any
	Distance float64
}

// Report is GenerateReport's output.
type Report struct {
	Statistics       map[string]any
	DecisionsByAgent map[string]int
	TopDecisions     []Entry
	RecentDecisions  []Entry
}

// Log is the CORE contract. Writes are append-only; reads never mutate.
type Log interface {
	Append(ctx context.Context, e Entry) error
	SearchDecisions(ctx context.Context, query string, nResults int, filter SearchFilter) ([]SearchResult, error)
	GenerateReport(ctx context.Context, period time.Duration, agent string) (Report, error)
}
