package transparency

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// embed computes a deterministic bag-of-words term-frequency vector. It
// stands in for a real embedding backend: good enough to rank by lexical
// overlap without an external dependency or network call.
func embed(text string) map[string]float64 {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	vec := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		vec[tok]++
	}
	return vec
}

func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for tok, va := range a {
		normA += va * va
		if vb, ok := b[tok]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type storedEntry struct {
	entry     Entry
	embedding map[string]float64
}

// Memory is an in-process, append-only Log with a bag-of-words similarity
// index and a timestamp fallback for unscored queries. Safe for concurrent
// use.
type Memory struct {
	mu      sync.RWMutex
	entries []storedEntry
}

// NewMemory creates an empty in-memory transparency log.
func NewMemory() *Memory {
	return &Memory{}
}

// Append implements Log. Failures here are deliberately impossible by
// construction (no I/O); callers still treat Append as best-effort and
// swallow any error it returns.
func (m *Memory) Append(_ context.Context, e Entry) error {
	if e.LogID == "" {
		e.LogID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, storedEntry{entry: e, embedding: embed(e.SearchableText)})
	return nil
}

// SearchDecisions implements Log. query == "" falls back to pure recency
// ordering.
func (m *Memory) SearchDecisions(_ context.Context, query string, nResults int, filter SearchFilter) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]storedEntry, 0, len(m.entries))
	for _, se := range m.entries {
		if filter.Agent != "" && se.entry.AgentType != filter.Agent {
			continue
		}
		if filter.Node != "" && se.entry.NodeName != filter.Node {
			continue
		}
		if filter.MinConfidence > 0 && se.entry.Confidence < filter.MinConfidence {
			continue
		}
		if filter.MaxCost > 0 && se.entry.CostImpact > filter.MaxCost {
			continue
		}
		matches = append(matches, se)
	}

	var results []SearchResult
	if query == "" {
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].entry.Timestamp.After(matches[j].entry.Timestamp)
		})
		for _, se := range matches {
			results = append(results, SearchResult{
				LogID: se.entry.LogID,
				Text:  se.entry.SearchableText,
				Metadata: map[string]any{
					"agent_type": se.entry.AgentType,
					"node_name":  se.entry.NodeName,
					"decision":   se.entry.Decision,
				},
				Distance: 0,
			})
		}
	} else {
		queryVec := embed(query)
		type scored struct {
			se    storedEntry
			score float64
		}
		scoredMatches := make([]scored, 0, len(matches))
		for _, se := range matches {
			scoredMatches = append(scoredMatches, scored{se: se, score: cosineSimilarity(queryVec, se.embedding)})
		}
		sort.Slice(scoredMatches, func(i, j int) bool { return scoredMatches[i].score > scoredMatches[j].score })
		for _, sm := range scoredMatches {
			results = append(results, SearchResult{
				LogID: sm.se.entry.LogID,
				Text:  sm.se.entry.SearchableText,
				Metadata: map[string]any{
					"agent_type": sm.se.entry.AgentType,
					"node_name":  sm.se.entry.NodeName,
					"decision":   sm.se.entry.Decision,
				},
				Distance: 1 - sm.score,
			})
		}
	}

	if nResults > 0 && len(results) > nResults {
		results = results[:nResults]
	}
	return results, nil
}

// GenerateReport implements Log.
func (m *Memory) GenerateReport(_ context.Context, period time.Duration, agent string) (Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().Add(-period)
	decisionsByAgent := make(map[string]int)
	var inPeriod []Entry
	for _, se := range m.entries {
		if agent != "" && se.entry.AgentType != agent {
			continue
		}
		if se.entry.Timestamp.Before(cutoff) {
			continue
		}
		inPeriod = append(inPeriod, se.entry)
		decisionsByAgent[se.entry.AgentType]++
	}

	sorted := make([]Entry, len(inPeriod))
	copy(sorted, inPeriod)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })

	topByCost := make([]Entry, len(sorted))
	copy(topByCost, sorted)
	sort.Slice(topByCost, func(i, j int) bool { return topByCost[i].CostImpact > topByCost[j].CostImpact })

	recentLimit := 10
	if len(sorted) < recentLimit {
		recentLimit = len(sorted)
	}
	topLimit := 10
	if len(topByCost) < topLimit {
		topLimit = len(topByCost)
	}

	return Report{
		Statistics: map[string]any{
			"total_decisions": len(inPeriod),
			"period_seconds":  period.Seconds(),
		},
		DecisionsByAgent: decisionsByAgent,
		TopDecisions:     topByCost[:topLimit],
		RecentDecisions:  sorted[:recentLimit],
	}, nil
}
