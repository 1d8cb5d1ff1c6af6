package datasource

import (
	"context"
	"time"
)

// Memory is an in-process DataSource backed by a fixed FactSet, used in
// tests and as the default adapter when no postgres DSN is configured.
// Safe for concurrent reads; FactSet is expected to be set up once before
// use and not mutated afterward.
type Memory struct {
	facts FactSet
}

// NewMemory creates an in-memory DataSource over facts. A nil facts map
// behaves like an empty fixture set (every Query returns no rows).
func NewMemory(facts FactSet) *Memory {
	if facts == nil {
		facts = FactSet{}
	}
	return &Memory{facts: facts}
}

// Query implements DataSource.
func (m *Memory) Query(_ context.Context, factName string, filter Filter) ([]map[string]any, error) {
	rows, ok := m.facts[factName]
	if !ok {
		return []map[string]any{}, nil
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if filter.Location != "" && !IsSentinelLocation(filter.Location) {
			if loc, ok := row["location"].(string); ok && loc != filter.Location {
				continue
			}
		}
		if filter.Status != "" {
			if status, ok := row["status"].(string); ok && status != filter.Status {
				continue
			}
		}
		if filter.RecencyDays > 0 {
			if ts, ok := row["timestamp"].(time.Time); ok {
				if time.Since(ts) > time.Duration(filter.RecencyDays)*24*time.Hour {
					continue
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// Set replaces (or adds) the rows for factName. Intended for test setup.
func (m *Memory) Set(factName string, rows []map[string]any) {
	m.facts[factName] = rows
}
