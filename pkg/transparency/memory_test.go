package transparency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AppendAssignsIDAndTimestamp(t *testing.T) {
	log := NewMemory()
	require.NoError(t, log.Append(context.Background(), Entry{
		AgentType:      "water",
		NodeName:       "memory_logger",
		Decision:       "recommend",
		SearchableText: "water maintenance at Zone-A",
	}))

	results, err := log.SearchDecisions(context.Background(), "", 10, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].LogID)
}

func TestMemory_SearchRanksLexicalOverlapFirst(t *testing.T) {
	log := NewMemory()
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, Entry{SearchableText: "sanitation bin overflow dispatch at Zone-C"}))
	require.NoError(t, log.Append(ctx, Entry{SearchableText: "water pipeline maintenance inspection at Zone-A"}))
	require.NoError(t, log.Append(ctx, Entry{SearchableText: "finance budget audit for fiscal year"}))

	results, err := log.SearchDecisions(ctx, "pipeline maintenance Zone-A", 3, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Contains(t, results[0].Text, "pipeline maintenance")
	// Distance grows with dissimilarity, so the ranking must be monotonic.
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	assert.LessOrEqual(t, results[1].Distance, results[2].Distance)
}

func TestMemory_EmptyQueryFallsBackToRecency(t *testing.T) {
	log := NewMemory()
	ctx := context.Background()
	older := time.Now().Add(-time.Hour)
	require.NoError(t, log.Append(ctx, Entry{Timestamp: older, SearchableText: "older entry"}))
	require.NoError(t, log.Append(ctx, Entry{SearchableText: "newer entry"}))

	results, err := log.SearchDecisions(ctx, "", 10, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "newer entry", results[0].Text)
}

func TestMemory_SearchHonorsFilters(t *testing.T) {
	log := NewMemory()
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, Entry{AgentType: "water", Confidence: 0.9, CostImpact: 1000, SearchableText: "water high confidence"}))
	require.NoError(t, log.Append(ctx, Entry{AgentType: "water", Confidence: 0.4, CostImpact: 1000, SearchableText: "water low confidence"}))
	require.NoError(t, log.Append(ctx, Entry{AgentType: "fire", Confidence: 0.9, CostImpact: 9_000_000, SearchableText: "fire expensive decision"}))

	results, err := log.SearchDecisions(ctx, "", 10, SearchFilter{Agent: "water", MinConfidence: 0.7})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "water high confidence", results[0].Text)

	results, err = log.SearchDecisions(ctx, "", 10, SearchFilter{MaxCost: 5000})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemory_SearchTruncatesToNResults(t *testing.T) {
	log := NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, log.Append(ctx, Entry{SearchableText: "entry"}))
	}

	results, err := log.SearchDecisions(ctx, "entry", 2, SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemory_GenerateReportCountsByAgentWithinPeriod(t *testing.T) {
	log := NewMemory()
	ctx := context.Background()
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, log.Append(ctx, Entry{AgentType: "water", Timestamp: stale, SearchableText: "stale"}))
	require.NoError(t, log.Append(ctx, Entry{AgentType: "water", CostImpact: 500, SearchableText: "recent cheap"}))
	require.NoError(t, log.Append(ctx, Entry{AgentType: "sanitation", CostImpact: 90000, SearchableText: "recent expensive"}))

	report, err := log.GenerateReport(ctx, 24*time.Hour, "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Statistics["total_decisions"])
	assert.Equal(t, 1, report.DecisionsByAgent["water"])
	assert.Equal(t, 1, report.DecisionsByAgent["sanitation"])
	require.NotEmpty(t, report.TopDecisions)
	assert.Equal(t, "recent expensive", report.TopDecisions[0].SearchableText)
}

func TestMemory_GenerateReportFiltersByAgent(t *testing.T) {
	log := NewMemory()
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, Entry{AgentType: "water", SearchableText: "water entry"}))
	require.NoError(t, log.Append(ctx, Entry{AgentType: "fire", SearchableText: "fire entry"}))

	report, err := log.GenerateReport(ctx, time.Hour, "fire")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Statistics["total_decisions"])
	assert.Zero(t, report.DecisionsByAgent["water"])
}
