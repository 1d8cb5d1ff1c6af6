package tools

import (
	"context"
	"fmt"

	"github.com/cityops/agentmesh/pkg/datasource"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

func floatArg(args map[string]any, key string, def float64) float64 {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func sumIntField(rows []map[string]any, field string) int {
	total := 0
	for _, row := range rows {
		switch n := row[field].(type) {
		case int:
			total += n
		case float64:
			total += int(n)
		}
	}
	return total
}

func sumFloatField(rows []map[string]any, field string) float64 {
	var total float64
	for _, row := range rows {
		switch n := row[field].(type) {
		case float64:
			total += n
		case int:
			total += float64(n)
		}
	}
	return total
}

func sample(rows []map[string]any, n int) []map[string]any {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}

// WorkerAvailability builds a tool that checks whether enough workers of
// the requested kind are available at a location. factName names the
// data-source fact set (e.g. "available_workers"); rows are expected to
// carry a "count" field that is summed across matching rows.
func WorkerAvailability(factName string) Func {
	return func(ctx context.Context, ds datasource.DataSource, args map[string]any) pipeline.ToolResult {
		location := stringArg(args, "location")
		required := intArg(args, "required", 0)

		rows, err := ds.Query(ctx, factName, datasource.Filter{Location: location})
		if err != nil {
			return ErrorResult(fmt.Sprintf("worker availability query failed: %v", err))
		}

		available := sumIntField(rows, "count")
		return DataResult(map[string]any{
			"available":  available,
			"required":   required,
			"sufficient": available >= required,
			"sample":     sample(rows, 5),
		})
	}
}

// BudgetCheck builds a tool that compares a requested cost against the
// remaining balance on a budget line. factName rows are expected to carry
// a "remaining" field and, optionally, a "limit" field used to compute
// utilisation.
func BudgetCheck(factName string) Func {
	return func(ctx context.Context, ds datasource.DataSource, args map[string]any) pipeline.ToolResult {
		location := stringArg(args, "location")
		cost := floatArg(args, "cost", 0)

		rows, err := ds.Query(ctx, factName, datasource.Filter{Location: location})
		if err != nil {
			return ErrorResult(fmt.Sprintf("budget query failed: %v", err))
		}

		remaining := sumFloatField(rows, "remaining")
		limit := sumFloatField(rows, "limit")
		utilisation := 0.0
		if limit > 0 {
			utilisation = (limit - remaining) / limit
		}
		return DataResult(map[string]any{
			"remaining":       remaining,
			"limit":           limit,
			"cost":            cost,
			"sufficient":      remaining >= cost,
			"utilisation_pct": utilisation * 100,
			"sample":          sample(rows, 5),
		})
	}
}

// ScheduleConflict builds a tool that reports whether any record in
// factName is already booked at a location. Rows are expected to carry a
// "status" field; any row with status "active" or "scheduled" counts as a
// conflict. Row dates are not compared against any requested time window.
func ScheduleConflict(factName string) Func {
	return func(ctx context.Context, ds datasource.DataSource, args map[string]any) pipeline.ToolResult {
		location := stringArg(args, "location")

		rows, err := ds.Query(ctx, factName, datasource.Filter{Location: location})
		if err != nil {
			return ErrorResult(fmt.Sprintf("schedule query failed: %v", err))
		}

		conflicts := 0
		for _, row := range rows {
			if status, _ := row["status"].(string); status == "active" || status == "scheduled" {
				conflicts++
			}
		}
		return DataResult(map[string]any{
			"conflict_count": conflicts,
			"has_conflict":   conflicts > 0,
			"sample":         sample(rows, 5),
		})
	}
}

// InfrastructureCondition builds a tool reporting the worst "condition"
// enum value among matching rows (good < fair < poor < critical).
func InfrastructureCondition(factName string) Func {
	rank := map[string]int{"good": 0, "fair": 1, "poor": 2, "critical": 3}
	return func(ctx context.Context, ds datasource.DataSource, args map[string]any) pipeline.ToolResult {
		location := stringArg(args, "location")

		rows, err := ds.Query(ctx, factName, datasource.Filter{Location: location})
		if err != nil {
			return ErrorResult(fmt.Sprintf("infrastructure query failed: %v", err))
		}

		worst := "good"
		for _, row := range rows {
			cond, _ := row["condition"].(string)
			if cond == "" {
				continue
			}
			if rank[cond] > rank[worst] {
				worst = cond
			}
		}
		return DataResult(map[string]any{
			"condition": worst,
			"sample":    sample(rows, 5),
		})
	}
}

// ZoneRisk builds a tool reporting the "risk_level" of a location's zone.
func ZoneRisk(factName string) Func {
	return func(ctx context.Context, ds datasource.DataSource, args map[string]any) pipeline.ToolResult {
		location := stringArg(args, "location")

		rows, err := ds.Query(ctx, factName, datasource.Filter{Location: location})
		if err != nil {
			return ErrorResult(fmt.Sprintf("zone risk query failed: %v", err))
		}
		if len(rows) == 0 {
			return DataResult(map[string]any{"risk_level": "low", "sample": []map[string]any{}})
		}
		level, _ := rows[0]["risk_level"].(string)
		if level == "" {
			level = "low"
		}
		return DataResult(map[string]any{"risk_level": level, "sample": sample(rows, 5)})
	}
}

// ActiveProjectsCount builds a tool counting rows with status "active" for
// a location, for comparison against a configured cap.
func ActiveProjectsCount(factName string) Func {
	return func(ctx context.Context, ds datasource.DataSource, args map[string]any) pipeline.ToolResult {
		location := stringArg(args, "location")

		rows, err := ds.Query(ctx, factName, datasource.Filter{Location: location, Status: "active"})
		if err != nil {
			return ErrorResult(fmt.Sprintf("active projects query failed: %v", err))
		}
		return DataResult(map[string]any{
			"active_count": len(rows),
			"sample":       sample(rows, 5),
		})
	}
}

// FactLookup builds a tool that returns the raw rows for factName at a
// location, verbatim. Used by informational-query direct responses and
// by simple list-the-facts tools (e.g. "what medical supplies do we have").
func FactLookup(factName string) Func {
	return func(ctx context.Context, ds datasource.DataSource, args map[string]any) pipeline.ToolResult {
		location := stringArg(args, "location")
		rows, err := ds.Query(ctx, factName, datasource.Filter{Location: location})
		if err != nil {
			return ErrorResult(fmt.Sprintf("%s query failed: %v", factName, err))
		}
		return DataResult(map[string]any{
			"count": len(rows),
			"items": rows,
		})
	}
}
