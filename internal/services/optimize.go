package services

import (
	"context"
	"fmt"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
)

type OptimizeRequest struct {
	Constraints domain.Constraints
	Tuning      ClusterTuning
	Eval        EvalConfig
}

// RouteProposal pairs a proposed route with its feasibility evaluation.
type RouteProposal struct {
	Route   domain.Route
	Metrics RouteMetrics
}

// OptimizationResult is the full output of one optimization run.
// Warnings holds run-level problems (unassignable schools); per-route
// warnings live on each proposal's metrics.
type OptimizationResult struct {
	Proposals []RouteProposal
	Warnings  []domain.RouteWarning
}

// OptimizeRoutes partitions the active roster across vehicle slots and
// returns one evaluated route proposal per slot.
//
// The computation is pure aside from the roster read: no state is retained
// between runs, so operators may re-run it repeatedly before committing.
// Identical input yields identical output.
func OptimizeRoutes(
	ctx context.Context,
	req OptimizeRequest,
	roster ports.RosterProvider,
) (*OptimizationResult, error) {
	schools, err := roster.SchoolsWithActiveStudentCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("optimize routes: load roster: %w", err)
	}

	clusters, warnings, err := BuildClusters(schools, req.Constraints, req.Tuning)
	if err != nil {
		return nil, fmt.Errorf("optimize routes: %w", err)
	}

	result := &OptimizationResult{
		Proposals: make([]RouteProposal, 0, len(clusters)),
		Warnings:  warnings,
	}

	for _, cluster := range clusters {
		route := domain.Route{
			Name:  fmt.Sprintf("Route %d", cluster.Slot.SlotID),
			Stops: SequenceStops(cluster, req.Eval.ArrivalLeadMinutes),
		}

		result.Proposals = append(result.Proposals, RouteProposal{
			Route:   route,
			Metrics: EvaluateRoute(route, req.Constraints, req.Eval),
		})
	}

	return result, nil
}
