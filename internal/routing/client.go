// Package routing fetches route geometry and summaries from an
// OSRM-compatible routing service, caching results behind a quantized
// coordinate key.
package routing

import (
	"context"

	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/route"
)

// Summary is the cheap Phase-1 result: totals only, no geometry.
type Summary struct {
	TotalDistM float64
	TotalTimeS float64
}

// Client is the contract every routing upstream implements: a full fetch
// returning geometry for building a Route, and a summary-only fetch for
// the matching engine's cheap candidate-evaluation phase.
type Client interface {
	// Fetch returns the full route geometry and per-segment annotations
	// between start and dest for the given profile.
	Fetch(ctx context.Context, start, dest domain.Coordinate, profile domain.Profile) (*route.Data, error)

	// FetchSummary returns only the route totals, skipping geometry
	// decoding. Used by the matching engine's Phase 1 to cheaply rank many
	// candidates before committing to a full Fetch.
	FetchSummary(ctx context.Context, start, dest domain.Coordinate, profile domain.Profile) (Summary, error)
}
