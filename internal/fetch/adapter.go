package fetch

import (
	"context"

	"qualsight/internal/model"
)

// SourceAdapter is the contract every data provider implements. Adapters are
// independent and hold no shared state; each call performs its own network
// round-trips.
//
// Both methods degrade instead of failing hard: Search returns an empty slice
// when the provider is unreachable or the payload is unparseable, and Fetch
// returns (nil, err) or (nil, nil) when no data could be located. The
// orchestrator treats an error the same as an absent result and moves on to
// the next adapter, so errors exist for logging only and never abort a
// fallback chain.
type SourceAdapter interface {
	// Name identifies the adapter in logs and provenance metadata
	Name() string

	// Search looks up companies matching a free-form query
	Search(ctx context.Context, query string) ([]model.CompanyMatch, error)

	// Fetch retrieves up to `years` most recent fiscal periods for an
	// identifier. A nil record with a nil error means the provider had no
	// data for this identifier. Partial records are returned as-is; the
	// caller decides usability.
	Fetch(ctx context.Context, identifier string, years int) (*model.FinancialRecord, error)
}
