package validate

import (
	"context"
	"fmt"
	"strings"

	"qualsight/internal/model"
	"qualsight/internal/ticker"
	"qualsight/pkg/logger"
)

// Searcher is the slice of the source-adapter contract the validator needs
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.CompanyMatch, error)
}

// ProfileLookup resolves a symbol directly to a company display name
type ProfileLookup interface {
	FetchProfileName(ctx context.Context, symbol string) (string, error)
}

// Result is the outcome of validating a user-supplied identifier
type Result struct {
	Valid     bool                 `json:"valid"`
	Matches   []model.CompanyMatch `json:"matches,omitempty"`
	BestMatch *model.CompanyMatch  `json:"best_match,omitempty"`
	Message   string               `json:"error,omitempty"`
}

// Validator decides whether a user-entered string plausibly names a real
// company before a full fetch is committed. Providers are optional; a nil
// Searcher or ProfileLookup is simply skipped, mirroring how a missing
// credential omits an adapter.
type Validator struct {
	resolver     *ticker.Resolver
	fundSearch   Searcher      // fundamentals API search, most comprehensive
	marketSearch Searcher      // market API search
	profiles     ProfileLookup // direct symbol → name lookup
	log          *logger.Logger
}

// NewValidator creates a validator over the available providers
func NewValidator(resolver *ticker.Resolver, fundSearch, marketSearch Searcher, profiles ProfileLookup, log *logger.Logger) *Validator {
	return &Validator{
		resolver:     resolver,
		fundSearch:   fundSearch,
		marketSearch: marketSearch,
		profiles:     profiles,
		log:          log,
	}
}

// Validate runs the lookup chain in priority order, short-circuiting on the
// first provider that returns a non-echo company name
func (v *Validator) Validate(ctx context.Context, input string) Result {
	query := strings.TrimSpace(input)
	if query == "" {
		return Result{Message: "Company name or ticker cannot be empty"}
	}

	tickerShaped := isTickerShaped(query)
	variants := v.queryVariants(query, tickerShaped)

	if v.fundSearch != nil {
		if result, ok := v.trySearch(ctx, v.fundSearch, query, variants); ok {
			return result
		}
	}

	if v.marketSearch != nil {
		if result, ok := v.trySearch(ctx, v.marketSearch, query, variants); ok {
			return result
		}
	}

	if tickerShaped && v.profiles != nil {
		if result, ok := v.tryProfileLookup(ctx, query, variants); ok {
			return result
		}
	}

	if tickerShaped {
		if result, ok := v.tryKnownNames(query); ok {
			return result
		}
	}

	if tickerShaped {
		return Result{Message: fmt.Sprintf("Ticker '%s' not found. Please verify the ticker symbol.", query)}
	}
	return Result{Message: fmt.Sprintf("No matching companies found for '%s'. Please check the spelling or try entering a ticker symbol.", query)}
}

// queryVariants expands a ticker-shaped query with the NSE-suffixed form for
// known Indian symbols, improving API hit rates
func (v *Validator) queryVariants(query string, tickerShaped bool) []string {
	variants := []string{query}
	if !tickerShaped {
		return variants
	}

	upper := strings.ToUpper(query)
	base := ticker.StripSuffix(upper)
	if base == upper && v.resolver.IsIndian(base) {
		variants = append(variants, base+ticker.SuffixNSE)
	}
	return variants
}

// trySearch accepts a provider's matches only when at least one returned
// name is not an echo of the query. Several providers hand back the query
// string as a placeholder "name" instead of failing, which would otherwise
// manufacture false positives.
func (v *Validator) trySearch(ctx context.Context, searcher Searcher, query string, variants []string) (Result, bool) {
	for _, variant := range variants {
		matches, err := searcher.Search(ctx, variant)
		if err != nil {
			v.log.WithError(err).WithField("query", variant).Debug("Validation search failed, trying next provider")
			continue
		}
		if len(matches) == 0 {
			continue
		}
		if !anyNonEcho(matches, query, variant) {
			continue
		}
		return Result{
			Valid:     true,
			Matches:   matches,
			BestMatch: &matches[0],
		}, true
	}
	return Result{}, false
}

// tryProfileLookup confirms a ticker-shaped query by fetching its profile
// directly, for symbols the search endpoints miss
func (v *Validator) tryProfileLookup(ctx context.Context, query string, variants []string) (Result, bool) {
	for _, variant := range variants {
		name, err := v.profiles.FetchProfileName(ctx, variant)
		if err != nil || name == "" {
			continue
		}
		if isEcho(name, query, variant) {
			continue
		}

		symbol := strings.ToUpper(query)
		if strings.Contains(variant, ".") {
			symbol = variant
		}
		match := model.CompanyMatch{Name: name, Ticker: symbol}
		return Result{
			Valid:     true,
			Matches:   []model.CompanyMatch{match},
			BestMatch: &match,
		}, true
	}
	return Result{}, false
}

// tryKnownNames is the last resort: the static table of well-known Indian
// symbols, for when every provider is down or rate-limited
func (v *Validator) tryKnownNames(query string) (Result, bool) {
	upper := strings.ToUpper(query)
	name, ok := v.resolver.KnownName(upper)
	if !ok {
		return Result{}, false
	}

	symbol := upper
	if !strings.Contains(upper, ".") {
		symbol = ticker.StripSuffix(upper) + ticker.SuffixNSE
	}
	match := model.CompanyMatch{Name: name, Ticker: symbol}
	return Result{
		Valid:     true,
		Matches:   []model.CompanyMatch{match},
		BestMatch: &match,
	}, true
}

// isTickerShaped classifies the input: short, alphanumeric once separators
// are stripped, and fully upper-case reads as a ticker rather than a name
func isTickerShaped(query string) bool {
	if len(query) > 10 {
		return false
	}
	stripped := strings.NewReplacer(".", "", "-", "").Replace(query)
	if stripped == "" {
		return false
	}
	hasLetter := false
	for _, r := range stripped {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return hasLetter
}

func anyNonEcho(matches []model.CompanyMatch, query, variant string) bool {
	for _, m := range matches {
		if !isEcho(m.Name, query, variant) {
			return true
		}
	}
	return false
}

// isEcho reports whether a returned name is just the query or its symbol
// variants repeated back
func isEcho(name, query, variant string) bool {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return true
	}
	switch upper {
	case strings.ToUpper(query), strings.ToUpper(variant), ticker.StripSuffix(strings.ToUpper(query)), ticker.StripSuffix(strings.ToUpper(variant)):
		return true
	}
	return false
}
