package sim

import (
	"errors"
	"fmt"
)

// FailureReason explains why a purchase attempt did not complete. Failures are
// recovered locally and only ever surface in records.
type FailureReason string

const (
	// ReasonProductUnavailable: no supplier currently stocks the product.
	ReasonProductUnavailable FailureReason = "product_unavailable"
	// ReasonNoPriceQuoted: the chosen supplier has stock but no quote.
	ReasonNoPriceQuoted FailureReason = "no_price_quoted"
	// ReasonInsufficientBudget: the company cannot afford a single unit.
	ReasonInsufficientBudget FailureReason = "insufficient_budget"
	// ReasonNoCandidate: the company was selected but its strategy found nothing
	// affordable, so no purchase was attempted.
	ReasonNoCandidate FailureReason = "no_candidate"
)

// ErrInvariant marks a broken engine invariant (a stale identifier, an unknown
// strategy). A tick that returns it has failed and the run must not continue.
var ErrInvariant = errors.New("engine invariant violated")

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
