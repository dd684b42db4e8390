// Package errors defines the runtime's shared dispatch-error taxonomy: a
// Kind, a Tagged wrapper carrying one, and KindOf to read it back. The
// native modules' own errors.go files declare plain errors.New values and
// do not wrap them in a Kind.
package errors

import stderrors "errors"

// Kind classifies a dispatch failure (spec §7).
type Kind string

const (
	KindBadInput         Kind = "bad_input"
	KindUnauthorized     Kind = "unauthorized"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindPrecondition     Kind = "precondition"
	KindQuotaExceeded    Kind = "quota_exceeded"
	KindFundsInsufficient Kind = "funds_insufficient"
	KindPriceUnavailable Kind = "price_unavailable"
	KindOracleOverflow   Kind = "oracle_overflow"
)

// Tagged wraps an underlying error with a Kind.
type Tagged struct {
	Kind Kind
	Err  error
}

func (t *Tagged) Error() string { return t.Err.Error() }
func (t *Tagged) Unwrap() error { return t.Err }

// New builds a Tagged error scoped to module, grounded on the teacher's
// "<module>: <message>" convention (core/errors/stake.go).
func New(kind Kind, module, message string) *Tagged {
	return &Tagged{Kind: kind, Err: stderrors.New(module + ": " + message)}
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *Tagged, defaulting to KindBadInput otherwise.
func KindOf(err error) Kind {
	var tagged *Tagged
	if stderrors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindBadInput
}
