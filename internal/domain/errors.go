package domain

import (
	"errors"
	"fmt"
)

// ErrMissingReferenceData indicates a symbol has no entry in the reference
// snapshot. It is non-fatal: the holding is built with a zero current price
// and its PriceStale flag set.
var ErrMissingReferenceData = errors.New("missing reference data for symbol")

// MalformedInputError indicates a trade source is missing a required column
// or carries an unparseable value. It is fatal for the batch it came from.
type MalformedInputError struct {
	Source string // file or source name
	Column string // offending column
	Reason string // optional detail (bad value, parse failure)
}

func (e *MalformedInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed trade source %q: column %q: %s", e.Source, e.Column, e.Reason)
	}
	return fmt.Sprintf("malformed trade source %q: missing required column %q", e.Source, e.Column)
}

// IsMalformedInput reports whether err wraps a MalformedInputError.
func IsMalformedInput(err error) bool {
	var me *MalformedInputError
	return errors.As(err, &me)
}
