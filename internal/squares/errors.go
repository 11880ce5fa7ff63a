package squares

import "errors"

var (
	// ErrInvalidInput is returned for out-of-range rows, columns, quarters or pots
	ErrInvalidInput = errors.New("invalid input")

	// ErrPermutationNotSet is returned when digits are requested before the
	// contract has assigned rows and cols
	ErrPermutationNotSet = errors.New("random values not set")

	// ErrMissingData is returned when a contest or score snapshot is absent
	ErrMissingData = errors.New("missing contest or scores")

	// ErrInconsistentPayout is returned when the local payout table disagrees
	// with the contract constants
	ErrInconsistentPayout = errors.New("payout schedule does not match contract")
)
