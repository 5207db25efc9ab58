package loans

import "errors"

var (
	// ErrLoanNotFound indicates a missing loan.
	ErrLoanNotFound = errors.New("lending: loan not found")
	// ErrInvalidLoanState indicates an operation against a loan whose status
	// does not permit it.
	ErrInvalidLoanState = errors.New("lending: loan status does not permit this operation")
	// ErrInvalidParameter indicates an out-of-range restructure parameter.
	ErrInvalidParameter = errors.New("lending: invalid restructure parameter")
	// ErrInvalidAmount indicates a non-positive payment or waiver amount.
	ErrInvalidAmount = errors.New("lending: amount must be positive")
)
