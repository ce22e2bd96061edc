package apperr

import "errors"

var (
	ErrBudgetExhausted = errors.New("retry budget exhausted")
	ErrCountMismatch   = errors.New("note count mismatch")
	ErrEmptyTitle      = errors.New("empty note title")
)
