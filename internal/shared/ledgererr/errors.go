package ledgererr

import "errors"

// Taxonomia de erros do ledger. Sempre embrulhados com %w e testados com errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidInput      = errors.New("invalid input")
)
