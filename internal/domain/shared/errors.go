package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes surfaced by the ledger and workflow core
const (
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeIllegalTransition      = "ILLEGAL_TRANSITION"
	CodeNotFound               = "NOT_FOUND"
	CodeDuplicateKey           = "DUPLICATE_KEY"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeOutOfOrder             = "OUT_OF_ORDER"
	CodeAlreadyTerminal        = "ALREADY_TERMINAL"
	CodeInsufficientFunds      = "INSUFFICIENT_FUNDS"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeInvalidInput           = "INVALID_INPUT"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrDuplicateKey           = NewDomainError(CodeDuplicateKey, "Resource already exists")
	ErrInvalidInput           = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrentModification = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
	ErrUnauthorized           = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInsufficientFunds      = NewDomainError(CodeInsufficientFunds, "Insufficient funds available")
)

// IsCode reports whether err is a DomainError carrying the given code
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DomainError); ok {
		return de.Code == code
	}
	return false
}
