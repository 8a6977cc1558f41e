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

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")

	// ErrInsufficientStock signals that a reserve or pick request exceeds the
	// quantity the ledger can commit. Callers recover by retrying a smaller
	// quantity or a different bin.
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")

	// ErrAlreadyClaimed signals a lost claim race. The loser re-reads the
	// queue rather than retrying the same order.
	ErrAlreadyClaimed = NewDomainError("ALREADY_CLAIMED", "Order is already claimed by another worker")

	// ErrReleaseRefused signals that a claim release was refused because pick
	// progress exists on the order.
	ErrReleaseRefused = NewDomainError("RELEASE_REFUSED", "Order has pick progress and cannot be released")

	// ErrConcurrentModification signals that a conditional update's
	// precondition no longer held at write time.
	ErrConcurrentModification = NewDomainError("CONCURRENT_MODIFICATION", "Resource was modified by another process")

	// ErrWrongItemScan signals that a scanned code does not match the
	// expected SKU. No state change occurs.
	ErrWrongItemScan = NewDomainError("WRONG_ITEM_SCAN", "Scanned code does not match the expected item")
)
