package dto

import "net/http"

// Generic error codes used by the HTTP layer itself
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Conflicts a client resolves by re-reading state map to 409; business rules
// a client can act on map to 422; everything unrecognized falls back to 500.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	"NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,

	// Race outcomes: the loser re-reads and moves on
	"ALREADY_CLAIMED":         http.StatusConflict,
	"CONCURRENT_MODIFICATION": http.StatusConflict,
	"RELEASE_REFUSED":         http.StatusConflict,

	// Worker identity
	"NOT_CLAIM_HOLDER": http.StatusForbidden,

	// Business rules
	"INSUFFICIENT_STOCK": http.StatusUnprocessableEntity,
	"WRONG_ITEM_SCAN":    http.StatusUnprocessableEntity,
	"EXCESS_PICK":        http.StatusUnprocessableEntity,
	"INVALID_STATE":      http.StatusUnprocessableEntity,

	// Malformed input
	"INVALID_INPUT":            http.StatusBadRequest,
	"INVALID_ACTION":           http.StatusBadRequest,
	"INVALID_QUANTITY":         http.StatusBadRequest,
	"INVALID_DELTA":            http.StatusBadRequest,
	"INVALID_REASON":           http.StatusBadRequest,
	"INVALID_SHORT_REASON":     http.StatusBadRequest,
	"INVALID_ITEM":             http.StatusBadRequest,
	"INVALID_BIN":              http.StatusBadRequest,
	"INVALID_BIN_CODE":         http.StatusBadRequest,
	"INVALID_ZONE":             http.StatusBadRequest,
	"INVALID_PICK_SEQUENCE":    http.StatusBadRequest,
	"INVALID_SKU":              http.StatusBadRequest,
	"INVALID_NAME":             http.StatusBadRequest,
	"INVALID_ORDER":            http.StatusBadRequest,
	"INVALID_ORDER_NUMBER":     http.StatusBadRequest,
	"INVALID_PRIORITY":         http.StatusBadRequest,
	"INVALID_LINE":             http.StatusBadRequest,
	"INVALID_WORKER":           http.StatusBadRequest,
	"INVALID_LEASE":            http.StatusBadRequest,
	"INVALID_REFERENCE_ID":     http.StatusBadRequest,
	"INVALID_REFERENCE_TYPE":   http.StatusBadRequest,
	"INVALID_TRANSACTION_TYPE": http.StatusBadRequest,
	"EMPTY_ORDER":              http.StatusBadRequest,
	"UNKNOWN_SKU":              http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
