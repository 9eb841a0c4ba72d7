package errors

import (
	"fmt"
	"net/http"
)

// Error codes are stable identifiers; messages are for logs and operators.

// Order subtree error codes.
const (
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeCascadeFailed     = "CASCADE_DELETE_FAILED"
	CodeCascadeIncomplete = "CASCADE_DELETE_INCOMPLETE"
)

// Mix and inventory error codes.
const (
	CodeMixMaterialNotFound = "MIX_MATERIAL_NOT_FOUND"
	CodeMixItemNotFound     = "MIX_ITEM_NOT_FOUND"
	CodeRawMaterialNotFound = "RAW_MATERIAL_NOT_FOUND"
	CodeInsufficientStock   = "INSUFFICIENT_RAW_MATERIAL"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
)

// Repository error codes.
const CodeInvalidUpdateField = "INVALID_UPDATE_FIELD"

// CodeInvalidLogLevel rejects an unknown level on PUT /log/level.
const CodeInvalidLogLevel = "INVALID_LOG_LEVEL"

// SMS error codes.
const (
	CodeSMSInvalid    = "SMS_INVALID"
	CodeSMSSendFailed = "SMS_SEND_FAILED"
)

// ErrInsufficientStockf creates the user-visible insufficient raw material error.
func ErrInsufficientStockf(rawMaterialID int64, available, requested float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    fmt.Sprintf("raw material %d has %.3f on hand, %.3f requested", rawMaterialID, available, requested),
		HTTPStatus: http.StatusUnprocessableEntity,
		Params: map[string]interface{}{
			"raw_material_id": rawMaterialID,
			"available":       available,
			"requested":       requested,
		},
		Err: ErrInsufficientStock,
	}
}

// ErrInvalidUpdateFieldf rejects a partial update naming an unknown or immutable column.
func ErrInvalidUpdateFieldf(table, field string) *AppError {
	return &AppError{
		Code:       CodeInvalidUpdateField,
		Message:    fmt.Sprintf("field %q cannot be updated on %s", field, table),
		HTTPStatus: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}
}
