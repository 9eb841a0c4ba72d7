package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New("ORDER_NOT_FOUND", "order not found", http.StatusNotFound),
			want: "ORDER_NOT_FOUND: order not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), "DB_ERROR", "database failure", http.StatusInternalServerError),
			want: "DB_ERROR: database failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, "CODE", "msg", 500)

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound(CodeOrderNotFound, "order not found")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if got.Code != CodeOrderNotFound {
		t.Errorf("Code = %q, want %s", got.Code, CodeOrderNotFound)
	}
	if !HasCode(wrapped, CodeOrderNotFound) {
		t.Error("HasCode should match wrapped code")
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
	}{
		{"NotFound", NotFound("NF", "not found"), http.StatusNotFound},
		{"BadRequest", BadRequest("BR", "bad request"), http.StatusBadRequest},
		{"Conflict", Conflict("CF", "conflict"), http.StatusConflict},
		{"Unprocessable", Unprocessable("UP", "unprocessable"), http.StatusUnprocessableEntity},
		{"Internal", Internal("IE", "internal"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestErrInsufficientStockf(t *testing.T) {
	err := ErrInsufficientStockf(7, 2.5, 4)

	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatal("errors.Is(err, ErrInsufficientStock) = false")
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("HTTPStatus = %d, want 422", err.HTTPStatus)
	}
	if err.Params["raw_material_id"] != int64(7) {
		t.Errorf("Params[raw_material_id] = %v, want 7", err.Params["raw_material_id"])
	}
}
