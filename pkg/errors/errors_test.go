package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"segment", fmt.Errorf("anchor 12: %w", ErrSegmentNotFound), http.StatusNotFound},
		{"input", fmt.Errorf("target length: %w", ErrInvalidInput), http.StatusBadRequest},
		{"graph", ErrGraphFormat, http.StatusBadRequest},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"app error", New(ErrTimeout, http.StatusTeapot, "custom"), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "target length %d", -1)
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected AppError to unwrap to its sentinel")
	}
	if err.Error() != "invalid input: target length -1" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
