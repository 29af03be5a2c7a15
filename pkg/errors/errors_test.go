package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrInternal, http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{"invalid input", fmt.Errorf("parsing limit: %w", ErrInvalidInput), http.StatusBadRequest},
		{"depth", fmt.Errorf("search: %w", ErrDepthExceeded), http.StatusUnprocessableEntity},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"dictionary", ErrDictionaryUnavailable, http.StatusServiceUnavailable},
		{"misaligned", ErrMisaligned, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "limit %d out of range", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid input: limit -1 out of range", err.Error())
}
