package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/donezo-dev/donezo/internal/client"
)

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "backend message", err: fmt.Errorf("login failed: %w", &client.APIError{Status: 401, Message: "Invalid credentials"}), want: "Invalid credentials"},
		{name: "backend without message", err: &client.APIError{Status: 500, Body: "oops"}, want: GenericLoginFailure},
		{name: "undecodable success body", err: &client.APIError{Status: 200, Message: "failed to decode response"}, want: GenericLoginFailure},
		{name: "missing token", err: &ValidationError{Field: "token", Message: "login response missing token", Err: ErrMissingToken}, want: GenericLoginFailure},
		{name: "input problem", err: &ValidationError{Field: "email", Message: "email is required"}, want: "email is required"},
		{name: "network", err: errors.New("dial tcp: connection refused"), want: GenericLoginFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureMessage(tt.err))
		})
	}
}
