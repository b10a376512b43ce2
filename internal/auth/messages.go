package auth

import (
	"errors"

	"github.com/donezo-dev/donezo/internal/client"
)

// GenericLoginFailure is shown when the backend gives no usable message
const GenericLoginFailure = "Login failed. Please check your credentials."

// FailureMessage turns a Login error into text for the user.
// Backend messages are shown verbatim; input problems name the field.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status >= 400 {
		return apiErr.Message
	}

	var verr *ValidationError
	if errors.As(err, &verr) && verr.Field != "token" && verr.Message != "" {
		return verr.Message
	}

	return GenericLoginFailure
}
