package main

import (
	"errors"

	"synthkit/pkg/transport"
)

// errorHint suggests a next step for service errors an operator can fix.
func errorHint(err error) string {
	var respErr *transport.ResponseError
	switch {
	case errors.Is(err, transport.ErrTokenExpired):
		return "token expired, set a fresh api.token or SYNTHKIT_TOKEN"
	case errors.As(err, &respErr) && respErr.Unauthorized():
		return "token rejected by the service, check api.token or SYNTHKIT_TOKEN"
	case errors.As(err, &respErr) && respErr.NotFound():
		return "resource not found, check the uid (list commands show the available ones)"
	default:
		return ""
	}
}

// describeError renders err for stderr, with a hint line when one applies.
func describeError(err error) string {
	if hint := errorHint(err); hint != "" {
		return err.Error() + "\nHint: " + hint
	}
	return err.Error()
}
